// explorer is a command-line client for the explorer API. Every command runs
// through the client orchestrator: the session check first, then an optional
// login, then the command itself.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/explorer-world/explorer-api/internal/client"
	"github.com/explorer-world/explorer-api/internal/client/api"
	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/pkg/logger"
)

type options struct {
	server   string
	timeout  time.Duration
	email    string
	password string
	verbose  bool

	title       string
	description string
	lat         float64
	lng         float64
	icon        string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("explorer", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.server, "server", "s", envOr("EXPLORER_SERVER", "localhost:8080"), "API address")
	flagSet.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per request timeout")
	flagSet.StringVarP(&opts.email, "email", "e", os.Getenv("EXPLORER_EMAIL"), "login email")
	flagSet.StringVarP(&opts.password, "password", "p", os.Getenv("EXPLORER_PASSWORD"), "login password")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log every state transition to stderr")
	flagSet.StringVar(&opts.title, "title", "", "create-location: title")
	flagSet.StringVar(&opts.description, "description", "", "create-location: description")
	flagSet.Float64Var(&opts.lat, "lat", 0, "create-location: latitude")
	flagSet.Float64Var(&opts.lng, "lng", 0, "create-location: longitude")
	flagSet.StringVar(&opts.icon, "icon", "", "create-location: marker icon URL")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}
	command := flagSet.Arg(0)

	log := zerolog.Nop()
	if opts.verbose {
		log = logger.Init(logger.Options{Level: "debug", Pretty: true, Output: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := api.New(opts.server, opts.timeout)
	if err != nil {
		return err
	}
	store := client.NewStore()
	if opts.verbose {
		store.Subscribe(func(s client.State) {
			log.Debug().
				Bool("authenticated", s.Auth.IsAuthenticated).
				Bool("auth_loading", s.Auth.Loading).
				Int("locations", len(s.Locations.Items)).
				Bool("locations_loading", s.Locations.Loading).
				Int("users", len(s.Users.Items)).
				Bool("users_loading", s.Users.Loading).
				Msg("state")
		})
	}
	orch := client.NewOrchestrator(backend, store, log)
	orch.Start(ctx)

	if _, err := orch.Initialize(ctx); err != nil {
		return err
	}
	if opts.email != "" && opts.password != "" {
		orch.Dispatch(client.Login(opts.email, opts.password))
		orch.Wait()
		if auth := store.State().Auth; !auth.IsAuthenticated {
			return fmt.Errorf("login: %s", auth.Error)
		}
	}

	switch command {
	case "whoami":
		auth := store.State().Auth
		if !auth.IsAuthenticated {
			return errors.New("not logged in")
		}
		return printJSON(auth.User)

	case "locations":
		orch.Dispatch(client.FetchLocations())
		orch.Wait()
		st := store.State().Locations
		if st.Error != "" {
			return errors.New(st.Error)
		}
		return printJSON(st.Items)

	case "users":
		orch.Dispatch(client.FetchUsers())
		orch.Wait()
		st := store.State().Users
		if st.Error != "" {
			return errors.New(st.Error)
		}
		return printJSON(st.Items)

	case "create-location":
		in := api.LocationInput{
			Title:       opts.title,
			Description: opts.description,
			Position:    domain.Position{Lat: opts.lat, Lng: opts.lng},
			Icon:        domain.Icon{URL: opts.icon},
		}
		orch.Dispatch(client.CreateLocation(in, uuid.NewString()))
		orch.Wait()
		st := store.State().Locations
		if st.Error != "" {
			return errors.New(st.Error)
		}
		if n := len(st.Items); n > 0 {
			return printJSON(st.Items[n-1])
		}
		return nil

	case "logout":
		orch.Dispatch(client.Logout())
		orch.Wait()
		if msg := store.State().Auth.Error; msg != "" {
			return errors.New(msg)
		}
		fmt.Println("Logged out")
		return nil

	default:
		printHelp(flagSet)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: explorer [flags] <command>

Commands:
  whoami            show the current principal
  locations         list every location, newest first
  users             list accounts (admin only)
  create-location   create a location from --title, --description, --lat, --lng, --icon
  logout            end the session

Flags:
%s`, flagSet.FlagUsages())
}
