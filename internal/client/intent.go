package client

import (
	"context"

	"github.com/explorer-world/explorer-api/internal/client/api"
	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// Backend is the server as seen by the orchestrator. *api.Client implements it.
type Backend interface {
	Verify(ctx context.Context) (*domain.Principal, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, in api.RegisterRequest) (*domain.User, error)
	Logout(ctx context.Context) error

	ListLocations(ctx context.Context) ([]domain.LocationView, error)
	GetLocation(ctx context.Context, id string) (*domain.LocationView, error)
	CreateLocation(ctx context.Context, in api.LocationInput, idempotencyKey string) (*domain.LocationView, error)
	UpdateLocation(ctx context.Context, id string, in api.LocationUpdate) (*domain.LocationView, error)
	DeleteLocation(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, in api.UserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in api.UserUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

var _ Backend = (*api.Client)(nil)

// Kind names a kind of intent.
type Kind string

const (
	KindVerifySession  Kind = "auth/verify"
	KindLogin          Kind = "auth/login"
	KindRegister       Kind = "auth/register"
	KindLogout         Kind = "auth/logout"
	KindFetchLocations Kind = "locations/fetch"
	KindFetchLocation  Kind = "locations/fetch_one"
	KindCreateLocation Kind = "locations/create"
	KindUpdateLocation Kind = "locations/update"
	KindDeleteLocation Kind = "locations/delete"
	KindFetchUsers     Kind = "users/fetch"
	KindCreateUser     Kind = "users/create"
	KindUpdateUser     Kind = "users/update"
	KindDeleteUser     Kind = "users/delete"
)

// Policy decides what happens when an intent is dispatched while another of
// the same kind is still in flight.
type Policy int

const (
	// Independent intents all run to completion and commit their results,
	// possibly out of dispatch order.
	Independent Policy = iota
	// Restartable intents supersede their in-flight predecessor: the older
	// request keeps running but its result is discarded.
	Restartable
)

func (p Policy) String() string {
	if p == Restartable {
		return "restartable"
	}
	return "independent"
}

type slice int

const (
	sliceAuth slice = iota
	sliceLocations
	sliceUsers
)

type kindSpec struct {
	policy Policy
	slice  slice
}

var kinds = map[Kind]kindSpec{
	KindVerifySession:  {Restartable, sliceAuth},
	KindLogin:          {Independent, sliceAuth},
	KindRegister:       {Independent, sliceAuth},
	KindLogout:         {Restartable, sliceAuth},
	KindFetchLocations: {Restartable, sliceLocations},
	KindFetchLocation:  {Restartable, sliceLocations},
	KindCreateLocation: {Independent, sliceLocations},
	KindUpdateLocation: {Independent, sliceLocations},
	KindDeleteLocation: {Independent, sliceLocations},
	KindFetchUsers:     {Restartable, sliceUsers},
	KindCreateUser:     {Independent, sliceUsers},
	KindUpdateUser:     {Independent, sliceUsers},
	KindDeleteUser:     {Independent, sliceUsers},
}

// PolicyOf returns the concurrency policy declared for k.
func PolicyOf(k Kind) Policy {
	return kinds[k].policy
}

// Intent is a user action that needs a server round trip. The set of intents
// is closed; build them with the constructors in this file.
type Intent interface {
	Kind() Kind
	// execute performs the round trip and returns the change to commit on
	// success.
	execute(ctx context.Context, b Backend) (reducer, error)
}

// reducer turns a snapshot into the next one.
type reducer func(State) State

// refetcher is implemented by intents whose success must be followed by a
// reload of the owning collection.
type refetcher interface {
	refetch() Intent
}

type verifySession struct{}

// VerifySession checks whether the stored session is still valid.
func VerifySession() Intent { return verifySession{} }

func (verifySession) Kind() Kind { return KindVerifySession }

func (verifySession) execute(ctx context.Context, b Backend) (reducer, error) {
	p, err := b.Verify(ctx)
	if err != nil {
		return nil, err
	}
	return func(s State) State { return authenticated(s, p) }, nil
}

type login struct {
	email, password string
}

func Login(email, password string) Intent { return login{email: email, password: password} }

func (login) Kind() Kind { return KindLogin }

func (i login) execute(ctx context.Context, b Backend) (reducer, error) {
	u, err := b.Login(ctx, i.email, i.password)
	if err != nil {
		return nil, err
	}
	return func(s State) State { return authenticated(s, u.Principal()) }, nil
}

type register struct {
	in api.RegisterRequest
}

func Register(in api.RegisterRequest) Intent { return register{in: in} }

func (register) Kind() Kind { return KindRegister }

func (i register) execute(ctx context.Context, b Backend) (reducer, error) {
	u, err := b.Register(ctx, i.in)
	if err != nil {
		return nil, err
	}
	return func(s State) State { return authenticated(s, u.Principal()) }, nil
}

type logout struct{}

// Logout ends the session. Local session state is cleared even when the
// server cannot be reached.
func Logout() Intent { return logout{} }

func (logout) Kind() Kind { return KindLogout }

func (logout) execute(ctx context.Context, b Backend) (reducer, error) {
	if err := b.Logout(ctx); err != nil {
		return nil, err
	}
	return loggedOut, nil
}

type fetchLocations struct{}

func FetchLocations() Intent { return fetchLocations{} }

func (fetchLocations) Kind() Kind { return KindFetchLocations }

func (fetchLocations) execute(ctx context.Context, b Backend) (reducer, error) {
	locs, err := b.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	return func(s State) State {
		s.Locations.Items = append([]domain.LocationView{}, locs...)
		return s
	}, nil
}

type fetchLocation struct {
	id string
}

func FetchLocation(id string) Intent { return fetchLocation{id: id} }

func (fetchLocation) Kind() Kind { return KindFetchLocation }

func (i fetchLocation) execute(ctx context.Context, b Backend) (reducer, error) {
	loc, err := b.GetLocation(ctx, i.id)
	if err != nil {
		return nil, err
	}
	return func(s State) State {
		current := *loc
		s.Locations.Current = &current
		return s
	}, nil
}

type createLocation struct {
	in  api.LocationInput
	key string
}

// CreateLocation creates a location. A non-empty idempotencyKey makes retries
// of the same intent safe.
func CreateLocation(in api.LocationInput, idempotencyKey string) Intent {
	return createLocation{in: in, key: idempotencyKey}
}

func (createLocation) Kind() Kind { return KindCreateLocation }

func (i createLocation) execute(ctx context.Context, b Backend) (reducer, error) {
	loc, err := b.CreateLocation(ctx, i.in, i.key)
	if err != nil {
		return nil, err
	}
	return func(s State) State { return upsertLocation(s, *loc) }, nil
}

type updateLocation struct {
	id string
	in api.LocationUpdate
}

func UpdateLocation(id string, in api.LocationUpdate) Intent {
	return updateLocation{id: id, in: in}
}

func (updateLocation) Kind() Kind { return KindUpdateLocation }

func (i updateLocation) execute(ctx context.Context, b Backend) (reducer, error) {
	loc, err := b.UpdateLocation(ctx, i.id, i.in)
	if err != nil {
		return nil, err
	}
	return func(s State) State { return replaceLocation(s, *loc) }, nil
}

func (updateLocation) refetch() Intent { return FetchLocations() }

type deleteLocation struct {
	id string
}

func DeleteLocation(id string) Intent { return deleteLocation{id: id} }

func (deleteLocation) Kind() Kind { return KindDeleteLocation }

func (i deleteLocation) execute(ctx context.Context, b Backend) (reducer, error) {
	if err := b.DeleteLocation(ctx, i.id); err != nil {
		return nil, err
	}
	return func(s State) State { return removeLocation(s, i.id) }, nil
}

type fetchUsers struct{}

func FetchUsers() Intent { return fetchUsers{} }

func (fetchUsers) Kind() Kind { return KindFetchUsers }

func (fetchUsers) execute(ctx context.Context, b Backend) (reducer, error) {
	users, err := b.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return func(s State) State {
		s.Users.Items = append([]domain.User{}, users...)
		return s
	}, nil
}

type createUser struct {
	in api.UserInput
}

func CreateUser(in api.UserInput) Intent { return createUser{in: in} }

func (createUser) Kind() Kind { return KindCreateUser }

func (i createUser) execute(ctx context.Context, b Backend) (reducer, error) {
	u, err := b.CreateUser(ctx, i.in)
	if err != nil {
		return nil, err
	}
	return func(s State) State { return upsertUser(s, *u) }, nil
}

type updateUser struct {
	id string
	in api.UserUpdate
}

func UpdateUser(id string, in api.UserUpdate) Intent { return updateUser{id: id, in: in} }

func (updateUser) Kind() Kind { return KindUpdateUser }

func (i updateUser) execute(ctx context.Context, b Backend) (reducer, error) {
	u, err := b.UpdateUser(ctx, i.id, i.in)
	if err != nil {
		return nil, err
	}
	return func(s State) State { return replaceUser(s, *u) }, nil
}

func (updateUser) refetch() Intent { return FetchUsers() }

type deleteUser struct {
	id string
}

func DeleteUser(id string) Intent { return deleteUser{id: id} }

func (deleteUser) Kind() Kind { return KindDeleteUser }

func (i deleteUser) execute(ctx context.Context, b Backend) (reducer, error) {
	if err := b.DeleteUser(ctx, i.id); err != nil {
		return nil, err
	}
	return func(s State) State { return removeUser(s, i.id) }, nil
}
