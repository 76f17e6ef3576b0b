// Package handlers serves the unauthenticated operational endpoints.
package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const defaultProbeTimeout = 3 * time.Second

// Check probes a single dependency.
type Check func(ctx context.Context) error

// MongoCheck runs a ping command against the database.
func MongoCheck(db *mongo.Database) Check {
	return func(ctx context.Context) error {
		return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}
}

// RedisCheck pings the Redis server.
func RedisCheck(rdb *redis.Client) Check {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// PingCheck adapts any dependency exposing Ping(ctx).
func PingCheck(p interface{ Ping(context.Context) error }) Check {
	return p.Ping
}

// Probes serves /health and /health/ready. Only configured dependencies are
// registered, so a deployment without Redis or object storage is still ready.
type Probes struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewProbes(checks map[string]Check) *Probes {
	return &Probes{checks: checks, timeout: defaultProbeTimeout}
}

type probeResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                 `json:"status"`
	Dependencies map[string]probeResult `json:"dependencies"`
}

// Live answers 200 while the process is serving requests.
func (p *Probes) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready runs every check in parallel under one deadline and answers 503 when
// any of them fails.
func (p *Probes) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), p.timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]probeResult, len(p.checks))
	)
	for name, check := range p.checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			started := time.Now()
			err := check(ctx)
			res := probeResult{Status: "ok", LatencyMS: time.Since(started).Milliseconds()}
			if err != nil {
				res.Status = "unhealthy"
				res.Error = err.Error()
			}
			mu.Lock()
			out[name] = res
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	resp := readinessResponse{Status: "ok", Dependencies: out}
	code := http.StatusOK
	for _, res := range out {
		if res.Status != "ok" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}
	return c.JSON(code, resp)
}
