package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/explorer-world/explorer-api/internal/api/metrics"
	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// Decision is the outcome of a single gate: either allow, or deny with the
// error to report.
type Decision struct {
	err error
}

// Allow lets the request continue to the next gate.
func Allow() Decision { return Decision{} }

// Deny stops the request with err.
func Deny(err error) Decision { return Decision{err: err} }

// Allowed reports whether the request may continue.
func (d Decision) Allowed() bool { return d.err == nil }

// Err returns the rejection, or nil when allowed.
func (d Decision) Err() error { return d.err }

// Gate is one stage of the access pipeline of a route.
type Gate interface {
	// Name identifies the gate in metrics and logs.
	Name() string
	Evaluate(c echo.Context) Decision
}

// Chain runs gates in order and stops at the first denial. The handler is
// reached only when every gate allowed the request.
func Chain(gates ...Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, g := range gates {
				d := g.Evaluate(c)
				if d.Allowed() {
					continue
				}
				if errors.Is(d.Err(), domain.ErrForbidden) {
					metrics.AccessDeniedTotal.WithLabelValues(g.Name()).Inc()
				}
				return d.Err()
			}
			return next(c)
		}
	}
}

const principalKey = "principal"

// SetPrincipal attaches p to the request.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// Principal returns the principal attached by Authenticate, or nil.
func Principal(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}
