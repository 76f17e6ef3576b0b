package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/explorer-world/explorer-api/internal/api/metrics"
	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/pkg/logger"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// PrincipalResolver turns a session token into the principal it names.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
}

type authenticateGate struct {
	resolver PrincipalResolver
}

// Authenticate reads the session cookie, verifies it and attaches the
// resolved principal to the request. The principal is loaded from the store
// on every request.
func Authenticate(resolver PrincipalResolver) Gate {
	return authenticateGate{resolver: resolver}
}

func (authenticateGate) Name() string { return "authenticate" }

func (g authenticateGate) Evaluate(c echo.Context) Decision {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
		return Deny(domain.ErrNotAuthorized)
	}

	ctx := c.Request().Context()
	p, err := g.resolver.Resolve(ctx, cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			metrics.AuthFailuresTotal.WithLabelValues("unknown_principal").Inc()
		case errors.Is(err, domain.ErrUnauthenticated):
			metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
		}
		return Deny(err)
	}

	SetPrincipal(c, p)
	l := logger.FromContext(ctx).With().Str("principal_id", p.ID).Logger()
	c.SetRequest(c.Request().WithContext(logger.WithContext(ctx, l)))
	return Allow()
}
