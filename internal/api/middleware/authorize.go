package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

type roleGate struct {
	allowed domain.RoleSet
}

// RequireRole admits principals whose role is in allowed. It must run after
// Authenticate.
func RequireRole(allowed domain.RoleSet) Gate {
	return roleGate{allowed: allowed}
}

func (roleGate) Name() string { return "role" }

func (g roleGate) Evaluate(c echo.Context) Decision {
	if err := domain.RequireRole(Principal(c), g.allowed); err != nil {
		return Deny(err)
	}
	return Allow()
}

// OwnerLookup returns the creator id of the resource with the given id.
type OwnerLookup func(ctx context.Context, id string) (string, error)

type ownershipGate struct {
	param string
	owner OwnerLookup
}

// RequireOwnership admits the creator of the resource named by the path
// parameter param, and admins. A missing resource is reported as such
// before ownership is evaluated.
func RequireOwnership(param string, owner OwnerLookup) Gate {
	return ownershipGate{param: param, owner: owner}
}

func (ownershipGate) Name() string { return "ownership" }

func (g ownershipGate) Evaluate(c echo.Context) Decision {
	p := Principal(c)
	if p == nil {
		return Deny(domain.ErrNotAuthorized)
	}
	ownerID, err := g.owner(c.Request().Context(), c.Param(g.param))
	if err != nil {
		return Deny(err)
	}
	if err := domain.RequireOwnership(p, ownerID); err != nil {
		return Deny(err)
	}
	return Allow()
}
