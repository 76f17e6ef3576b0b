package ports

import (
	"context"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// UserPatch lists the account fields to change. Nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	Role         *domain.Role
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.PasswordHash == nil
}

// UserRepository defines persistence operations for accounts.
//
// Every read except FindByEmail excludes the password hash from the returned
// projection; FindByEmail is the only path that needs it (login).
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByIDs returns the accounts that still exist, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
