package ports

import (
	"context"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// RegisterInput carries self-registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is the outcome of a successful register or login.
type Session struct {
	Token string
	User  *domain.User
}

// AuthService handles credentials and session tokens.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Resolve verifies a session token and loads the principal it names.
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
}
