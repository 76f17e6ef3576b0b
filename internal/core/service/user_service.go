package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

// UserService implements admin account management. Callers are expected to
// have passed the admin role gate.
type UserService struct {
	repo   ports.UserRepository
	cost   int
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, cost int, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, cost: cost, logger: logger}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	name := domain.NormalizeText(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.InvalidInput("Name, email and password are required")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.InvalidInput("Invalid role")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(role)).Msg("user created")
	return created, nil
}

// Update applies the fields present in in and leaves the rest untouched.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var patch ports.UserPatch
	if in.Name != nil {
		name := domain.NormalizeText(*in.Name)
		if name == "" {
			return nil, domain.InvalidInput("Name cannot be empty")
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, domain.InvalidInput("Email cannot be empty")
		}
		existing, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != id:
			return nil, domain.ErrUserExists
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		patch.Email = &email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, domain.InvalidInput("Invalid role")
		}
		role := *in.Role
		patch.Role = &role
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, domain.InvalidInput("Password cannot be empty")
		}
		hash, err := hashPassword(*in.Password, s.cost)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	if patch.Empty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Msg("user updated")
	return updated, nil
}

// Delete removes the account. Locations it created are kept.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
