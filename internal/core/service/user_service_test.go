package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_Create(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), bcrypt.MinCost, zerolog.Nop())

	u, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "Mod", Email: "mod@example.com", Password: "pass123", Role: domain.RoleModerator})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if u.Role != domain.RoleModerator || u.PasswordHash != "" {
		t.Fatalf("unexpected user: %+v", u)
	}

	def, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "Plain", Email: "plain@example.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if def.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", def.Role)
	}

	if _, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "X", Email: "x@example.com", Password: "pass123", Role: "root"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown role, got %v", err)
	}
	if _, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "Dup", Email: "mod@example.com", Password: "pass123"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserService_Update_Partial(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())
	u, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "Eve", Email: "eve@example.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.Update(context.Background(), u.ID, ports.UpdateUserInput{Role: ptr(domain.RoleAdmin)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Role != domain.RoleAdmin || updated.Name != "Eve" || updated.Email != "eve@example.com" {
		t.Fatalf("unexpected user after partial update: %+v", updated)
	}

	if _, err := svc.Update(context.Background(), u.ID, ports.UpdateUserInput{Password: ptr("newpass")}); err != nil {
		t.Fatalf("password update failed: %v", err)
	}
	stored, _ := repo.FindByEmail(context.Background(), "eve@example.com")
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpass")) != nil {
		t.Fatalf("password was not re-hashed")
	}
}

func TestUserService_Update_EmailTaken(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), bcrypt.MinCost, zerolog.Nop())
	a, _ := svc.Create(context.Background(), ports.CreateUserInput{Name: "A", Email: "a@example.com", Password: "pass123"})
	_, _ = svc.Create(context.Background(), ports.CreateUserInput{Name: "B", Email: "b@example.com", Password: "pass123"})

	if _, err := svc.Update(context.Background(), a.ID, ports.UpdateUserInput{Email: ptr("b@example.com")}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.Update(context.Background(), a.ID, ports.UpdateUserInput{Email: ptr("A@example.com")}); err != nil {
		t.Fatalf("keeping own email must succeed, got %v", err)
	}
}

func TestUserService_Update_UnknownUser(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), bcrypt.MinCost, zerolog.Nop())
	_, _ = svc.Create(context.Background(), ports.CreateUserInput{Name: "B", Email: "b@example.com", Password: "pass123"})

	if _, err := svc.Update(context.Background(), "missing", ports.UpdateUserInput{Email: ptr("b@example.com")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found before the email check, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "missing", ports.UpdateUserInput{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for an empty patch, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), bcrypt.MinCost, zerolog.Nop())
	u, _ := svc.Create(context.Background(), ports.CreateUserInput{Name: "Gone", Email: "gone@example.com", Password: "pass123"})

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
