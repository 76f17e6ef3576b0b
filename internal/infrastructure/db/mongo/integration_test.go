//go:build integration

package mongo_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
	repo "github.com/explorer-world/explorer-api/internal/infrastructure/db/mongo"
)

var uri string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	uri = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	client, db, err := repo.Connect(ctx, repo.Config{URI: uri, Database: "explorer_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	users := repo.NewUserRepository(db)
	locations := repo.NewLocationRepository(db)
	require.NoError(t, users.EnsureIndexes(ctx))
	require.NoError(t, locations.EnsureIndexes(ctx))

	now := time.Now().UTC()
	owner, err := users.Create(ctx, &domain.User{
		Name: "Alice", Email: "alice@example.com", PasswordHash: "hash",
		Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	t.Run("user_repository", func(t *testing.T) {
		_, err := users.Create(ctx, &domain.User{Name: "Dup", Email: "alice@example.com", PasswordHash: "x", Role: domain.RoleUser})
		require.ErrorIs(t, err, domain.ErrConflict)

		byEmail, err := users.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := users.FindByID(ctx, owner.ID)
		require.NoError(t, err)
		require.Empty(t, byID.PasswordHash)
		require.Equal(t, "Alice", byID.Name)

		role := domain.RoleModerator
		updated, err := users.Update(ctx, owner.ID, ports.UserPatch{Role: &role})
		require.NoError(t, err)
		require.Equal(t, domain.RoleModerator, updated.Role)
		require.Equal(t, "alice@example.com", updated.Email)

		_, err = users.FindByID(ctx, "not-an-id")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("location_repository", func(t *testing.T) {
		loc, err := locations.Create(ctx, &domain.Location{
			Title:       "Paris",
			Description: "City of light",
			Position:    domain.Position{Lat: 48.85, Lng: 2.35},
			Icon:        domain.Icon{URL: "https://example.com/pin.png", ScaledSize: domain.ScaledSize{Width: 40, Height: 40}},
			CreatedBy:   owner.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		require.NoError(t, err)

		title := "Paris, France"
		updated, err := locations.Update(ctx, loc.ID, ports.LocationPatch{Title: &title})
		require.NoError(t, err)
		require.Equal(t, title, updated.Title)
		require.Equal(t, "City of light", updated.Description)
		require.Equal(t, loc.Position, updated.Position)
		require.Equal(t, owner.ID, updated.CreatedBy)

		_, err = locations.PushGalleryImage(ctx, loc.ID, domain.GalleryImage{URL: "https://example.com/a.jpg"})
		require.NoError(t, err)
		_, err = locations.PushGalleryImage(ctx, loc.ID, domain.GalleryImage{URL: "https://example.com/b.jpg", ObjectKey: "locations/b.jpg"})
		require.NoError(t, err)

		after, removed, err := locations.RemoveGalleryImage(ctx, loc.ID, 1)
		require.NoError(t, err)
		require.Equal(t, "locations/b.jpg", removed.ObjectKey)
		require.Len(t, after.Gallery, 1)

		_, _, err = locations.RemoveGalleryImage(ctx, loc.ID, 5)
		require.True(t, errors.Is(err, domain.ErrImageNotFound))

		list, err := locations.List(ctx, ports.ListLocationsFilter{CreatedBy: owner.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)

		none, err := locations.List(ctx, ports.ListLocationsFilter{CreatedBy: primitive.NewObjectID().Hex()})
		require.NoError(t, err)
		require.Empty(t, none)

		require.NoError(t, locations.Delete(ctx, loc.ID))
		require.ErrorIs(t, locations.Delete(ctx, loc.ID), domain.ErrNotFound)
	})
}
