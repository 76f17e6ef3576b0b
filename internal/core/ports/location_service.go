package ports

import (
	"context"
	"io"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// CreateLocationInput carries every field of a new location. CreatedBy is
// always taken from the acting principal.
type CreateLocationInput struct {
	Title       string
	Description string
	Position    domain.Position
	Icon        domain.Icon
	ImageURL    *string
	// IdempotencyKey is optional; replays with the same key return the
	// location created by the first request.
	IdempotencyKey string
}

// CreateLocationResult reports whether the location was created now or
// replayed from an earlier request.
type CreateLocationResult struct {
	Location domain.LocationView
	Replayed bool
}

// GalleryUpload is a media file to be stored and attached to a location.
type GalleryUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Caption     string
}

// LocationService defines location use cases.
type LocationService interface {
	List(ctx context.Context, filter ListLocationsFilter) ([]domain.LocationView, error)
	Get(ctx context.Context, id string) (*domain.LocationView, error)
	// Owner returns the creator id of a location, or a NotFound error.
	Owner(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, actor *domain.Principal, in CreateLocationInput) (*CreateLocationResult, error)
	Update(ctx context.Context, actor *domain.Principal, id string, patch LocationPatch) (*domain.LocationView, error)
	Delete(ctx context.Context, actor *domain.Principal, id string) error
	AddGalleryImage(ctx context.Context, actor *domain.Principal, id string, img domain.GalleryImage) (*domain.LocationView, error)
	UploadGalleryImage(ctx context.Context, actor *domain.Principal, id string, up GalleryUpload) (*domain.LocationView, error)
	RemoveGalleryImage(ctx context.Context, actor *domain.Principal, id string, index int) (*domain.LocationView, error)
}
