package ports

import (
	"context"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// ListLocationsFilter narrows a location listing. Empty fields do not filter.
type ListLocationsFilter struct {
	CreatedBy string
}

// ScaledSizePatch carries the icon sizing fields present in an update.
type ScaledSizePatch struct {
	Width         *float64
	Height        *float64
	WidthPercent  *float64
	HeightPercent *float64
	UsePercentage *bool
}

// IconPatch carries the icon fields present in an update.
type IconPatch struct {
	URL        *string
	ScaledSize *ScaledSizePatch
}

// LocationPatch lists the location fields to change. Nil fields keep their
// stored value; CreatedBy is deliberately absent.
type LocationPatch struct {
	Title       *string
	Description *string
	Lat         *float64
	Lng         *float64
	Icon        *IconPatch
	ImageURL    *string
}

// LocationRepository defines persistence operations for locations. Each
// method touches exactly one document.
type LocationRepository interface {
	Create(ctx context.Context, loc *domain.Location) (*domain.Location, error)
	FindByID(ctx context.Context, id string) (*domain.Location, error)
	// List returns matching locations ordered by creation time, newest first.
	List(ctx context.Context, filter ListLocationsFilter) ([]*domain.Location, error)
	Update(ctx context.Context, id string, patch LocationPatch) (*domain.Location, error)
	Delete(ctx context.Context, id string) error
	PushGalleryImage(ctx context.Context, id string, img domain.GalleryImage) (*domain.Location, error)
	// RemoveGalleryImage removes the image at index and returns the updated
	// location together with the removed image.
	RemoveGalleryImage(ctx context.Context, id string, index int) (*domain.Location, *domain.GalleryImage, error)
}
