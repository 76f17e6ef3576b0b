package handler

import (
	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

type positionRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type scaledSizeRequest struct {
	Width         *float64 `json:"width" validate:"omitempty,gt=0"`
	Height        *float64 `json:"height" validate:"omitempty,gt=0"`
	WidthPercent  *float64 `json:"widthPercent" validate:"omitempty,gt=0,lte=100"`
	HeightPercent *float64 `json:"heightPercent" validate:"omitempty,gt=0,lte=100"`
	UsePercentage *bool    `json:"usePercentage"`
}

type iconRequest struct {
	URL        string             `json:"url" validate:"required"`
	ScaledSize *scaledSizeRequest `json:"scaledSize"`
}

type createLocationRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Position    *positionRequest `json:"position" validate:"required"`
	Icon        *iconRequest     `json:"icon" validate:"required"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
}

type updatePositionRequest struct {
	Lat *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

type updateIconRequest struct {
	URL        *string            `json:"url" validate:"omitempty,min=1"`
	ScaledSize *scaledSizeRequest `json:"scaledSize"`
}

// updateLocationRequest carries only the fields to change. createdBy is not
// accepted.
type updateLocationRequest struct {
	Title       *string                `json:"title" validate:"omitempty,min=1"`
	Description *string                `json:"description" validate:"omitempty,min=1"`
	Position    *updatePositionRequest `json:"position"`
	Icon        *updateIconRequest     `json:"icon"`
	ImageURL    *string                `json:"imageUrl"`
}

type galleryImageRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption"`
}

func toCreateLocationInput(req createLocationRequest, idempotencyKey string) ports.CreateLocationInput {
	icon := domain.Icon{URL: req.Icon.URL}
	if sz := req.Icon.ScaledSize; sz != nil {
		icon.ScaledSize = domain.ScaledSize{
			WidthPercent:  sz.WidthPercent,
			HeightPercent: sz.HeightPercent,
		}
		if sz.Width != nil {
			icon.ScaledSize.Width = *sz.Width
		}
		if sz.Height != nil {
			icon.ScaledSize.Height = *sz.Height
		}
		if sz.UsePercentage != nil {
			icon.ScaledSize.UsePercentage = *sz.UsePercentage
		}
	}
	return ports.CreateLocationInput{
		Title:          req.Title,
		Description:    req.Description,
		Position:       domain.Position{Lat: *req.Position.Lat, Lng: *req.Position.Lng},
		Icon:           icon,
		ImageURL:       req.ImageURL,
		IdempotencyKey: idempotencyKey,
	}
}

func toLocationPatch(req updateLocationRequest) ports.LocationPatch {
	patch := ports.LocationPatch{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.Position != nil {
		patch.Lat = req.Position.Lat
		patch.Lng = req.Position.Lng
	}
	if req.Icon != nil {
		patch.Icon = &ports.IconPatch{URL: req.Icon.URL}
		if sz := req.Icon.ScaledSize; sz != nil {
			patch.Icon.ScaledSize = &ports.ScaledSizePatch{
				Width:         sz.Width,
				Height:        sz.Height,
				WidthPercent:  sz.WidthPercent,
				HeightPercent: sz.HeightPercent,
				UsePercentage: sz.UsePercentage,
			}
		}
	}
	return patch
}
