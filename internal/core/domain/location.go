package domain

import (
	"strings"
	"time"
)

const (
	DefaultIconWidth  = 40
	DefaultIconHeight = 40
)

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Valid reports whether both coordinates are inside their ranges.
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// ScaledSize controls how the map marker icon is drawn. Percent values are
// only used when UsePercentage is set.
type ScaledSize struct {
	Width         float64  `json:"width" bson:"width"`
	Height        float64  `json:"height" bson:"height"`
	WidthPercent  *float64 `json:"widthPercent" bson:"widthPercent"`
	HeightPercent *float64 `json:"heightPercent" bson:"heightPercent"`
	UsePercentage bool     `json:"usePercentage" bson:"usePercentage"`
}

// Icon describes the marker rendered for a location.
type Icon struct {
	URL        string     `json:"url" bson:"url"`
	ScaledSize ScaledSize `json:"scaledSize" bson:"scaledSize"`
}

// GalleryImage is a single picture attached to a location. ObjectKey is set
// when the image was uploaded to our own media store.
type GalleryImage struct {
	URL       string `json:"url" bson:"url"`
	Caption   string `json:"caption,omitempty" bson:"caption,omitempty"`
	ObjectKey string `json:"-" bson:"objectKey,omitempty"`
}

// Location is a point of interest owned by the principal who created it.
// CreatedBy never changes after creation.
type Location struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Position    Position       `json:"position"`
	Icon        Icon           `json:"icon"`
	ImageURL    *string        `json:"imageUrl"`
	Gallery     []GalleryImage `json:"gallery"`
	CreatedBy   string         `json:"-"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// MediaKeys returns the object keys of every uploaded gallery image.
func (l *Location) MediaKeys() []string {
	var keys []string
	for _, img := range l.Gallery {
		if img.ObjectKey != "" {
			keys = append(keys, img.ObjectKey)
		}
	}
	return keys
}

// Creator is the public projection of the account that created a location.
// Name and Email are empty when that account no longer exists.
type Creator struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// LocationView is a location enriched with its creator's identity.
type LocationView struct {
	Location
	CreatedBy Creator `json:"createdBy"`
}

// NewLocationView joins l with its creator. creator may be nil.
func NewLocationView(l *Location, creator *User) LocationView {
	view := LocationView{Location: *l, CreatedBy: Creator{ID: l.CreatedBy}}
	if view.Gallery == nil {
		view.Gallery = []GalleryImage{}
	}
	if creator != nil {
		view.CreatedBy.Name = creator.Name
		view.CreatedBy.Email = creator.Email
	}
	return view
}

// NormalizeText trims user supplied text the same way for every field.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}
