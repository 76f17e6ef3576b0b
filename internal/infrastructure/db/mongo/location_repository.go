package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

const collectionLocations = "locations"

type LocationRepository struct {
	col *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) *LocationRepository {
	return &LocationRepository{col: db.Collection(collectionLocations)}
}

type mongoLocation struct {
	ID          primitive.ObjectID    `bson:"_id,omitempty"`
	Title       string                `bson:"title"`
	Description string                `bson:"description"`
	Position    domain.Position       `bson:"position"`
	Icon        domain.Icon           `bson:"icon"`
	ImageURL    *string               `bson:"imageUrl,omitempty"`
	Gallery     []domain.GalleryImage `bson:"gallery"`
	CreatedBy   primitive.ObjectID    `bson:"createdBy"`
	CreatedAt   time.Time             `bson:"createdAt"`
	UpdatedAt   time.Time             `bson:"updatedAt"`
}

func (m *mongoLocation) toDomain() *domain.Location {
	loc := &domain.Location{
		ID:          m.ID.Hex(),
		Title:       m.Title,
		Description: m.Description,
		Position:    m.Position,
		Icon:        m.Icon,
		ImageURL:    m.ImageURL,
		Gallery:     m.Gallery,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if !m.CreatedBy.IsZero() {
		loc.CreatedBy = m.CreatedBy.Hex()
	}
	if loc.Gallery == nil {
		loc.Gallery = []domain.GalleryImage{}
	}
	return loc
}

func (r *LocationRepository) Create(ctx context.Context, loc *domain.Location) (*domain.Location, error) {
	createdBy, err := primitive.ObjectIDFromHex(loc.CreatedBy)
	if err != nil {
		return nil, domain.InvalidInput("Invalid creator id")
	}
	gallery := loc.Gallery
	if gallery == nil {
		gallery = []domain.GalleryImage{}
	}
	doc := mongoLocation{
		Title:       loc.Title,
		Description: loc.Description,
		Position:    loc.Position,
		Icon:        loc.Icon,
		ImageURL:    loc.ImageURL,
		Gallery:     gallery,
		CreatedBy:   createdBy,
		CreatedAt:   loc.CreatedAt,
		UpdatedAt:   loc.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*domain.Location, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLocationNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoLocation
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, fmt.Errorf("find location: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns locations newest first. A malformed creator id matches nothing.
func (r *LocationRepository) List(ctx context.Context, filter ports.ListLocationsFilter) ([]*domain.Location, error) {
	query := bson.M{}
	if filter.CreatedBy != "" {
		oid, err := primitive.ObjectIDFromHex(filter.CreatedBy)
		if err != nil {
			return []*domain.Location{}, nil
		}
		query["createdBy"] = oid
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	var docs []mongoLocation
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	locs := make([]*domain.Location, 0, len(docs))
	for i := range docs {
		locs = append(locs, docs[i].toDomain())
	}
	return locs, nil
}

// Update sets only the fields present in patch. createdBy is never written.
func (r *LocationRepository) Update(ctx context.Context, id string, patch ports.LocationPatch) (*domain.Location, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLocationNotFound
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": patchSet(patch)})
}

func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrLocationNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLocationNotFound
	}
	return nil
}

func (r *LocationRepository) PushGalleryImage(ctx context.Context, id string, img domain.GalleryImage) (*domain.Location, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLocationNotFound
	}
	update := bson.M{
		"$push": bson.M{"gallery": img},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, update)
}

// RemoveGalleryImage drops the element at index in a single update so that a
// concurrent push cannot shift the removed position.
func (r *LocationRepository) RemoveGalleryImage(ctx context.Context, id string, index int) (*domain.Location, *domain.GalleryImage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, domain.ErrLocationNotFound
	}
	if index < 0 {
		return nil, nil, domain.ErrImageNotFound
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": oid, fmt.Sprintf("gallery.%d", index): bson.M{"$exists": true}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"gallery": bson.M{"$concatArrays": bson.A{
				bson.M{"$slice": bson.A{"$gallery", index}},
				bson.M{"$slice": bson.A{"$gallery", index + 1, bson.M{"$size": "$gallery"}}},
			}},
			"updatedAt": now,
		}}},
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var before mongoLocation
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	if err := r.col.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&before); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, fmt.Errorf("remove gallery image: %w", err)
		}
		n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": oid})
		if cerr != nil {
			return nil, nil, fmt.Errorf("count location: %w", cerr)
		}
		if n == 0 {
			return nil, nil, domain.ErrLocationNotFound
		}
		return nil, nil, domain.ErrImageNotFound
	}

	removed := before.Gallery[index]
	after := before.toDomain()
	after.Gallery = append(append([]domain.GalleryImage{}, before.Gallery[:index]...), before.Gallery[index+1:]...)
	after.UpdatedAt = now
	return after, &removed, nil
}

func (r *LocationRepository) findOneAndUpdate(ctx context.Context, filter, update interface{}) (*domain.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoLocation
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, fmt.Errorf("update location: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the listing indexes on the locations collection.
func (r *LocationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// patchSet translates a partial update into dotted $set paths so that nested
// fields not present in the patch keep their stored value.
func patchSet(p ports.LocationPatch) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Lat != nil {
		set["position.lat"] = *p.Lat
	}
	if p.Lng != nil {
		set["position.lng"] = *p.Lng
	}
	if p.ImageURL != nil {
		set["imageUrl"] = *p.ImageURL
	}
	if p.Icon != nil {
		if p.Icon.URL != nil {
			set["icon.url"] = *p.Icon.URL
		}
		if sz := p.Icon.ScaledSize; sz != nil {
			if sz.Width != nil {
				set["icon.scaledSize.width"] = *sz.Width
			}
			if sz.Height != nil {
				set["icon.scaledSize.height"] = *sz.Height
			}
			if sz.WidthPercent != nil {
				set["icon.scaledSize.widthPercent"] = *sz.WidthPercent
			}
			if sz.HeightPercent != nil {
				set["icon.scaledSize.heightPercent"] = *sz.HeightPercent
			}
			if sz.UsePercentage != nil {
				set["icon.scaledSize.usePercentage"] = *sz.UsePercentage
			}
		}
	}
	return set
}
