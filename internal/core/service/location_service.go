package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultMaxUploadBytes = 5 << 20
	reservationTTL        = time.Minute // how long a crashed create holds its key
)

// LocationOptions configures the optional collaborators of LocationService.
// A nil store disables the feature that depends on it.
type LocationOptions struct {
	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	Media          ports.MediaStore
	Cleaner        ports.MediaCleaner
	MaxUploadBytes int64
}

// LocationService implements location use cases. Ownership is checked here
// as well as in the route gates, so the service is safe to call directly.
type LocationService struct {
	repo   ports.LocationRepository
	users  ports.UserRepository
	opts   LocationOptions
	logger zerolog.Logger
}

func NewLocationService(repo ports.LocationRepository, users ports.UserRepository, opts LocationOptions, logger zerolog.Logger) *LocationService {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = defaultIdempotencyTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &LocationService{repo: repo, users: users, opts: opts, logger: logger}
}

// List returns matching locations, newest first, joined with their creators.
func (s *LocationService) List(ctx context.Context, filter ports.ListLocationsFilter) ([]domain.LocationView, error) {
	locs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return []domain.LocationView{}, nil
	}

	seen := make(map[string]struct{}, len(locs))
	ids := make([]string, 0, len(locs))
	for _, l := range locs {
		if _, ok := seen[l.CreatedBy]; ok || l.CreatedBy == "" {
			continue
		}
		seen[l.CreatedBy] = struct{}{}
		ids = append(ids, l.CreatedBy)
	}
	creators, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]domain.LocationView, 0, len(locs))
	for _, l := range locs {
		views = append(views, domain.NewLocationView(l, creators[l.CreatedBy]))
	}
	return views, nil
}

func (s *LocationService) Get(ctx context.Context, id string) (*domain.LocationView, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, loc)
}

// Owner returns the creator id of location id.
func (s *LocationService) Owner(ctx context.Context, id string) (string, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return loc.CreatedBy, nil
}

// Create stores a new location owned by actor. When an idempotency key is
// supplied and was already used by the same actor, the location created by
// that first request is returned instead.
func (s *LocationService) Create(ctx context.Context, actor *domain.Principal, in ports.CreateLocationInput) (*ports.CreateLocationResult, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthorized
	}

	loc, err := newLocation(actor.ID, in)
	if err != nil {
		return nil, err
	}

	replay, claimed, err := s.reserve(ctx, actor.ID, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("location_id", replay.ID).Msg("idempotent replay")
		return &ports.CreateLocationResult{Location: *replay, Replayed: true}, nil
	}

	created, err := s.repo.Create(ctx, loc)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create location")
		if claimed {
			if rerr := s.opts.Idempotency.Release(ctx, actor.ID, in.IdempotencyKey); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if claimed {
		if err := s.opts.Idempotency.Complete(ctx, actor.ID, in.IdempotencyKey, created.ID, s.opts.IdempotencyTTL); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Str("location_id", created.ID).Str("created_by", actor.ID).Msg("location created")

	view, err := s.view(ctx, created)
	if err != nil {
		return nil, err
	}
	return &ports.CreateLocationResult{Location: *view}, nil
}

// Update applies the fields present in patch after checking ownership.
func (s *LocationService) Update(ctx context.Context, actor *domain.Principal, id string, patch ports.LocationPatch) (*domain.LocationView, error) {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("location_id", id).Str("actor_id", actor.ID).Msg("location updated")
	return s.view(ctx, updated)
}

// Delete removes the location and schedules cleanup of its uploaded media.
func (s *LocationService) Delete(ctx context.Context, actor *domain.Principal, id string) error {
	loc, err := s.authorize(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cleanup(id, loc.MediaKeys()...)
	s.logger.Info().Str("location_id", id).Str("actor_id", actor.ID).Msg("location deleted")
	return nil
}

// AddGalleryImage attaches an externally hosted image.
func (s *LocationService) AddGalleryImage(ctx context.Context, actor *domain.Principal, id string, img domain.GalleryImage) (*domain.LocationView, error) {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	img.URL = strings.TrimSpace(img.URL)
	img.Caption = domain.NormalizeText(img.Caption)
	img.ObjectKey = ""
	if img.URL == "" {
		return nil, domain.InvalidInput("Image URL is required")
	}

	updated, err := s.repo.PushGalleryImage(ctx, id, img)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, updated)
}

// UploadGalleryImage stores the uploaded file and attaches it to the gallery.
func (s *LocationService) UploadGalleryImage(ctx context.Context, actor *domain.Principal, id string, up ports.GalleryUpload) (*domain.LocationView, error) {
	if s.opts.Media == nil {
		return nil, domain.InvalidInput("Media uploads are not enabled")
	}
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	if up.Size <= 0 {
		return nil, domain.InvalidInput("File is empty")
	}
	if up.Size > s.opts.MaxUploadBytes {
		return nil, domain.InvalidInput("File is too large")
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return nil, domain.InvalidInput("Only image uploads are accepted")
	}

	key := "locations/" + id + "/" + uuid.NewString() + strings.ToLower(path.Ext(up.Filename))
	url, err := s.opts.Media.Put(ctx, ports.MediaObject{
		Key:         key,
		ContentType: up.ContentType,
		Size:        up.Size,
		Body:        up.Body,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.PushGalleryImage(ctx, id, domain.GalleryImage{
		URL:       url,
		Caption:   domain.NormalizeText(up.Caption),
		ObjectKey: key,
	})
	if err != nil {
		s.cleanup(id, key)
		return nil, err
	}
	s.logger.Info().Str("location_id", id).Str("object_key", key).Msg("gallery image uploaded")
	return s.view(ctx, updated)
}

// RemoveGalleryImage drops the image at index. Uploaded media is deleted in
// the background.
func (s *LocationService) RemoveGalleryImage(ctx context.Context, actor *domain.Principal, id string, index int) (*domain.LocationView, error) {
	loc, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(loc.Gallery) {
		return nil, domain.ErrImageNotFound
	}

	updated, removed, err := s.repo.RemoveGalleryImage(ctx, id, index)
	if err != nil {
		return nil, err
	}
	if removed != nil && removed.ObjectKey != "" {
		s.cleanup(id, removed.ObjectKey)
	}
	return s.view(ctx, updated)
}

// authorize loads the location and checks that actor may modify it. A
// missing location is reported before ownership is evaluated.
func (s *LocationService) authorize(ctx context.Context, actor *domain.Principal, id string) (*domain.Location, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthorized
	}
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.RequireOwnership(actor, loc.CreatedBy); err != nil {
		return nil, err
	}
	return loc, nil
}

// reserve claims key for actorID before a location is created. It returns
// the location an earlier request created under key, or claimed=true when
// this request owns the key. A key whose first request is still running is
// a Conflict. When the store is unreachable the request proceeds without
// idempotency.
func (s *LocationService) reserve(ctx context.Context, actorID, key string) (replay *domain.LocationView, claimed bool, err error) {
	if key == "" || s.opts.Idempotency == nil {
		return nil, false, nil
	}
	id, reserved, err := s.opts.Idempotency.Reserve(ctx, actorID, key, reservationTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reservation failed")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if id == "" {
		return nil, false, domain.Conflict("A request with this Idempotency-Key is still in progress")
	}
	view, err := s.Get(ctx, id)
	if err != nil {
		// The first location was deleted since; this request takes the key over.
		return nil, true, nil
	}
	return view, false, nil
}

func (s *LocationService) view(ctx context.Context, loc *domain.Location) (*domain.LocationView, error) {
	var creator *domain.User
	if loc.CreatedBy != "" {
		u, err := s.users.FindByID(ctx, loc.CreatedBy)
		switch {
		case err == nil:
			creator = u
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	view := domain.NewLocationView(loc, creator)
	return &view, nil
}

func (s *LocationService) cleanup(locationID string, keys ...string) {
	if s.opts.Cleaner == nil || len(keys) == 0 {
		return
	}
	s.opts.Cleaner.Enqueue(locationID, keys...)
}

func newLocation(createdBy string, in ports.CreateLocationInput) (*domain.Location, error) {
	title := domain.NormalizeText(in.Title)
	description := domain.NormalizeText(in.Description)
	iconURL := strings.TrimSpace(in.Icon.URL)
	switch {
	case title == "":
		return nil, domain.InvalidInput("Title is required")
	case description == "":
		return nil, domain.InvalidInput("Description is required")
	case !in.Position.Valid():
		return nil, domain.InvalidInput("Position is out of range")
	case iconURL == "":
		return nil, domain.InvalidInput("Icon URL is required")
	}

	icon := in.Icon
	icon.URL = iconURL
	if icon.ScaledSize.Width <= 0 {
		icon.ScaledSize.Width = domain.DefaultIconWidth
	}
	if icon.ScaledSize.Height <= 0 {
		icon.ScaledSize.Height = domain.DefaultIconHeight
	}

	var imageURL *string
	if in.ImageURL != nil {
		if u := strings.TrimSpace(*in.ImageURL); u != "" {
			imageURL = &u
		}
	}

	now := time.Now().UTC()
	return &domain.Location{
		Title:       title,
		Description: description,
		Position:    in.Position,
		Icon:        icon,
		ImageURL:    imageURL,
		Gallery:     []domain.GalleryImage{},
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validatePatch(p *ports.LocationPatch) error {
	if p.Title != nil {
		t := domain.NormalizeText(*p.Title)
		if t == "" {
			return domain.InvalidInput("Title cannot be empty")
		}
		p.Title = &t
	}
	if p.Description != nil {
		d := domain.NormalizeText(*p.Description)
		if d == "" {
			return domain.InvalidInput("Description cannot be empty")
		}
		p.Description = &d
	}
	if p.Lat != nil && (*p.Lat < -90 || *p.Lat > 90) {
		return domain.InvalidInput("Latitude must be between -90 and 90")
	}
	if p.Lng != nil && (*p.Lng < -180 || *p.Lng > 180) {
		return domain.InvalidInput("Longitude must be between -180 and 180")
	}
	if p.Icon != nil && p.Icon.URL != nil {
		u := strings.TrimSpace(*p.Icon.URL)
		if u == "" {
			return domain.InvalidInput("Icon URL cannot be empty")
		}
		p.Icon.URL = &u
	}
	if p.Icon != nil && p.Icon.ScaledSize != nil {
		sz := p.Icon.ScaledSize
		if (sz.Width != nil && *sz.Width <= 0) || (sz.Height != nil && *sz.Height <= 0) {
			return domain.InvalidInput("Icon size must be positive")
		}
	}
	return nil
}
