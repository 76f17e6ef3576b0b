package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func withoutHash(u *domain.User) *domain.User {
	clone := cloneUser(u)
	clone.PasswordHash = ""
	return clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[copy.ID] = copy
	return withoutHash(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return withoutHash(u), nil
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*domain.User)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = withoutHash(u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, withoutHash(u))
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	return withoutHash(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type stubLocationRepo struct {
	mu        sync.Mutex
	locs      map[string]*domain.Location
	nextID    int
	createErr error
}

func newStubLocationRepo() *stubLocationRepo {
	return &stubLocationRepo{locs: make(map[string]*domain.Location)}
}

func cloneLocation(l *domain.Location) *domain.Location {
	clone := *l
	clone.Gallery = append([]domain.GalleryImage{}, l.Gallery...)
	return &clone
}

func (r *stubLocationRepo) Create(_ context.Context, loc *domain.Location) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	copy := cloneLocation(loc)
	copy.ID = fmt.Sprintf("loc-%d", r.nextID)
	// keep creation order strictly increasing for the newest-first sort
	copy.CreatedAt = copy.CreatedAt.Add(time.Duration(r.nextID) * time.Millisecond)
	r.locs[copy.ID] = copy
	return cloneLocation(copy), nil
}

func (r *stubLocationRepo) FindByID(_ context.Context, id string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locs[id]
	if !ok {
		return nil, domain.ErrLocationNotFound
	}
	return cloneLocation(l), nil
}

func (r *stubLocationRepo) List(_ context.Context, filter ports.ListLocationsFilter) ([]*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Location, 0, len(r.locs))
	for _, l := range r.locs {
		if filter.CreatedBy != "" && l.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, cloneLocation(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubLocationRepo) Update(_ context.Context, id string, p ports.LocationPatch) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locs[id]
	if !ok {
		return nil, domain.ErrLocationNotFound
	}
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Lat != nil {
		l.Position.Lat = *p.Lat
	}
	if p.Lng != nil {
		l.Position.Lng = *p.Lng
	}
	if p.ImageURL != nil {
		u := *p.ImageURL
		l.ImageURL = &u
	}
	if p.Icon != nil {
		if p.Icon.URL != nil {
			l.Icon.URL = *p.Icon.URL
		}
		if sz := p.Icon.ScaledSize; sz != nil {
			if sz.Width != nil {
				l.Icon.ScaledSize.Width = *sz.Width
			}
			if sz.Height != nil {
				l.Icon.ScaledSize.Height = *sz.Height
			}
		}
	}
	l.UpdatedAt = time.Now().UTC()
	return cloneLocation(l), nil
}

func (r *stubLocationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locs[id]; !ok {
		return domain.ErrLocationNotFound
	}
	delete(r.locs, id)
	return nil
}

func (r *stubLocationRepo) PushGalleryImage(_ context.Context, id string, img domain.GalleryImage) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locs[id]
	if !ok {
		return nil, domain.ErrLocationNotFound
	}
	l.Gallery = append(l.Gallery, img)
	return cloneLocation(l), nil
}

func (r *stubLocationRepo) RemoveGalleryImage(_ context.Context, id string, index int) (*domain.Location, *domain.GalleryImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locs[id]
	if !ok {
		return nil, nil, domain.ErrLocationNotFound
	}
	if index < 0 || index >= len(l.Gallery) {
		return nil, nil, domain.ErrImageNotFound
	}
	removed := l.Gallery[index]
	l.Gallery = append(l.Gallery[:index:index], l.Gallery[index+1:]...)
	return cloneLocation(l), &removed, nil
}

// ---------------------------------------------------------------------------
// Stub stores
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	mu      sync.Mutex
	entries map[string]string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{entries: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, scope, key string, _ time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[scope+":"+key]
	if ok {
		return id, false, nil
	}
	s.entries[scope+":"+key] = ""
	return "", true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, scope, key, id string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[scope+":"+key] = id
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, scope+":"+key)
	return nil
}

type stubMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newStubMedia() *stubMedia {
	return &stubMedia{objects: make(map[string][]byte)}
}

func (m *stubMedia) Put(_ context.Context, obj ports.MediaObject) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[obj.Key] = b
	return "http://media.test/" + obj.Key, nil
}

func (m *stubMedia) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

type stubCleaner struct {
	mu   sync.Mutex
	jobs []ports.CleanupJob
}

func (c *stubCleaner) Enqueue(locationID string, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, ports.CleanupJob{LocationID: locationID, Keys: keys})
}
