package client

import (
	"sync"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// AuthState mirrors the session. IsInitialized stays false until the first
// session check has settled; until then IsAuthenticated is undecided.
type AuthState struct {
	User            *domain.Principal
	IsAuthenticated bool
	IsInitialized   bool
	Loading         bool
	Error           string
}

// LocationsState mirrors the location collection and the location last
// fetched by id.
type LocationsState struct {
	Items   []domain.LocationView
	Current *domain.LocationView
	Loading bool
	Error   string
}

// UsersState mirrors the admin user listing.
type UsersState struct {
	Items   []domain.User
	Loading bool
	Error   string
}

// State is an immutable snapshot of everything the client mirrors from the
// server. Reducers build a new State instead of mutating slices in place, so
// a snapshot handed to a subscriber never changes underneath it.
type State struct {
	Auth      AuthState
	Locations LocationsState
	Users     UsersState
}

// Location returns the mirrored location with id.
func (s State) Location(id string) (domain.LocationView, bool) {
	for _, l := range s.Locations.Items {
		if l.ID == id {
			return l, true
		}
	}
	return domain.LocationView{}, false
}

// User returns the mirrored account with id.
func (s State) User(id string) (domain.User, bool) {
	for _, u := range s.Users.Items {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// Store owns the current State and notifies subscribers of every change.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to receive every new snapshot and returns a function
// that removes it. fn runs on the orchestrator goroutine and must not block.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) set(st State) {
	s.mu.Lock()
	s.state = st
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
