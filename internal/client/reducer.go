package client

import (
	"errors"
	"net/http"

	"github.com/explorer-world/explorer-api/internal/client/api"
	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// requested marks a slice as busy and clears its previous error.
func requested(s State, sl slice) State {
	switch sl {
	case sliceAuth:
		s.Auth.Error = ""
	case sliceLocations:
		s.Locations.Error = ""
	case sliceUsers:
		s.Users.Error = ""
	}
	return s
}

// failed records err on the slice of kind. Collections are left untouched.
func failed(s State, k Kind, err error) State {
	msg := errorMessage(err)
	switch k {
	case KindVerifySession:
		s.Auth = AuthState{IsInitialized: true}
		// An expired or missing session is the normal logged-out case.
		if !api.IsStatus(err, http.StatusUnauthorized) {
			s.Auth.Error = msg
		}
	case KindLogin, KindRegister:
		// Only the session check decides initialization.
		s.Auth = AuthState{IsInitialized: s.Auth.IsInitialized, Error: msg}
	case KindLogout:
		s = loggedOut(s)
		s.Auth.Error = msg
	default:
		switch kinds[k].slice {
		case sliceLocations:
			s.Locations.Error = msg
		case sliceUsers:
			s.Users.Error = msg
		}
	}
	return s
}

func withLoading(s State, sl slice, loading bool) State {
	switch sl {
	case sliceAuth:
		s.Auth.Loading = loading
	case sliceLocations:
		s.Locations.Loading = loading
	case sliceUsers:
		s.Users.Loading = loading
	}
	return s
}

// errorMessage extracts the human readable part of err.
func errorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func authenticated(s State, p *domain.Principal) State {
	s.Auth = AuthState{
		User:            p,
		IsAuthenticated: true,
		IsInitialized:   true,
	}
	return s
}

func loggedOut(s State) State {
	s.Auth = AuthState{IsInitialized: true}
	return s
}

func upsertLocation(s State, loc domain.LocationView) State {
	if _, ok := s.Location(loc.ID); ok {
		return replaceLocation(s, loc)
	}
	items := make([]domain.LocationView, 0, len(s.Locations.Items)+1)
	items = append(items, s.Locations.Items...)
	s.Locations.Items = append(items, loc)
	return s
}

func replaceLocation(s State, loc domain.LocationView) State {
	items := make([]domain.LocationView, len(s.Locations.Items))
	for i, l := range s.Locations.Items {
		if l.ID == loc.ID {
			l = loc
		}
		items[i] = l
	}
	s.Locations.Items = items
	if s.Locations.Current != nil && s.Locations.Current.ID == loc.ID {
		current := loc
		s.Locations.Current = &current
	}
	return s
}

func removeLocation(s State, id string) State {
	items := make([]domain.LocationView, 0, len(s.Locations.Items))
	for _, l := range s.Locations.Items {
		if l.ID != id {
			items = append(items, l)
		}
	}
	s.Locations.Items = items
	if s.Locations.Current != nil && s.Locations.Current.ID == id {
		s.Locations.Current = nil
	}
	return s
}

func upsertUser(s State, u domain.User) State {
	if _, ok := s.User(u.ID); ok {
		return replaceUser(s, u)
	}
	items := make([]domain.User, 0, len(s.Users.Items)+1)
	items = append(items, s.Users.Items...)
	s.Users.Items = append(items, u)
	return s
}

func replaceUser(s State, u domain.User) State {
	items := make([]domain.User, len(s.Users.Items))
	for i, existing := range s.Users.Items {
		if existing.ID == u.ID {
			existing = u
		}
		items[i] = existing
	}
	s.Users.Items = items
	return s
}

func removeUser(s State, id string) State {
	items := make([]domain.User, 0, len(s.Users.Items))
	for _, u := range s.Users.Items {
		if u.ID != id {
			items = append(items, u)
		}
	}
	s.Users.Items = items
	return s
}
