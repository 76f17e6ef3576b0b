package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/explorer-world/explorer-api/internal/api/handler"
	"github.com/explorer-world/explorer-api/internal/api/middleware"
	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

type routerAuth struct {
	ports.AuthService
	principals map[string]*domain.Principal
}

func (a *routerAuth) Resolve(_ context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrNotAuthorized
	}
	p, ok := a.principals[token]
	if !ok {
		return nil, domain.Unauthenticated("Invalid token")
	}
	return p, nil
}

type routerUsers struct {
	ports.UserService
}

func (routerUsers) List(context.Context) ([]*domain.User, error) {
	return []*domain.User{{ID: "u1", Name: "Alice", Role: domain.RoleUser}}, nil
}

type routerLocations struct {
	ports.LocationService
	owners  map[string]string
	updated int
}

func (l *routerLocations) Owner(_ context.Context, id string) (string, error) {
	owner, ok := l.owners[id]
	if !ok {
		return "", domain.ErrLocationNotFound
	}
	return owner, nil
}

func (l *routerLocations) List(context.Context, ports.ListLocationsFilter) ([]domain.LocationView, error) {
	return []domain.LocationView{}, nil
}

func (l *routerLocations) Create(_ context.Context, actor *domain.Principal, in ports.CreateLocationInput) (*ports.CreateLocationResult, error) {
	loc := domain.Location{ID: "loc-new", Title: in.Title, CreatedBy: actor.ID}
	return &ports.CreateLocationResult{Location: domain.NewLocationView(&loc, nil)}, nil
}

func (l *routerLocations) Update(_ context.Context, _ *domain.Principal, id string, _ ports.LocationPatch) (*domain.LocationView, error) {
	l.updated++
	view := domain.NewLocationView(&domain.Location{ID: id, CreatedBy: l.owners[id]}, nil)
	return &view, nil
}

func newTestRouter(locs *routerLocations) *echo.Echo {
	auth := &routerAuth{principals: map[string]*domain.Principal{
		"alice": {ID: "u1", Name: "Alice", Role: domain.RoleUser},
		"bob":   {ID: "u2", Name: "Bob", Role: domain.RoleModerator},
		"root":  {ID: "u3", Name: "Root", Role: domain.RoleAdmin},
	}}
	return NewRouter(
		Services{Auth: auth, Users: routerUsers{}, Locations: locs},
		Options{
			Logger:              zerolog.Nop(),
			Cookie:              handler.CookieOptions{},
			CORSOrigins:         []string{"http://localhost:3000"},
			LocationCreateRoles: domain.NewRoleSet(domain.RoleUser, domain.RoleAdmin),
		},
	)
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

func TestRouter_Gates(t *testing.T) {
	locs := &routerLocations{owners: map[string]string{"loc-1": "u1", "orphan": ""}}
	e := newTestRouter(locs)
	paris := `{"title":"Paris","description":"d","position":{"lat":48.85,"lng":2.35},"icon":{"url":"https://example.com/pin.png"}}`

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     string
		wantCode int
	}{
		{"list without cookie", http.MethodGet, "/api/location", "", "", http.StatusUnauthorized},
		{"list with unknown token", http.MethodGet, "/api/location", "forged", "", http.StatusUnauthorized},
		{"list authenticated", http.MethodGet, "/api/location", "alice", "", http.StatusOK},
		{"admin route as user", http.MethodGet, "/api/admin/users", "alice", "", http.StatusForbidden},
		{"admin route as admin", http.MethodGet, "/api/admin/users", "root", "", http.StatusOK},
		{"create as allowed role", http.MethodPost, "/api/location", "alice", paris, http.StatusCreated},
		{"create as disallowed role", http.MethodPost, "/api/location", "bob", paris, http.StatusForbidden},
		{"update unknown location", http.MethodPut, "/api/location/missing", "bob", `{"title":"x"}`, http.StatusNotFound},
		{"update as non-owner", http.MethodPut, "/api/location/loc-1", "bob", `{"title":"x"}`, http.StatusForbidden},
		{"update as owner", http.MethodPut, "/api/location/loc-1", "alice", `{"title":"x"}`, http.StatusOK},
		{"update as admin", http.MethodPut, "/api/location/loc-1", "root", `{"title":"x"}`, http.StatusOK},
		{"update orphan as user", http.MethodPut, "/api/location/orphan", "alice", `{"title":"x"}`, http.StatusForbidden},
		{"verify without cookie", http.MethodGet, "/api/auth/verify", "", "", http.StatusUnauthorized},
		{"verify with cookie", http.MethodGet, "/api/auth/verify", "alice", "", http.StatusOK},
		{"liveness", http.MethodGet, "/health", "", "", http.StatusOK},
		{"readiness", http.MethodGet, "/health/ready", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d (%s)", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}

	if locs.updated != 2 {
		t.Fatalf("handler must only run for allowed requests, ran %d times", locs.updated)
	}
}

func TestRouter_ErrorMessages(t *testing.T) {
	e := newTestRouter(&routerLocations{owners: map[string]string{"loc-1": "u1"}})

	if msg := messageOf(t, do(e, http.MethodGet, "/api/location", "", "")); msg != "Not authorized" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg := messageOf(t, do(e, http.MethodPut, "/api/location/loc-1", "bob", `{"title":"x"}`)); msg != "Not authorized to modify this location" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg := messageOf(t, do(e, http.MethodGet, "/api/admin/users", "alice", "")); msg != "Access denied: insufficient permissions" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRouter_CORSAllowsCredentials(t *testing.T) {
	e := newTestRouter(&routerLocations{})

	req := httptest.NewRequest(http.MethodOptions, "/api/location", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowCredentials); got != "true" {
		t.Fatalf("expected credentials to be allowed, got %q", got)
	}
}
