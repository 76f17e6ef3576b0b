package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// sessionCookie is the cookie the server sets on login and register.
const sessionCookie = "token"

// Client talks to the explorer REST API. The session cookie set by login and
// register is kept in the client's cookie jar and sent on every request.
// A Client is safe for concurrent use.
type Client struct {
	http *resty.Client
	jar  *cookiejar.Jar
	base *url.URL
}

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LocationInput is the body of a location creation.
type LocationInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Position    domain.Position `json:"position"`
	Icon        domain.Icon     `json:"icon"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
}

// PositionUpdate changes one or both coordinates.
type PositionUpdate struct {
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// LocationUpdate carries only the fields to change.
type LocationUpdate struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Position    *PositionUpdate `json:"position,omitempty"`
	Icon        *IconUpdate     `json:"icon,omitempty"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
}

// IconUpdate changes the marker icon. Unset fields keep their value.
type IconUpdate struct {
	URL        *string           `json:"url,omitempty"`
	ScaledSize *ScaledSizeUpdate `json:"scaledSize,omitempty"`
}

// ScaledSizeUpdate changes how the icon is drawn.
type ScaledSizeUpdate struct {
	Width         *float64 `json:"width,omitempty"`
	Height        *float64 `json:"height,omitempty"`
	WidthPercent  *float64 `json:"widthPercent,omitempty"`
	HeightPercent *float64 `json:"heightPercent,omitempty"`
	UsePercentage *bool    `json:"usePercentage,omitempty"`
}

// UserInput is the body of an admin account creation.
type UserInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// UserUpdate carries only the account fields to change.
type UserUpdate struct {
	Name     *string      `json:"name,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Password *string      `json:"password,omitempty"`
	Role     *domain.Role `json:"role,omitempty"`
}

// New returns a Client for the server at baseURL. A missing scheme defaults
// to http.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}
	serverURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json")
	return &Client{http: client, jar: jar, base: serverURL}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// ClearSession forgets the session cookie locally. The jar itself is kept,
// so requests already in flight are unaffected.
func (c *Client) ClearSession() {
	c.jar.SetCookies(c.base, []*http.Cookie{{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1}})
}

// HasSession reports whether the jar holds a session cookie for the server.
func (c *Client) HasSession() bool {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == sessionCookie && ck.Value != "" {
			return true
		}
	}
	return false
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (*domain.User, error) {
	var user domain.User
	resp, err := c.request(ctx).SetBody(in).SetResult(&user).Post("/api/auth/register")
	if err != nil {
		return nil, fmt.Errorf("register request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	resp, err := c.request(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&user).
		Post("/api/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout asks the server to expire the session cookie. The local cookie is
// dropped whatever the outcome.
func (c *Client) Logout(ctx context.Context) error {
	defer c.ClearSession()
	resp, err := c.request(ctx).Post("/api/auth/logout")
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	return mapHTTPError(resp)
}

func (c *Client) Verify(ctx context.Context) (*domain.Principal, error) {
	var p domain.Principal
	resp, err := c.request(ctx).SetResult(&p).Get("/api/auth/verify")
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListLocations(ctx context.Context) ([]domain.LocationView, error) {
	var locs []domain.LocationView
	resp, err := c.request(ctx).SetResult(&locs).Get("/api/location")
	if err != nil {
		return nil, fmt.Errorf("list locations request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return locs, nil
}

func (c *Client) GetLocation(ctx context.Context, id string) (*domain.LocationView, error) {
	var loc domain.LocationView
	resp, err := c.request(ctx).SetPathParam("id", id).SetResult(&loc).Get("/api/location/{id}")
	if err != nil {
		return nil, fmt.Errorf("get location request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &loc, nil
}

// CreateLocation creates a location. idempotencyKey may be empty.
func (c *Client) CreateLocation(ctx context.Context, in LocationInput, idempotencyKey string) (*domain.LocationView, error) {
	var loc domain.LocationView
	req := c.request(ctx).SetBody(in).SetResult(&loc)
	if idempotencyKey != "" {
		req.SetHeader("Idempotency-Key", idempotencyKey)
	}
	resp, err := req.Post("/api/location")
	if err != nil {
		return nil, fmt.Errorf("create location request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (c *Client) UpdateLocation(ctx context.Context, id string, in LocationUpdate) (*domain.LocationView, error) {
	var loc domain.LocationView
	resp, err := c.request(ctx).SetPathParam("id", id).SetBody(in).SetResult(&loc).Put("/api/location/{id}")
	if err != nil {
		return nil, fmt.Errorf("update location request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (c *Client) DeleteLocation(ctx context.Context, id string) error {
	resp, err := c.request(ctx).SetPathParam("id", id).Delete("/api/location/{id}")
	if err != nil {
		return fmt.Errorf("delete location request: %w", err)
	}
	return mapHTTPError(resp)
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	resp, err := c.request(ctx).SetResult(&users).Get("/api/admin/users")
	if err != nil {
		return nil, fmt.Errorf("list users request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	var user domain.User
	resp, err := c.request(ctx).SetBody(in).SetResult(&user).Post("/api/admin/users")
	if err != nil {
		return nil, fmt.Errorf("create user request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserUpdate) (*domain.User, error) {
	var user domain.User
	resp, err := c.request(ctx).SetPathParam("id", id).SetBody(in).SetResult(&user).Put("/api/admin/users/{id}")
	if err != nil {
		return nil, fmt.Errorf("update user request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	resp, err := c.request(ctx).SetPathParam("id", id).Delete("/api/admin/users/{id}")
	if err != nil {
		return fmt.Errorf("delete user request: %w", err)
	}
	return mapHTTPError(resp)
}
