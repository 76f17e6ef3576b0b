package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/explorer-world/explorer-api/internal/api/middleware"
	"github.com/explorer-world/explorer-api/internal/core/domain"
)

// principal returns the principal attached by the authentication gate. Its
// absence means the route was registered without the gate.
func principal(c echo.Context) (*domain.Principal, error) {
	p := middleware.Principal(c)
	if p == nil {
		return nil, domain.ErrNotAuthorized
	}
	return p, nil
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func setSessionCookie(c echo.Context, token string, opts CookieOptions) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(opts.TTL / time.Second),
	})
}

func clearSessionCookie(c echo.Context, opts CookieOptions) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// messageResponse is returned by endpoints without a resource body.
type messageResponse struct {
	Message string `json:"message"`
}
