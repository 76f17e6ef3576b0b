package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/explorer-world/explorer-api/docs"
	"github.com/explorer-world/explorer-api/internal/api/handler"
	"github.com/explorer-world/explorer-api/internal/api/middleware"
	"github.com/explorer-world/explorer-api/internal/core/domain"
	"github.com/explorer-world/explorer-api/internal/core/ports"
	"github.com/explorer-world/explorer-api/internal/infrastructure/http/handlers"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth      ports.AuthService
	Users     ports.UserService
	Locations ports.LocationService
}

// Options configures routing and the global middleware.
type Options struct {
	Logger              zerolog.Logger
	Cookie              handler.CookieOptions
	CORSOrigins         []string
	LocationCreateRoles domain.RoleSet
	// Readiness lists the dependency probes of /health/ready.
	Readiness map[string]handlers.Check
	// Metrics enables the Prometheus middleware and /metrics.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Every protected route declares its gates explicitly.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.ContextLogger(opts.Logger))
	e.Use(middleware.AccessLog())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, handler.HeaderIdempotencyKey},
	}))
	if opts.Metrics {
		e.Use(echoprometheus.NewMiddleware("explorer"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Gates ---
	authenticated := middleware.Chain(middleware.Authenticate(svc.Auth))
	adminOnly := middleware.Chain(
		middleware.Authenticate(svc.Auth),
		middleware.RequireRole(domain.NewRoleSet(domain.RoleAdmin)),
	)
	canCreate := middleware.Chain(
		middleware.Authenticate(svc.Auth),
		middleware.RequireRole(opts.LocationCreateRoles),
	)
	ownerOrAdmin := middleware.Chain(
		middleware.Authenticate(svc.Auth),
		middleware.RequireOwnership("id", svc.Locations.Owner),
	)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(svc.Auth, opts.Cookie)
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/verify", authHandler.Verify, authenticated)

	// --- Admin routes ---
	userHandler := handler.NewUserHandler(svc.Users)
	admin := e.Group("/api/admin", adminOnly)
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Delete)

	// --- Location routes ---
	locationHandler := handler.NewLocationHandler(svc.Locations)
	loc := e.Group("/api/location")
	loc.GET("", locationHandler.List, authenticated)
	loc.GET("/user/:userId", locationHandler.ListByUser, authenticated)
	loc.GET("/:id", locationHandler.Get, authenticated)
	loc.POST("", locationHandler.Create, canCreate)
	loc.PUT("/:id", locationHandler.Update, ownerOrAdmin)
	loc.DELETE("/:id", locationHandler.Delete, ownerOrAdmin)
	loc.POST("/:id/gallery", locationHandler.AddGalleryImage, ownerOrAdmin)
	loc.DELETE("/:id/gallery/:imageIndex", locationHandler.RemoveGalleryImage, ownerOrAdmin)

	// --- Health probes and docs (no auth required) ---
	probes := handlers.NewProbes(opts.Readiness)
	e.GET("/health", probes.Live)
	e.GET("/health/ready", probes.Ready)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
