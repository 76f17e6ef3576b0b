package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/explorer-world/explorer-api/internal/core/domain"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET"`

	Auth      AuthConfig
	HTTP      HTTPConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Media     MediaConfig
	Bootstrap BootstrapConfig
}

type AuthConfig struct {
	TokenTTL     time.Duration `env:"TOKEN_TTL,     default=24h"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
	BcryptCost   int           `env:"BCRYPT_COST,   default=10"`
	// LocationCreateRoles is a comma or semicolon separated role list,
	// e.g. "admin".
	LocationCreateRoles string `env:"LOCATION_CREATE_ROLES, default=user;moderator;admin"`
}

type HTTPConfig struct {
	// CORSOrigins is a semicolon or comma separated list of allowed origins.
	CORSOrigins string `env:"CORS_ORIGINS, default=http://localhost:3000"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=explorer"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	// Addr empty disables idempotent location creation.
	Addr           string        `env:"REDIS_ADDR"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type MediaConfig struct {
	// Endpoint empty disables gallery uploads.
	Endpoint       string `env:"MINIO_ENDPOINT"`
	AccessKey      string `env:"MINIO_ACCESS_KEY"`
	SecretKey      string `env:"MINIO_SECRET_KEY"`
	Bucket         string `env:"MINIO_BUCKET,     default=explorer-media"`
	UseSSL         bool   `env:"MINIO_USE_SSL,    default=false"`
	PublicURL      string `env:"MEDIA_PUBLIC_URL"`
	MaxBytes       int64  `env:"MEDIA_MAX_BYTES,  default=5242880"`
	CleanupWorkers int    `env:"CLEANUP_WORKERS,  default=4"`
}

type BootstrapConfig struct {
	AdminName     string `env:"ADMIN_NAME, default=Administrator"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	_ = godotenv.Load()
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith processes configuration from the given lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.LocationCreateRoles()) == 0 {
		return errors.New("LOCATION_CREATE_ROLES names no known role")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LocationCreateRoles returns the roles allowed to create locations.
func (c *Config) LocationCreateRoles() domain.RoleSet {
	return domain.ParseRoleSet(normalizeList(c.Auth.LocationCreateRoles))
}

// CORSOrigins returns the allowed CORS origins.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(normalizeList(c.HTTP.CORSOrigins), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func normalizeList(s string) string {
	return strings.ReplaceAll(s, ";", ",")
}
