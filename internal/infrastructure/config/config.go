package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend BackendConfig
	Client  ClientConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Audit   AuditConfig
}

type BackendConfig struct {
	BaseURL      string        `env:"API_BASE_URL, required"`
	Timeout      time.Duration `env:"BACKEND_TIMEOUT, default=15s"`
	PoliciesPath string        `env:"BACKEND_POLICIES_PATH, default=/api/insurance-policies"`
}

// ClientConfig covers the signed browser cookie and in-memory client states.
type ClientConfig struct {
	CookieSecret string        `env:"COOKIE_SECRET"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
	IdleTTL      time.Duration `env:"CLIENT_IDLE_TTL, default=30m"`
}

// MongoConfig enables the session audit trail. An empty URI disables it.
type MongoConfig struct {
	URI       string        `env:"MONGO_URI"`
	Database  string        `env:"MONGO_DB,        default=vehicle_portal"`
	Retention time.Duration `env:"AUDIT_RETENTION, default=720h"`
}

// RedisConfig backs the token store. An empty Addr keeps tokens in memory.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,   default=0"`
	TokenTTL time.Duration `env:"TOKEN_TTL,  default=24h"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// IsDevelopment reports whether ENV selects the development profile.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Validate checks the values envconfig cannot.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.Backend.BaseURL)
	}
	if !c.IsDevelopment() && c.Client.CookieSecret == "" {
		return errors.New("COOKIE_SECRET is required outside development")
	}
	if c.Client.IdleTTL <= 0 {
		return errors.New("CLIENT_IDLE_TTL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
