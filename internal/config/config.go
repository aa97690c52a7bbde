package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Deployment modes for locating the price-aggregation backend.
const (
	ModeSubdirectory   = "subdirectory"
	ModePort           = "port"
	ModeSeparateDomain = "separate_domain"
	ModeAutoDetect     = "auto_detect"
)

// Config holds all configuration for the gateway, loaded once at startup
// and passed into each component.
type Config struct {
	Port        string `env:"PORT" envDefault:"5050"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	Debug       bool   `env:"DEBUG"`

	Backend BackendConfig
	Session SessionConfig
}

// BackendConfig controls how the backend base URL is constructed and how
// outbound calls behave.
type BackendConfig struct {
	// BaseURL, when set, is used verbatim and disables probing.
	BaseURL        string        `env:"BACKEND_BASE_URL"`
	DeploymentMode string        `env:"BACKEND_DEPLOYMENT_MODE" envDefault:"auto_detect"`
	PublicHost     string        `env:"PUBLIC_HOST" envDefault:"localhost"`
	PublicScheme   string        `env:"PUBLIC_SCHEME" envDefault:"http"`
	Subdirectory   string        `env:"BACKEND_SUBDIRECTORY" envDefault:"/flask"`
	Port           int           `env:"BACKEND_PORT" envDefault:"5000"`
	APIDomain      string        `env:"BACKEND_API_DOMAIN"`
	Timeout        time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
	ProbeTTL       time.Duration `env:"PROBE_TTL" envDefault:"30s"`
	// EndpointsFile overrides the embedded endpoint table.
	EndpointsFile string `env:"BACKEND_ENDPOINTS_FILE"`
}

// SessionConfig controls session lifetimes and login throttling.
type SessionConfig struct {
	IdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"1h"`
	AbsoluteTimeout time.Duration `env:"SESSION_ABSOLUTE_TIMEOUT" envDefault:"24h"`
	// LoginRatePerMinute caps login/register attempts per client IP.
	LoginRatePerMinute float64 `env:"LOGIN_RATE" envDefault:"5"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.Backend.DeploymentMode {
	case ModeSubdirectory, ModePort, ModeSeparateDomain, ModeAutoDetect:
	default:
		return nil, fmt.Errorf("invalid BACKEND_DEPLOYMENT_MODE %q", cfg.Backend.DeploymentMode)
	}

	if cfg.Backend.DeploymentMode == ModeSeparateDomain && cfg.Backend.APIDomain == "" {
		return nil, fmt.Errorf("BACKEND_API_DOMAIN is required in separate_domain mode")
	}

	return cfg, nil
}
