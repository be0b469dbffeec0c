package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Server holds the admin HTTP server settings. All fields have defaults.
type Server struct {
	Addr            string        `env:"ADMIN_ADDR,default=:8080"`
	AllowedOrigins  string        `env:"ADMIN_ALLOWED_ORIGINS"`
	RateLimitRPS    int           `env:"ADMIN_RATE_LIMIT_RPS,default=20"`
	RateLimitBurst  int           `env:"ADMIN_RATE_LIMIT_BURST,default=40"`
	ShutdownTimeout time.Duration `env:"ADMIN_SHUTDOWN_TIMEOUT,default=10s"`
	NavigationFile  string        `env:"ADMIN_NAVIGATION_CONFIG,default=config/navigation.yaml"`
}

// LoadServer decodes Server from the process environment.
func LoadServer() (*Server, error) {
	cfg := Server{
		Addr:            ":8080",
		RateLimitRPS:    20,
		RateLimitBurst:  40,
		ShutdownTimeout: 10 * time.Second,
		NavigationFile:  DefaultNavigationPath,
	}
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode server config: %w", err)
	}
	if cfg.RateLimitRPS <= 0 {
		return nil, fmt.Errorf("ADMIN_RATE_LIMIT_RPS must be positive, got %d", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst < cfg.RateLimitRPS {
		cfg.RateLimitBurst = cfg.RateLimitRPS
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins on commas, dropping blanks.
func (s *Server) Origins() []string {
	var origins []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
