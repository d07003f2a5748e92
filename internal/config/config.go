// Package config loads client configuration from the environment,
// with optional .env file support for development setups.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Defaults applied when the environment does not override them.
const (
	DefaultBaseURL = "http://localhost:8000/"
	DefaultTimeout = 30 * time.Second
)

// Config carries everything the client core needs to talk to the backend.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPTimeout  time.Duration
}

// Load reads a .env file if present, then the process environment.
// Missing OAuth client credentials are a warning, not a fatal: public reads
// and already-issued tokens still work without them.
func Load(logger *zap.Logger) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not load .env file", zap.Error(err))
	}

	cfg := Config{
		BaseURL:      DefaultBaseURL,
		ClientID:     os.Getenv("CLIENT_ID"),
		ClientSecret: os.Getenv("CLIENT_SECRET"),
		HTTPTimeout:  DefaultTimeout,
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		} else {
			logger.Warn("invalid HTTP_TIMEOUT, using default", zap.String("value", v))
		}
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		logger.Warn("CLIENT_ID or CLIENT_SECRET is not set; token refresh will be limited")
	}
	return cfg
}
