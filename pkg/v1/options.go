package v1

import (
	"log/slog"
	"net/http"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	configPath   string
	databasePath string
	httpClient   *http.Client
	logger       *slog.Logger
}

// WithConfigPath reads configuration from a specific file instead of
// ~/.pulse/config.yaml.
func WithConfigPath(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
	}
}

// WithDatabasePath overrides the record store location.
func WithDatabasePath(path string) Option {
	return func(c *clientConfig) {
		c.databasePath = path
	}
}

// WithHTTPClient sets the transport used for collector calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
