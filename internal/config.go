package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEditorID       = "pulse"
	DefaultDebounceMS     = 2000
	DefaultMaxIdleMS      = 300000
	DefaultSyncIntervalMS = 60000
)

type CollectorConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token,omitempty"`
}

type Config struct {
	Collector    CollectorConfig `yaml:"collector"`
	EditorID     string          `yaml:"editor_id"`
	DatabasePath string          `yaml:"database_path,omitempty"`
	Inspector    string          `yaml:"inspector,omitempty"` // gogit (default) or git
	Projects     []string        `yaml:"projects,omitempty"`

	DebounceMS     int64 `yaml:"debounce_ms,omitempty"`
	MaxIdleMS      int64 `yaml:"max_idle_ms,omitempty"`
	SyncIntervalMS int64 `yaml:"sync_interval_ms,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			URL: "http://127.0.0.1:8090",
		},
		EditorID:       DefaultEditorID,
		Inspector:      "gogit",
		DebounceMS:     DefaultDebounceMS,
		MaxIdleMS:      DefaultMaxIdleMS,
		SyncIntervalMS: DefaultSyncIntervalMS,
	}
}

// DefaultDir is where pulse keeps its config and database, ~/.pulse.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pulse"
	}
	return filepath.Join(home, ".pulse")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.EditorID == "" {
		cfg.EditorID = DefaultEditorID
	}
	if cfg.DebounceMS <= 0 {
		cfg.DebounceMS = DefaultDebounceMS
	}
	if cfg.MaxIdleMS <= 0 {
		cfg.MaxIdleMS = DefaultMaxIdleMS
	}
	if cfg.SyncIntervalMS <= 0 {
		cfg.SyncIntervalMS = DefaultSyncIntervalMS
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// DBPath returns the configured database path, defaulting to
// ~/.pulse/pulse.db.
func (c *Config) DBPath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(DefaultDir(), "pulse.db")
}
