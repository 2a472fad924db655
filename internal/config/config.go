// Package config loads application configuration from layered sources:
// built-in defaults, an optional YAML file, and MELIXA_-prefixed
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix scopes environment overrides: MELIXA_SERVER_ADDR -> server.addr.
const envPrefix = "MELIXA_"

// Config is the full application configuration tree.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Extractor ExtractorConfig `koanf:"extractor"`
	Library   LibraryConfig   `koanf:"library"`
	Reanalyze ReanalyzeConfig `koanf:"reanalyze"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the SQLite catalog store.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// ExtractorConfig configures the remote feature extraction service.
type ExtractorConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// LibraryConfig points at the local audio library.
type LibraryConfig struct {
	Path string `koanf:"path"`
}

// ReanalyzeConfig paces the bulk re-analysis pass.
type ReanalyzeConfig struct {
	BatchSize       int           `koanf:"batch_size"`
	InterBatchDelay time.Duration `koanf:"inter_batch_delay"`
	InterItemDelay  time.Duration `koanf:"inter_item_delay"`
	MaxFiles        int           `koanf:"max_files"`
	RetryAttempts   int           `koanf:"retry_attempts"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "melixa.db"},
		Extractor: ExtractorConfig{
			URL:     "http://localhost:8001",
			Timeout: 120 * time.Second,
		},
		Library: LibraryConfig{Path: "./music"},
		Reanalyze: ReanalyzeConfig{
			BatchSize:       10,
			InterBatchDelay: time.Second,
			InterItemDelay:  100 * time.Millisecond,
			RetryAttempts:   3,
			RetryBackoff:    500 * time.Millisecond,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty and the file exists), and environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config: failed to load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("config: failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform maps MELIXA_EXTRACTOR_TIMEOUT to extractor.timeout. Only the
// first underscore becomes a separator so multi-word keys survive.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate rejects configurations the application cannot start with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must not be empty")
	}
	if c.Extractor.URL == "" {
		return fmt.Errorf("config: extractor.url must not be empty")
	}
	if c.Reanalyze.BatchSize < 1 {
		return fmt.Errorf("config: reanalyze.batch_size must be at least 1")
	}
	if c.Reanalyze.RetryAttempts < 1 {
		return fmt.Errorf("config: reanalyze.retry_attempts must be at least 1")
	}
	return nil
}
