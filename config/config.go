// Package config loads bloomfeed configuration from defaults, an
// optional YAML file, and BLOOMFEED_-prefixed environment variables, in
// that order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/bloomscroll/bloomfeed/card"
)

// DefaultConfigPaths lists where config files are searched, first hit
// wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bloomfeed/config.yaml",
}

// EnvPrefix is the prefix for environment overrides, e.g.
// BLOOMFEED_SERVER_ADDR.
const EnvPrefix = "BLOOMFEED_"

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Vector    VectorConfig    `koanf:"vector"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Curation  CurationConfig  `koanf:"curation"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr        string        `koanf:"addr" validate:"required"`
	CORSOrigins []string      `koanf:"cors_origins"`
	Timeout     time.Duration `koanf:"timeout"`
}

// DatabaseConfig configures quota/read-state persistence.
type DatabaseConfig struct {
	// DSN: empty for SQLite at data/bloomfeed.db, "memory", a SQLite
	// path, or a postgres:// URL.
	DSN string `koanf:"dsn"`
}

// VectorConfig configures card/embedding storage.
type VectorConfig struct {
	// DSN: empty for in-memory, or a postgres:// URL (pgvector).
	DSN       string `koanf:"dsn"`
	Dimension int    `koanf:"dimension" validate:"gt=0"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider: openai, ollama, or hash.
	Provider string `koanf:"provider" validate:"oneof=openai ollama hash"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
	Model    string `koanf:"model"`
	Timeout  int    `koanf:"timeout"`
}

// CurationConfig holds the engine's tuning knobs.
type CurationConfig struct {
	MinDistance         float64  `koanf:"min_distance"`
	MaxDistance         float64  `koanf:"max_distance"`
	QualityFloor        float64  `koanf:"quality_floor" validate:"gte=0,lte=100"`
	DailyLimit          int      `koanf:"daily_limit" validate:"gte=1"`
	MaxPageSize         int      `koanf:"max_page_size" validate:"gte=1"`
	CandidateMultiplier int      `koanf:"candidate_multiplier" validate:"gte=1"`
	SourcePriority      []string `koanf:"source_priority"`

	// Timezone names the IANA zone used for the daily reset boundary.
	Timezone string `koanf:"timezone"`

	// QuotaFailMode: "open" (assume zero consumption on quota-storage
	// failure) or "closed" (assume exhausted).
	QuotaFailMode string `koanf:"quota_fail_mode" validate:"oneof=open closed"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
			Timeout:     30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "",
		},
		Vector: VectorConfig{
			DSN:       "",
			Dimension: 384,
		},
		Embedding: EmbeddingConfig{
			Provider: "hash",
			Model:    "",
			Timeout:  60,
		},
		Curation: CurationConfig{
			MinDistance:         0.3,
			MaxDistance:         0.8,
			QualityFloor:        70,
			DailyLimit:          20,
			MaxPageSize:         50,
			CandidateMultiplier: 3,
			SourcePriority:      sourceStrings(card.DefaultSourcePriority),
			Timezone:            "UTC",
			QuotaFailMode:       "open",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file (the
// given path, or the first DefaultConfigPaths hit when empty), and
// environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		for _, p := range DefaultConfigPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.Replace(strings.TrimPrefix(s, EnvPrefix), "_", ".", 1))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks tag constraints plus the cross-field invariants the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	cur := c.Curation
	if cur.MinDistance < 0 || cur.MaxDistance > 2 || cur.MinDistance >= cur.MaxDistance {
		return fmt.Errorf("serendipity zone [%g, %g] must satisfy 0 <= min < max <= 2",
			cur.MinDistance, cur.MaxDistance)
	}

	if _, err := time.LoadLocation(cur.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cur.Timezone, err)
	}

	for _, src := range cur.SourcePriority {
		if !knownSource(src) {
			return fmt.Errorf("unknown source type %q in source_priority", src)
		}
	}

	return nil
}

// Location returns the configured daily-reset timezone. Call after
// Validate; an unparseable zone falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Curation.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourcePriority returns the configured interleave order as typed
// source values.
func (c *Config) SourcePriority() []card.SourceType {
	out := make([]card.SourceType, 0, len(c.Curation.SourcePriority))
	for _, s := range c.Curation.SourcePriority {
		out = append(out, card.SourceType(s))
	}
	return out
}

func knownSource(s string) bool {
	for _, src := range card.DefaultSourcePriority {
		if string(src) == s {
			return true
		}
	}
	return false
}

func sourceStrings(sources []card.SourceType) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}
