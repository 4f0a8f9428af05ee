// Package config loads service configuration from a YAML file and the
// ASSESSMAP_* environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Matching modes.
const (
	ModeEmbedding = "embedding"
	ModeKeyword   = "keyword"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Prefetch  PrefetchConfig  `mapstructure:"prefetch"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type EmbeddingConfig struct {
	BackendURL string        `mapstructure:"backend_url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	CacheSize  int           `mapstructure:"cache_size"`
}

type PrefetchConfig struct {
	BatchSize  int           `mapstructure:"batch_size"`
	QueueSize  int           `mapstructure:"queue_size"`
	BatchDelay time.Duration `mapstructure:"batch_delay"`
}

type MatchingConfig struct {
	// Mode selects the embedding-backed matcher or keyword-only matching
	// that never contacts a backend.
	Mode string `mapstructure:"mode"`
	// AbandonThreshold overrides the per-mode default when positive.
	AbandonThreshold float64 `mapstructure:"abandon_threshold"`
	// MinQuestionOverlap is the token-overlap fraction required to
	// substitute a corpus question for an unknown one.
	MinQuestionOverlap float64 `mapstructure:"min_question_overlap"`
}

// AbandonThresholdOrDefault resolves the effective threshold: 0.6 for
// embedding mode and 0.45 for keyword mode unless overridden.
func (m MatchingConfig) AbandonThresholdOrDefault() float64 {
	if m.AbandonThreshold > 0 {
		return m.AbandonThreshold
	}
	if m.Mode == ModeKeyword {
		return 0.45
	}
	return 0.6
}

type VectorConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Embedding: EmbeddingConfig{
			BackendURL: "http://localhost:11434",
			Model:      "nomic-embed-text",
			Timeout:    30 * time.Second,
			RetryCount: 3,
			RetryDelay: time.Second,
			CacheSize:  1000,
		},
		Prefetch: PrefetchConfig{
			BatchSize:  5,
			QueueSize:  4096,
			BatchDelay: 500 * time.Millisecond,
		},
		Matching: MatchingConfig{
			Mode:               ModeEmbedding,
			MinQuestionOverlap: 0.3,
		},
		Vector: VectorConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "assessmap-corpus",
		},
		Tracing: TracingConfig{SampleRate: 1.0},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Matching.Mode != ModeEmbedding && c.Matching.Mode != ModeKeyword {
		warnings = append(warnings, fmt.Sprintf("matching mode '%s' is unknown, expected '%s' or '%s'", c.Matching.Mode, ModeEmbedding, ModeKeyword))
	}
	if c.Matching.Mode == ModeEmbedding && c.Embedding.BackendURL == "" {
		warnings = append(warnings, "embedding mode is configured but backend_url is empty")
	}
	if t := c.Matching.AbandonThreshold; t < 0 || t > 1 {
		warnings = append(warnings, fmt.Sprintf("abandon_threshold %.2f is outside [0.0, 1.0]", t))
	}
	if o := c.Matching.MinQuestionOverlap; o < 0 || o > 1 {
		warnings = append(warnings, fmt.Sprintf("min_question_overlap %.2f is outside [0.0, 1.0]", o))
	}
	if c.Embedding.RetryCount < 1 {
		warnings = append(warnings, fmt.Sprintf("embedding retry_count %d is below 1", c.Embedding.RetryCount))
	}
	if c.Embedding.CacheSize < 1 {
		warnings = append(warnings, fmt.Sprintf("embedding cache_size %d is below 1", c.Embedding.CacheSize))
	}
	if c.Vector.Enabled && c.Vector.Collection == "" {
		warnings = append(warnings, "vector index is enabled but collection is empty")
	}

	return warnings
}

// Load reads configuration from an optional file and the environment.
// An empty path loads defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ASSESSMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("embedding.backend_url", defaults.Embedding.BackendURL)
	v.SetDefault("embedding.model", defaults.Embedding.Model)
	v.SetDefault("embedding.timeout", defaults.Embedding.Timeout)
	v.SetDefault("embedding.retry_count", defaults.Embedding.RetryCount)
	v.SetDefault("embedding.retry_delay", defaults.Embedding.RetryDelay)
	v.SetDefault("embedding.cache_size", defaults.Embedding.CacheSize)
	v.SetDefault("prefetch.batch_size", defaults.Prefetch.BatchSize)
	v.SetDefault("prefetch.queue_size", defaults.Prefetch.QueueSize)
	v.SetDefault("prefetch.batch_delay", defaults.Prefetch.BatchDelay)
	v.SetDefault("matching.mode", defaults.Matching.Mode)
	v.SetDefault("matching.abandon_threshold", defaults.Matching.AbandonThreshold)
	v.SetDefault("matching.min_question_overlap", defaults.Matching.MinQuestionOverlap)
	v.SetDefault("vector.enabled", defaults.Vector.Enabled)
	v.SetDefault("vector.host", defaults.Vector.Host)
	v.SetDefault("vector.port", defaults.Vector.Port)
	v.SetDefault("vector.collection", defaults.Vector.Collection)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
