// Package file provides TOML-backed configuration loading.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

// DefaultPath returns the default config file location,
// ~/.reguard/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".reguard", "config.toml"), nil
}

// Config is the full application configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Scoring   ScoringConfig   `toml:"scoring"`
	Alerts    AlertsConfig    `toml:"alerts"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Search    SearchConfig    `toml:"search"`
	Answering AnsweringConfig `toml:"answering"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// StorageConfig selects and parameterises the persistence backend.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `toml:"backend"`

	// DataDir is the sqlite data directory. Empty uses the default.
	DataDir string `toml:"data_dir"`
}

// PipelineConfig sizes the ingestion worker pool.
type PipelineConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

// ScoringConfig parameterises the risk scorer.
type ScoringConfig struct {
	// Model is "lexicon", "generative" or "none".
	Model string `toml:"model"`

	ModelWeight  float64       `toml:"model_weight"`
	ModelTimeout time.Duration `toml:"model_timeout"`
}

// AlertsConfig parameterises the alert dispatcher.
type AlertsConfig struct {
	// Threshold is the minimum tier that alerts: "Low", "Medium" or
	// "High".
	Threshold string `toml:"threshold"`

	// Channels are the delivery channels: "sms", "email", "slack".
	Channels []string `toml:"channels"`

	Cooldown       time.Duration `toml:"cooldown"`
	MaxAttempts    int           `toml:"max_attempts"`
	InitialBackoff time.Duration `toml:"initial_backoff"`
	RatePerSecond  float64       `toml:"rate_per_second"`

	// Webhooks maps channel names to webhook URLs. Empty falls back to
	// the log notifier.
	Webhooks map[string]string `toml:"webhooks"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "hashing", "openai" or "none".
	Provider string `toml:"provider"`

	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// SearchConfig parameterises hybrid retrieval fusion.
type SearchConfig struct {
	// Fusion is "weighted" or "rrf".
	Fusion string `toml:"fusion"`

	SemanticWeight float64 `toml:"semantic_weight"`
	LexicalWeight  float64 `toml:"lexical_weight"`
}

// AnsweringConfig parameterises the answer service.
type AnsweringConfig struct {
	// Provider is "extractive" or "openai".
	Provider string `toml:"provider"`

	APIKey        string        `toml:"api_key"`
	BaseURL       string        `toml:"base_url"`
	Model         string        `toml:"model"`
	TopK          int           `toml:"top_k"`
	ContextBudget int           `toml:"context_budget"`
	CacheTTL      time.Duration `toml:"cache_ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for the metrics HTTP listener. Empty
	// disables the endpoint.
	Listen string `toml:"listen"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage:  StorageConfig{Backend: "sqlite"},
		Pipeline: PipelineConfig{Workers: 4, QueueSize: 64},
		Scoring: ScoringConfig{
			Model:        "lexicon",
			ModelWeight:  0.5,
			ModelTimeout: 10 * time.Second,
		},
		Alerts: AlertsConfig{
			Threshold:      domain.TierMedium.String(),
			Channels:       []string{"email", "slack"},
			Cooldown:       time.Hour,
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			RatePerSecond:  10,
		},
		Embedding: EmbeddingConfig{Provider: "hashing"},
		Search: SearchConfig{
			Fusion:         "weighted",
			SemanticWeight: 0.7,
			LexicalWeight:  0.3,
		},
		Answering: AnsweringConfig{
			Provider:      "extractive",
			TopK:          5,
			ContextBudget: 6000,
			CacheTTL:      5 * time.Minute,
		},
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, c.Storage.Backend)
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("%w: pipeline workers must be at least 1", domain.ErrInvalidInput)
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("%w: pipeline queue size must be at least 1", domain.ErrInvalidInput)
	}

	switch c.Scoring.Model {
	case "lexicon", "generative", "none":
	default:
		return fmt.Errorf("%w: unknown scoring model %q", domain.ErrInvalidInput, c.Scoring.Model)
	}
	if c.Scoring.ModelWeight < 0 || c.Scoring.ModelWeight > 1 {
		return fmt.Errorf("%w: model weight must be in [0,1]", domain.ErrInvalidInput)
	}

	if _, ok := domain.ParseTier(c.Alerts.Threshold); !ok {
		return fmt.Errorf("%w: unknown alert threshold %q", domain.ErrInvalidInput, c.Alerts.Threshold)
	}
	for _, channel := range c.Alerts.Channels {
		if _, err := domain.ParseChannel(channel); err != nil {
			return err
		}
	}

	switch c.Embedding.Provider {
	case "hashing", "openai", "none":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, c.Embedding.Provider)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		return fmt.Errorf("%w: openai embedding requires an API key", domain.ErrInvalidInput)
	}

	switch c.Search.Fusion {
	case "weighted", "rrf":
	default:
		return fmt.Errorf("%w: unknown fusion method %q", domain.ErrInvalidInput, c.Search.Fusion)
	}

	switch c.Answering.Provider {
	case "extractive", "openai":
	default:
		return fmt.Errorf("%w: unknown answering provider %q", domain.ErrInvalidInput, c.Answering.Provider)
	}
	if c.Answering.Provider == "openai" && c.Answering.APIKey == "" {
		return fmt.Errorf("%w: openai answering requires an API key", domain.ErrInvalidInput)
	}

	return nil
}
