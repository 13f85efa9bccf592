// Package config loads the application configuration from lotwise.yaml
// and converts it to the typed configs the engines consume.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lotwise/lotwise/internal/dedup"
	"github.com/lotwise/lotwise/internal/lifecycle"
)

// DefaultPath is where the CLI looks for the config file.
const DefaultPath = "lotwise.yaml"

// Config is the YAML application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Dedup      DedupConfig      `yaml:"deduplication"`
	Retraining RetrainingConfig `yaml:"retraining"`
	Paths      PathsConfig      `yaml:"paths"`
}

// DatabaseConfig selects and configures the record store backend.
type DatabaseConfig struct {
	// Driver: "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	// Path is the sqlite database file.
	Path string `yaml:"path,omitempty"`

	// Postgres connection settings.
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Name     string `yaml:"name,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// DedupConfig mirrors the deduplication engine's tunables.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	PriceTolerance      float64 `yaml:"price_tolerance"`
	MileageTolerance    float64 `yaml:"mileage_tolerance"`
	MaxParallel         int     `yaml:"max_parallel"`
}

// RetrainingConfig mirrors the lifecycle policy. Intervals are duration
// strings with day/week support, e.g. "7d", "2w", "168h".
type RetrainingConfig struct {
	MinTrainingSamples   int     `yaml:"min_training_samples"`
	PerformanceThreshold float64 `yaml:"performance_threshold"`
	Interval             string  `yaml:"interval"`
	DataFreshness        string  `yaml:"data_freshness"`
	MAETolerance         float64 `yaml:"mae_tolerance"`
	BackupOnRetrain      bool    `yaml:"backup_on_retrain"`
}

// PathsConfig locates the on-disk artifact store.
type PathsConfig struct {
	ModelDir string `yaml:"model_dir"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/lotwise.db",
		},
		Dedup: DedupConfig{
			SimilarityThreshold: 0.70,
			PriceTolerance:      0.10,
			MileageTolerance:    0.10,
			MaxParallel:         4,
		},
		Retraining: RetrainingConfig{
			MinTrainingSamples:   1000,
			PerformanceThreshold: 0.10,
			Interval:             "7d",
			DataFreshness:        "30d",
			MAETolerance:         0.05,
			BackupOnRetrain:      true,
		},
		Paths: PathsConfig{
			ModelDir: "models",
		},
	}
}

// Load reads a YAML config file. Fields the file omits keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads the config file if it exists, otherwise returns
// the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// DedupEngineConfig converts to the deduplication engine's config.
func (c *Config) DedupEngineConfig() dedup.Config {
	return dedup.Config{
		SimilarityThreshold: c.Dedup.SimilarityThreshold,
		PriceTolerance:      c.Dedup.PriceTolerance,
		MileageTolerance:    c.Dedup.MileageTolerance,
		MaxParallel:         c.Dedup.MaxParallel,
	}
}

// LifecycleConfig converts to the lifecycle policy config.
func (c *Config) LifecycleConfig() (lifecycle.Config, error) {
	cfg := lifecycle.Config{
		MinTrainingSamples:   c.Retraining.MinTrainingSamples,
		PerformanceThreshold: c.Retraining.PerformanceThreshold,
		MAETolerance:         c.Retraining.MAETolerance,
		BackupOnRetrain:      c.Retraining.BackupOnRetrain,
	}

	interval, err := parseDuration(c.Retraining.Interval)
	if err != nil {
		return cfg, fmt.Errorf("invalid retraining interval %q: %w", c.Retraining.Interval, err)
	}
	cfg.RetrainingInterval = interval

	freshness, err := parseDuration(c.Retraining.DataFreshness)
	if err != nil {
		return cfg, fmt.Errorf("invalid data freshness %q: %w", c.Retraining.DataFreshness, err)
	}
	cfg.DataFreshness = freshness

	return cfg, cfg.Validate()
}

// parseDuration extends time.ParseDuration to support days and weeks.
func parseDuration(s string) (time.Duration, error) {
	// Handle days (e.g., "7d")
	var days int
	if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
		return time.Duration(days) * 24 * time.Hour, nil
	}

	// Handle weeks (e.g., "2w")
	var weeks int
	if _, err := fmt.Sscanf(s, "%dw", &weeks); err == nil {
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
