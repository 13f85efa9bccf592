package lifecycle

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls the retraining trigger and keep/reject policy.
type Config struct {
	// MinTrainingSamples vetoes retraining below this row count.
	MinTrainingSamples int

	// PerformanceThreshold is the max tolerated degradation ratio
	// across tracked metrics before the trigger flags the model.
	PerformanceThreshold float64

	// RetrainingInterval is the model age that triggers retraining.
	RetrainingInterval time.Duration

	// DataFreshness is how old the newest ingested listing may be
	// before the training data counts as stale.
	DataFreshness time.Duration

	// MAETolerance is the allowed MAE regression ratio before a new
	// model is rejected in favor of the incumbent.
	MAETolerance float64

	// BackupOnRetrain records a rollback point before training.
	BackupOnRetrain bool
}

// DefaultConfig returns the stock retraining policy.
func DefaultConfig() Config {
	return Config{
		MinTrainingSamples:   1000,
		PerformanceThreshold: 0.10,
		RetrainingInterval:   7 * 24 * time.Hour,
		DataFreshness:        30 * 24 * time.Hour,
		MAETolerance:         0.05,
		BackupOnRetrain:      true,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.MinTrainingSamples < 1 {
		return fmt.Errorf("min training samples must be at least 1, got %d", c.MinTrainingSamples)
	}
	if c.PerformanceThreshold <= 0 {
		return fmt.Errorf("performance threshold must be positive, got %v", c.PerformanceThreshold)
	}
	if c.RetrainingInterval <= 0 {
		return fmt.Errorf("retraining interval must be positive, got %v", c.RetrainingInterval)
	}
	if c.DataFreshness <= 0 {
		return fmt.Errorf("data freshness window must be positive, got %v", c.DataFreshness)
	}
	if c.MAETolerance < 0 {
		return fmt.Errorf("mae tolerance cannot be negative, got %v", c.MAETolerance)
	}
	return nil
}

// ApplyEnv returns a copy of the config with environment overrides
// applied. Unparseable values are ignored.
//
// Environment variables:
//   - LOTWISE_MIN_TRAINING_SAMPLES
//   - LOTWISE_PERFORMANCE_THRESHOLD
//   - LOTWISE_RETRAINING_INTERVAL_DAYS
//   - LOTWISE_DATA_FRESHNESS_DAYS
//   - LOTWISE_MAE_TOLERANCE
//   - LOTWISE_BACKUP_ON_RETRAIN
func (c Config) ApplyEnv() Config {
	cfg := c
	if v, ok := parseEnvInt("LOTWISE_MIN_TRAINING_SAMPLES"); ok {
		cfg.MinTrainingSamples = v
	}
	if v, ok := parseEnvFloat("LOTWISE_PERFORMANCE_THRESHOLD"); ok {
		cfg.PerformanceThreshold = v
	}
	if v, ok := parseEnvInt("LOTWISE_RETRAINING_INTERVAL_DAYS"); ok {
		cfg.RetrainingInterval = time.Duration(v) * 24 * time.Hour
	}
	if v, ok := parseEnvInt("LOTWISE_DATA_FRESHNESS_DAYS"); ok {
		cfg.DataFreshness = time.Duration(v) * 24 * time.Hour
	}
	if v, ok := parseEnvFloat("LOTWISE_MAE_TOLERANCE"); ok {
		cfg.MAETolerance = v
	}
	if raw := os.Getenv("LOTWISE_BACKUP_ON_RETRAIN"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.BackupOnRetrain = v
		}
	}
	return cfg
}

func parseEnvInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseEnvFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
