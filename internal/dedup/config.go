package dedup

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds configuration for the deduplication engine
type Config struct {
	// SimilarityThreshold is the minimum combined similarity score (0.0-1.0)
	// for two listings to be considered the same vehicle. The historical
	// production value is 0.70; it has no derivation beyond observed
	// clustering quality, so treat it as tunable configuration.
	SimilarityThreshold float64

	// PriceTolerance is the relative price difference at which the price
	// sub-score reaches zero. Default: 0.10 (10% difference).
	PriceTolerance float64

	// MileageTolerance is the relative mileage difference at which the
	// mileage sub-score reaches zero. Default: 0.10.
	MileageTolerance float64

	// MaxParallel bounds the number of goroutines used to precompute
	// similarity scores during cross-batch matching. The greedy assignment
	// pass is always serial. Default: 4.
	MaxParallel int
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.70,
		PriceTolerance:      0.10,
		MileageTolerance:    0.10,
		MaxParallel:         4,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.SimilarityThreshold <= 0.0 || c.SimilarityThreshold > 1.0 {
		return fmt.Errorf("similarity_threshold must be in (0.0, 1.0] (got %.2f)",
			c.SimilarityThreshold)
	}
	if c.PriceTolerance <= 0.0 || c.PriceTolerance > 1.0 {
		return fmt.Errorf("price_tolerance must be in (0.0, 1.0] (got %.2f)", c.PriceTolerance)
	}
	if c.MileageTolerance <= 0.0 || c.MileageTolerance > 1.0 {
		return fmt.Errorf("mileage_tolerance must be in (0.0, 1.0] (got %.2f)", c.MileageTolerance)
	}
	if c.MaxParallel <= 0 {
		return fmt.Errorf("max_parallel must be positive (got %d)", c.MaxParallel)
	}
	if c.MaxParallel > 64 {
		return fmt.Errorf("max_parallel too large (got %d, max 64)", c.MaxParallel)
	}
	return nil
}

// ApplyEnv returns a copy of the config with environment overrides applied
//
// Environment variables:
//   - LOTWISE_DEDUP_SIMILARITY_THRESHOLD: Minimum combined score (0.0-1.0) to cluster (default: 0.70)
//   - LOTWISE_DEDUP_PRICE_TOLERANCE: Relative price difference for zero sub-score (default: 0.10)
//   - LOTWISE_DEDUP_MILEAGE_TOLERANCE: Relative mileage difference for zero sub-score (default: 0.10)
//   - LOTWISE_DEDUP_MAX_PARALLEL: Goroutine bound for cross-batch scoring (default: 4)
//
// Returns an error if any environment variable has an invalid value.
func (c Config) ApplyEnv() (Config, error) {
	cfg := c

	if err := parseEnvFloat("LOTWISE_DEDUP_SIMILARITY_THRESHOLD", &cfg.SimilarityThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("LOTWISE_DEDUP_PRICE_TOLERANCE", &cfg.PriceTolerance); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("LOTWISE_DEDUP_MILEAGE_TOLERANCE", &cfg.MileageTolerance); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("LOTWISE_DEDUP_MAX_PARALLEL", &cfg.MaxParallel); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
