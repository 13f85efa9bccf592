package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AuditRetentionConfig holds configuration for pruning the audit tables
// (raw_listings and scraping_logs). Canonical listings, training metrics,
// and the model artifact history are never pruned.
type AuditRetentionConfig struct {
	// RawRetentionDays is the retention period for raw listing snapshots (in days)
	// Snapshots older than this are eligible for deletion
	// Default: 30, Range: 0-365
	// 0 = disable raw listing pruning
	RawRetentionDays int

	// RawKeep is the minimum number of raw listing snapshots to keep
	// Prevents deleting the entire ingest audit trail
	// Default: 1000, Range: 0-100000
	// 0 = delete all expired snapshots
	RawKeep int

	// ScrapeLogRetentionDays is the retention period for scrape cycle logs (in days)
	// Default: 90, Range: 0-730
	// 0 = disable scrape log pruning
	ScrapeLogRetentionDays int

	// ScrapeLogKeep is the minimum number of scrape log entries to keep per source
	// Preserves recent history for every feed even when a source goes quiet
	// Default: 10, Range: 0-1000
	ScrapeLogKeep int
}

// DefaultAuditRetentionConfig returns the default audit retention configuration
//
// These defaults are chosen to:
// - Keep 30 days of raw snapshots for re-ingestion and debugging
// - Keep 90 days of scrape logs for feed health analysis
// - Preserve a floor of recent rows so pruning never empties a table
func DefaultAuditRetentionConfig() AuditRetentionConfig {
	return AuditRetentionConfig{
		RawRetentionDays:       30,
		RawKeep:                1000,
		ScrapeLogRetentionDays: 90,
		ScrapeLogKeep:          10,
	}
}

// Validate checks if the configuration has valid values
func (c AuditRetentionConfig) Validate() error {
	if c.RawRetentionDays < 0 || c.RawRetentionDays > 365 {
		return fmt.Errorf("raw_retention_days must be between 0 and 365 (got %d)",
			c.RawRetentionDays)
	}
	if c.RawKeep < 0 || c.RawKeep > 100000 {
		return fmt.Errorf("raw_keep must be between 0 and 100000 (got %d)", c.RawKeep)
	}
	if c.ScrapeLogRetentionDays < 0 || c.ScrapeLogRetentionDays > 730 {
		return fmt.Errorf("scrape_log_retention_days must be between 0 and 730 (got %d)",
			c.ScrapeLogRetentionDays)
	}
	if c.ScrapeLogKeep < 0 || c.ScrapeLogKeep > 1000 {
		return fmt.Errorf("scrape_log_keep must be between 0 and 1000 (got %d)",
			c.ScrapeLogKeep)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c AuditRetentionConfig) String() string {
	return fmt.Sprintf(
		"AuditRetentionConfig{RawRetentionDays: %d, RawKeep: %d, ScrapeLogRetentionDays: %d, ScrapeLogKeep: %d}",
		c.RawRetentionDays, c.RawKeep, c.ScrapeLogRetentionDays, c.ScrapeLogKeep,
	)
}

// RawRetention returns the raw listing retention period as a time.Duration
func (c AuditRetentionConfig) RawRetention() time.Duration {
	return time.Duration(c.RawRetentionDays) * 24 * time.Hour
}

// ScrapeLogRetention returns the scrape log retention period as a time.Duration
func (c AuditRetentionConfig) ScrapeLogRetention() time.Duration {
	return time.Duration(c.ScrapeLogRetentionDays) * 24 * time.Hour
}

// AuditRetentionConfigFromEnv creates an AuditRetentionConfig from environment
// variables, falling back to defaults
//
// Environment variables:
//   - LOTWISE_RAW_RETENTION_DAYS: Raw listing retention in days, 0 disables (default: 30)
//   - LOTWISE_RAW_KEEP: Minimum raw listing snapshots to keep (default: 1000)
//   - LOTWISE_SCRAPE_LOG_RETENTION_DAYS: Scrape log retention in days, 0 disables (default: 90)
//   - LOTWISE_SCRAPE_LOG_KEEP: Minimum scrape log entries to keep per source (default: 10)
//
// Returns an error if any environment variable has an invalid value.
func AuditRetentionConfigFromEnv() (AuditRetentionConfig, error) {
	cfg := DefaultAuditRetentionConfig()

	if err := parseEnvInt("LOTWISE_RAW_RETENTION_DAYS", &cfg.RawRetentionDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("LOTWISE_RAW_KEEP", &cfg.RawKeep); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("LOTWISE_SCRAPE_LOG_RETENTION_DAYS", &cfg.ScrapeLogRetentionDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("LOTWISE_SCRAPE_LOG_KEEP", &cfg.ScrapeLogKeep); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid audit retention configuration from environment: %w", err)
	}

	return cfg, nil
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
