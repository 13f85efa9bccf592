package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultAuditRetentionConfig(t *testing.T) {
	cfg := DefaultAuditRetentionConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.RawRetentionDays != 30 || cfg.ScrapeLogRetentionDays != 90 {
		t.Errorf("unexpected retention defaults: %s", cfg)
	}
	if cfg.RawRetention() != 30*24*time.Hour {
		t.Errorf("RawRetention() = %v, want 720h", cfg.RawRetention())
	}
	if cfg.ScrapeLogRetention() != 90*24*time.Hour {
		t.Errorf("ScrapeLogRetention() = %v, want 2160h", cfg.ScrapeLogRetention())
	}
}

func TestAuditRetentionValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AuditRetentionConfig)
		errMsg string
	}{
		{"disabled is valid", func(c *AuditRetentionConfig) {
			c.RawRetentionDays = 0
			c.ScrapeLogRetentionDays = 0
		}, ""},
		{"negative raw retention", func(c *AuditRetentionConfig) { c.RawRetentionDays = -1 }, "raw_retention_days"},
		{"raw retention too long", func(c *AuditRetentionConfig) { c.RawRetentionDays = 400 }, "raw_retention_days"},
		{"raw keep too large", func(c *AuditRetentionConfig) { c.RawKeep = 200000 }, "raw_keep"},
		{"negative log retention", func(c *AuditRetentionConfig) { c.ScrapeLogRetentionDays = -5 }, "scrape_log_retention_days"},
		{"log keep too large", func(c *AuditRetentionConfig) { c.ScrapeLogKeep = 5000 }, "scrape_log_keep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAuditRetentionConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestAuditRetentionConfigFromEnv(t *testing.T) {
	t.Setenv("LOTWISE_RAW_RETENTION_DAYS", "7")
	t.Setenv("LOTWISE_SCRAPE_LOG_KEEP", "25")

	cfg, err := AuditRetentionConfigFromEnv()
	if err != nil {
		t.Fatalf("AuditRetentionConfigFromEnv failed: %v", err)
	}
	if cfg.RawRetentionDays != 7 {
		t.Errorf("raw_retention_days = %d, want 7", cfg.RawRetentionDays)
	}
	if cfg.ScrapeLogKeep != 25 {
		t.Errorf("scrape_log_keep = %d, want 25", cfg.ScrapeLogKeep)
	}
	if cfg.RawKeep != 1000 {
		t.Errorf("unset vars should keep defaults, raw_keep = %d", cfg.RawKeep)
	}
}

func TestAuditRetentionConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("LOTWISE_RAW_RETENTION_DAYS", "soon")
	if _, err := AuditRetentionConfigFromEnv(); err == nil {
		t.Error("expected error for malformed value")
	}

	t.Setenv("LOTWISE_RAW_RETENTION_DAYS", "9000")
	if _, err := AuditRetentionConfigFromEnv(); err == nil {
		t.Error("expected validation error for out-of-range value")
	}
}
