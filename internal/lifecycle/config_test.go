package lifecycle

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.RetrainingInterval != 7*24*time.Hour {
		t.Errorf("retraining interval = %v, want 168h", cfg.RetrainingInterval)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero samples", func(c *Config) { c.MinTrainingSamples = 0 }},
		{"zero threshold", func(c *Config) { c.PerformanceThreshold = 0 }},
		{"zero interval", func(c *Config) { c.RetrainingInterval = 0 }},
		{"zero freshness", func(c *Config) { c.DataFreshness = 0 }},
		{"negative tolerance", func(c *Config) { c.MAETolerance = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("LOTWISE_MIN_TRAINING_SAMPLES", "250")
	t.Setenv("LOTWISE_RETRAINING_INTERVAL_DAYS", "14")
	t.Setenv("LOTWISE_BACKUP_ON_RETRAIN", "false")

	base := DefaultConfig()
	base.MAETolerance = 0.02

	cfg := base.ApplyEnv()
	if cfg.MinTrainingSamples != 250 {
		t.Errorf("min training samples = %d, want 250", cfg.MinTrainingSamples)
	}
	if cfg.RetrainingInterval != 14*24*time.Hour {
		t.Errorf("retraining interval = %v, want 336h", cfg.RetrainingInterval)
	}
	if cfg.BackupOnRetrain {
		t.Error("backup_on_retrain should be overridden to false")
	}
	if cfg.MAETolerance != 0.02 {
		t.Errorf("unset vars should keep base values, mae tolerance = %f", cfg.MAETolerance)
	}
}

func TestConfigApplyEnvIgnoresUnparseable(t *testing.T) {
	t.Setenv("LOTWISE_MIN_TRAINING_SAMPLES", "many")

	cfg := DefaultConfig().ApplyEnv()
	if cfg.MinTrainingSamples != 1000 {
		t.Errorf("unparseable override should be ignored, got %d", cfg.MinTrainingSamples)
	}
}
