package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Dedup.SimilarityThreshold != 0.70 {
		t.Errorf("similarity threshold = %v, want 0.70", cfg.Dedup.SimilarityThreshold)
	}

	lc, err := cfg.LifecycleConfig()
	if err != nil {
		t.Fatalf("LifecycleConfig: %v", err)
	}
	if lc.RetrainingInterval != 7*24*time.Hour {
		t.Errorf("interval = %v, want 168h", lc.RetrainingInterval)
	}
	if lc.DataFreshness != 30*24*time.Hour {
		t.Errorf("freshness = %v, want 720h", lc.DataFreshness)
	}
	if !lc.BackupOnRetrain {
		t.Error("backup should default on")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotwise.yaml")
	body := `
database:
  driver: postgres
  host: db.internal
  port: 5432
  name: lotwise
retraining:
  interval: 2w
  min_training_samples: 500
  performance_threshold: 0.1
  mae_tolerance: 0.05
  backup_on_retrain: true
  data_freshness: 30d
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Host != "db.internal" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	// Untouched section keeps defaults.
	if cfg.Dedup.SimilarityThreshold != 0.70 {
		t.Errorf("similarity threshold = %v, want default", cfg.Dedup.SimilarityThreshold)
	}

	lc, err := cfg.LifecycleConfig()
	if err != nil {
		t.Fatalf("LifecycleConfig: %v", err)
	}
	if lc.RetrainingInterval != 14*24*time.Hour {
		t.Errorf("interval = %v, want 2 weeks", lc.RetrainingInterval)
	}
	if lc.MinTrainingSamples != 500 {
		t.Errorf("min samples = %d, want 500", lc.MinTrainingSamples)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Dedup.SimilarityThreshold != 0.70 {
		t.Error("expected defaults for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotwise.yaml")
	cfg := Default()
	cfg.Paths.ModelDir = "custom/models"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Paths.ModelDir != "custom/models" {
		t.Errorf("model dir = %q", loaded.Paths.ModelDir)
	}
}

func TestLifecycleConfigBadInterval(t *testing.T) {
	cfg := Default()
	cfg.Retraining.Interval = "soon"
	if _, err := cfg.LifecycleConfig(); err == nil {
		t.Fatal("expected error for unparseable interval")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"36h", 36 * time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if err != nil {
			t.Errorf("parseDuration(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseDuration("eventually"); err == nil {
		t.Error("expected error for garbage duration")
	}
}
