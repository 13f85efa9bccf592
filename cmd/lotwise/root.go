package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lotwise/lotwise/internal/config"
	"github.com/lotwise/lotwise/internal/dedup"
	"github.com/lotwise/lotwise/internal/storage"
	"github.com/lotwise/lotwise/internal/storage/postgres"
	"github.com/lotwise/lotwise/internal/storage/sqlite"
)

var (
	flagConfig string
	flagDB     string
)

var rootCmd = &cobra.Command{
	Use:   "lotwise",
	Short: "Vehicle listing deduplication and pricing model lifecycle",
	Long: `lotwise ingests scraped vehicle listings, reconciles near-duplicate
records describing the same physical vehicle, and manages the pricing
model lifecycle: deciding when to retrain and whether a freshly trained
candidate should replace the incumbent model.

Typical flow:
  lotwise init                     # Create config, database, model store
  lotwise ingest feed.json         # Validate, deduplicate, and store a feed
  lotwise retrain --check          # See whether retraining is warranted
  lotwise retrain                  # Run the full retraining cycle
  lotwise status                   # Model version, metrics history, db stats`,
}

func main() {
	// Optional .env for local overrides; silence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides the config file)")
}

// loadConfig reads the config file and applies CLI overrides.
func loadConfig() *config.Config {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flagDB != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = flagDB
	}
	return cfg
}

// openStore opens the configured record store backend.
func openStore(ctx context.Context, cfg *config.Config) storage.Storage {
	var store storage.Storage
	var err error

	switch cfg.Database.Driver {
	case "", "sqlite":
		store, err = sqlite.New(cfg.Database.Path)
	case "postgres":
		pgcfg := postgres.DefaultConfig()
		if cfg.Database.Host != "" {
			pgcfg.Host = cfg.Database.Host
		}
		if cfg.Database.Port != 0 {
			pgcfg.Port = cfg.Database.Port
		}
		if cfg.Database.Name != "" {
			pgcfg.Database = cfg.Database.Name
		}
		if cfg.Database.User != "" {
			pgcfg.User = cfg.Database.User
		}
		if cfg.Database.SSLMode != "" {
			pgcfg.SSLMode = cfg.Database.SSLMode
		}
		pgcfg.Password = cfg.Database.Password
		if pgcfg.Password == "" {
			pgcfg.Password = os.Getenv("LOTWISE_DB_PASSWORD")
		}
		store, err = postgres.New(ctx, pgcfg)
	default:
		err = fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	return store
}

// openArtifacts opens the versioned model artifact store.
func openArtifacts(cfg *config.Config) *storage.ArtifactStore {
	artifacts, err := storage.NewArtifactStore(cfg.Paths.ModelDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open model store: %v\n", err)
		os.Exit(1)
	}
	return artifacts
}

// newEngine builds the deduplication engine from config, with
// LOTWISE_DEDUP_* environment overrides applied on top of the file.
func newEngine(cfg *config.Config) *dedup.Engine {
	dcfg, err := cfg.DedupEngineConfig().ApplyEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid deduplication config: %v\n", err)
		os.Exit(1)
	}
	engine, err := dedup.New(dcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid deduplication config: %v\n", err)
		os.Exit(1)
	}
	return engine
}
