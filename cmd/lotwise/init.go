package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the lotwise workspace in the current directory",
	Long: `Initialize the lotwise workspace by creating the config file, the
database, and the model artifact store.

This creates:
  - lotwise.yaml (configuration, if not already present)
  - the database (SQLite by default)
  - the model directory with its versioned artifact store

Example:
  cd ~/pricing
  lotwise init
  lotwise init --db data/custom.db`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		wroteConfig := false
		if _, err := os.Stat(flagConfig); os.IsNotExist(err) {
			if err := cfg.Save(flagConfig); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			wroteConfig = true
		}

		// Opening the store applies the schema.
		store := openStore(context.Background(), cfg)
		_ = store.Close()

		openArtifacts(cfg)

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized lotwise workspace\n\n", green("✓"))
		if wroteConfig {
			fmt.Printf("  Config:   %s\n", cyan(flagConfig))
		} else {
			fmt.Printf("  Config:   %s %s\n", cyan(flagConfig), gray("(existing)"))
		}
		if cfg.Database.Driver == "postgres" {
			fmt.Printf("  Database: %s\n", cyan(fmt.Sprintf("postgres://%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)))
		} else {
			fmt.Printf("  Database: %s\n", cyan(cfg.Database.Path))
		}
		fmt.Printf("  Models:   %s\n", cyan(cfg.Paths.ModelDir))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("lotwise ingest feed.json"))
		fmt.Printf("  %s\n", gray("lotwise retrain --check"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
