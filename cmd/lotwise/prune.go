package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lotwise/lotwise/internal/config"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune old rows from the audit tables",
	Long: `Prune old rows from the raw listing and scrape log audit tables.

Canonical listings and the training metrics history are never pruned.
The retention policy comes from environment variables:
  LOTWISE_RAW_RETENTION_DAYS         raw listing retention in days (default 30, 0 disables)
  LOTWISE_RAW_KEEP                   minimum raw listings kept (default 1000)
  LOTWISE_SCRAPE_LOG_RETENTION_DAYS  scrape log retention in days (default 90, 0 disables)
  LOTWISE_SCRAPE_LOG_KEEP            minimum scrape logs kept per source (default 10)

Example:
  lotwise prune
  LOTWISE_RAW_RETENTION_DAYS=7 lotwise prune`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rcfg, err := config.AuditRetentionConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		cfg := loadConfig()
		store := openStore(ctx, cfg)
		defer store.Close()

		now := time.Now()
		rawDeleted, logsDeleted := 0, 0

		if rcfg.RawRetentionDays > 0 {
			rawDeleted, err = store.PruneRawListings(ctx, now.Add(-rcfg.RawRetention()), rcfg.RawKeep)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		if rcfg.ScrapeLogRetentionDays > 0 {
			logsDeleted, err = store.PruneScrapeLogs(ctx, now.Add(-rcfg.ScrapeLogRetention()), rcfg.ScrapeLogKeep)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Pruned audit tables\n\n", green("✓"))
		if rcfg.RawRetentionDays > 0 {
			fmt.Printf("  Raw listings: %d deleted (older than %d days)\n", rawDeleted, rcfg.RawRetentionDays)
		} else {
			fmt.Printf("  Raw listings: %s\n", gray("pruning disabled"))
		}
		if rcfg.ScrapeLogRetentionDays > 0 {
			fmt.Printf("  Scrape logs:  %d deleted (older than %d days)\n", logsDeleted, rcfg.ScrapeLogRetentionDays)
		} else {
			fmt.Printf("  Scrape logs:  %s\n", gray("pruning disabled"))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
