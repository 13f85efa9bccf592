package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lotwise/lotwise/internal/ingest"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest <feed.json>",
	Short: "Ingest a scraped listing feed",
	Long: `Ingest a scraped listing feed: store the raw records for audit,
validate, deduplicate, and upsert the canonical listings.

The feed is either a bare JSON array of listings or an object of the
form {"source": "...", "listings": [...]}. Use "-" to read stdin.

Example:
  lotwise ingest autotrader.json
  lotwise ingest --source=cargurus feed.json
  scraper | lotwise ingest -`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var reader io.Reader
		if args[0] == "-" {
			reader = os.Stdin
		} else {
			f, err := os.Open(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			reader = f
		}

		listings, feedSource, err := ingest.ParseFeed(reader)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		source := ingestSource
		if source == "" {
			source = feedSource
		}
		if source == "" {
			source = "unknown"
		}

		ctx := context.Background()
		cfg := loadConfig()
		store := openStore(ctx, cfg)
		defer store.Close()

		ingestor := ingest.New(store, newEngine(cfg))
		result, err := ingestor.Run(ctx, listings, source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("\n%s Ingested %s feed in %s\n\n", green("✓"), source, result.Elapsed.Round(time.Millisecond))
		fmt.Printf("  Scraped:    %d\n", result.Scraped)
		if result.Rejected > 0 {
			fmt.Printf("  Rejected:   %s\n", yellow(fmt.Sprint(result.Rejected)))
		}
		fmt.Printf("  Valid:      %d\n", result.Valid)
		fmt.Printf("  Canonical:  %d (%d duplicates merged)\n", result.Canonical, result.Duplicates)
		fmt.Printf("  Stored:     %d\n", result.Stored)
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "Feed source name (overrides the feed's own)")
}
