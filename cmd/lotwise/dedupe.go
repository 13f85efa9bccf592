package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lotwise/lotwise/internal/ingest"
)

var (
	dedupeStats      bool
	dedupeCrossBatch bool
	dedupeJSON       bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <feed.json>",
	Short: "Deduplicate a feed without storing anything",
	Long: `Run the deduplication engine over a feed and report what it would
merge. Nothing is written to the database.

With --cross-batch the feed is also compared against the listings
already stored, reporting likely duplicates across the boundary.

Example:
  lotwise dedupe feed.json
  lotwise dedupe --stats feed.json
  lotwise dedupe --cross-batch feed.json
  lotwise dedupe --json feed.json > merged.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		listings, _, err := ingest.ParseFeed(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg := loadConfig()
		engine := newEngine(cfg)
		canonical := engine.Deduplicate(listings)

		if dedupeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(canonical); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		merged := 0
		fmt.Printf("\n%s Deduplicated %d listings into %d canonical records\n\n",
			green("✓"), len(listings), len(canonical))
		for _, c := range canonical {
			if c.MergedFrom > 1 {
				merged += c.MergedFrom - 1
				title := fmt.Sprintf("%d %s %s", c.Year, c.Make, c.Model)
				fmt.Printf("  %s merged %d listings", cyan(title), c.MergedFrom)
				if c.VIN != "" {
					fmt.Printf("  (VIN %s)", c.VIN)
				}
				fmt.Println()
			}
		}
		if merged == 0 {
			fmt.Println("  No duplicates found.")
		}
		fmt.Println()

		if dedupeStats {
			stats := engine.Statistics(listings)
			fmt.Printf("  Total listings:    %d\n", stats.TotalListings)
			fmt.Printf("  Unique listings:   %d\n", stats.UniqueListings)
			fmt.Printf("  Duplicate groups:  %d\n", stats.DuplicateGroups)
			fmt.Printf("  VIN duplicates:    %d\n", stats.VINDuplicates)
			fmt.Printf("  Title duplicates:  %d\n", stats.TitleDuplicates)
			fmt.Printf("  Dedup rate:        %.1f%%\n", stats.DeduplicationRate)
			fmt.Println()
		}

		if dedupeCrossBatch {
			ctx := context.Background()
			store := openStore(ctx, cfg)
			defer store.Close()

			existing, err := store.GetListings(ctx, 0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			matches, err := engine.FindCrossBatchDuplicates(ctx, listings, existing)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("  Cross-batch matches against %d stored listings: %d\n", len(existing), len(matches))
			for _, m := range matches {
				fmt.Printf("    feed[%d] ~ stored[%d]  score %.3f\n", m.NewIndex, m.ExistingIndex, m.Score)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
	dedupeCmd.Flags().BoolVar(&dedupeStats, "stats", false, "Print duplicate statistics for the feed")
	dedupeCmd.Flags().BoolVar(&dedupeCrossBatch, "cross-batch", false, "Also compare the feed against stored listings")
	dedupeCmd.Flags().BoolVar(&dedupeJSON, "json", false, "Emit the canonical records as JSON")
}
