package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusHistory int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show model and data store status",
	Long: `Show the incumbent model version and age, the retraining history,
and data store statistics.

Example:
  lotwise status
  lotwise status --history=25`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		store := openStore(ctx, cfg)
		defer store.Close()
		artifacts := openArtifacts(cfg)

		bold := color.New(color.Bold).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", bold("Model"))
		if artifacts.Exists() {
			version, err := artifacts.CurrentVersion()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("  Version: %s\n", cyan(version))
			if modTime, err := artifacts.ModTime(); err == nil {
				age := int(time.Since(modTime).Hours() / 24)
				fmt.Printf("  Age:     %d days (trained %s)\n", age, modTime.Format("2006-01-02 15:04"))
			}
		} else {
			fmt.Printf("  %s\n", gray("No model trained yet. Run: lotwise retrain"))
		}

		history, err := store.RetrainingHistory(ctx, statusHistory)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s\n\n", bold("Training history"))
		if len(history) == 0 {
			fmt.Printf("  %s\n", gray("No training runs recorded."))
		}
		for _, record := range history {
			line := fmt.Sprintf("  %s  %s", record.CreatedAt.Format("2006-01-02 15:04"), cyan(record.ModelVersion))
			if record.MAE != nil {
				line += fmt.Sprintf("  mae %.0f", *record.MAE)
			}
			if record.R2 != nil {
				line += fmt.Sprintf("  r2 %.3f", *record.R2)
			}
			line += fmt.Sprintf("  %s", gray(fmt.Sprintf("(%d samples)", record.TrainingSamples)))
			fmt.Println(line)
		}

		stats, err := store.GetStatistics(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s\n\n", bold("Data store"))
		fmt.Printf("  Raw listings:     %d\n", stats.RawListings)
		fmt.Printf("  Vehicle listings: %d\n", stats.VehicleListings)
		fmt.Printf("  Trainable rows:   %d\n", stats.TrainableRows)
		fmt.Printf("  Training runs:    %d\n", stats.TrainingRuns)
		fmt.Printf("  Scrape cycles:    %d\n", stats.ScrapeLogs)
		if stats.LatestScrape != nil {
			fmt.Printf("  Latest scrape:    %s\n", stats.LatestScrape.Format("2006-01-02 15:04"))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusHistory, "history", 10, "Number of training runs to show")
}
