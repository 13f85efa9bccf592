package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lotwise/lotwise/internal/lifecycle"
	"github.com/lotwise/lotwise/internal/trainer"
	"github.com/lotwise/lotwise/internal/types"
)

var (
	retrainCheck bool
	retrainForce bool
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Run the model retraining cycle",
	Long: `Run the model lifecycle: evaluate the retraining triggers, train a
candidate on the current data, compare it against the incumbent, and
either promote it or roll back.

With --check only the trigger evaluation runs; nothing is trained.
With --force the trigger evaluation is skipped and training always runs.

Example:
  lotwise retrain --check
  lotwise retrain
  lotwise retrain --force`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()

		lcfg, err := cfg.LifecycleConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		lcfg = lcfg.ApplyEnv()
		if err := lcfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid retraining config: %v\n", err)
			os.Exit(1)
		}

		store := openStore(ctx, cfg)
		defer store.Close()
		artifacts := openArtifacts(cfg)

		manager := lifecycle.NewManager(lcfg, store, artifacts, trainer.NewBaselineTrainer())

		if retrainCheck {
			decision, err := manager.Check(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			printDecision(decision)
			return
		}

		result := manager.Retrain(ctx, retrainForce)
		printResult(result)
		if !result.Success {
			os.Exit(1)
		}
	},
}

func printDecision(decision *types.RetrainDecision) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	if decision.ShouldRetrain {
		fmt.Printf("\n%s Retraining is warranted\n\n", yellow("!"))
	} else {
		fmt.Printf("\n%s Retraining not needed\n\n", green("✓"))
	}
	for _, reason := range decision.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
	if len(decision.Reasons) > 0 {
		fmt.Println()
	}
	if decision.ModelAgeDays >= 0 {
		fmt.Printf("  Model age:      %d days\n", decision.ModelAgeDays)
	} else {
		fmt.Printf("  Model age:      %s\n", gray("no model"))
	}
	fmt.Printf("  Trainable rows: %d\n", decision.DataVolume)
	for metric, d := range decision.Degradation {
		fmt.Printf("  %s degradation: %.2f%%\n", metric, d*100)
	}
	fmt.Println()
}

func printResult(result *types.RetrainResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	if result.Success {
		fmt.Printf("\n%s %s\n\n", green("✓"), result.Message)
	} else {
		fmt.Printf("\n%s %s\n\n", red("✗"), result.Message)
	}
	for _, reason := range result.Reasons {
		fmt.Printf("  - %s\n", reason)
	}

	if m := result.Metrics; m != nil {
		fmt.Printf("  Version:  %s\n", m.ModelVersion)
		fmt.Printf("  Samples:  %d\n", result.TrainingSamples)
		if m.MAE != nil {
			fmt.Printf("  MAE:      %.2f\n", *m.MAE)
		}
		if m.RMSE != nil {
			fmt.Printf("  RMSE:     %.2f\n", *m.RMSE)
		}
		if m.R2 != nil {
			fmt.Printf("  R2:       %.4f\n", *m.R2)
		}
		if m.MAPE != nil {
			fmt.Printf("  MAPE:     %.2f%%\n", *m.MAPE)
		}
	}
	if c := result.Comparison; c != nil {
		fmt.Printf("  Decision: %s\n", c.Reason)
	}
	if result.BackupVersion != "" {
		note := "retained"
		if result.BackupRestored {
			note = "restored"
		}
		fmt.Printf("  Rollback: %s %s\n", result.BackupVersion, gray("("+note+")"))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(retrainCmd)
	retrainCmd.Flags().BoolVar(&retrainCheck, "check", false, "Only evaluate the retraining triggers")
	retrainCmd.Flags().BoolVar(&retrainForce, "force", false, "Retrain even if the triggers say it is not needed")
}
