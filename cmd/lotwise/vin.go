package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lotwise/lotwise/internal/dedup"
)

var vinCmd = &cobra.Command{
	Use:   "vin <VIN>...",
	Short: "Validate and decode vehicle identification numbers",
	Long: `Validate one or more VINs and decode their country, manufacturer,
and model-year codes. A malformed VIN is reported, not fatal; the exit
code is non-zero only if every given VIN is invalid.

Example:
  lotwise vin 1HGCM82633A004352
  lotwise vin 1HGCM82633A004352 5YJ3E1EA7KF000316`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		anyValid := false
		for _, raw := range args {
			info, err := dedup.ValidateVIN(raw)
			if err != nil {
				var invalid *dedup.InvalidVINError
				if errors.As(err, &invalid) {
					fmt.Printf("%s %s  %s\n", red("✗"), invalid.VIN, gray(invalid.Reason))
					continue
				}
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			anyValid = true

			fmt.Printf("%s %s\n", green("✓"), info.VIN)
			fmt.Printf("    Country code:      %s\n", info.CountryCode)
			fmt.Printf("    Manufacturer code: %s\n", info.ManufacturerCode)
			if info.Year != nil {
				fmt.Printf("    Model year:        %d (code %s)\n", *info.Year, info.YearCode)
			} else {
				fmt.Printf("    Model year:        %s\n", gray(fmt.Sprintf("unknown (code %s)", info.YearCode)))
			}
		}

		if !anyValid {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(vinCmd)
}
