package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/futuricity/livability/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single coordinate",
	Long: `Score one coordinate and print the result.

Examples:
  # Score a point in central Jakarta
  livability score --lat -6.2 --lng 106.8

  # Human-readable summary instead of JSON
  livability score --lat -6.2 --lng 106.8 --format table`,
	RunE: runScoreCmd,
}

func init() {
	f := scoreCmd.Flags()
	f.Float64("lat", 0, "latitude of the point to score")
	f.Float64("lng", 0, "longitude of the point to score")
	f.String("label", "", "display label for the result")
	f.String("format", "json", "output format: json or table")
	_ = scoreCmd.MarkFlagRequired("lat")
	_ = scoreCmd.MarkFlagRequired("lng")

	rootCmd.AddCommand(scoreCmd)
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	label, _ := cmd.Flags().GetString("label")
	format, _ := cmd.Flags().GetString("format")

	runner, _, err := newRunner(cfg)
	if err != nil {
		return err
	}

	loc := model.Location{Label: label, Lat: lat, Lng: lng}
	if err := loc.Validate(); err != nil {
		return err
	}

	result, err := runner.RunOne(ctx, loc)
	if err != nil {
		return eris.Wrap(err, "score location")
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "table":
		printResultTable(result)
		return nil
	default:
		return eris.Errorf("unknown format %q", format)
	}
}

func printResultTable(r model.LocationResult) {
	fmt.Printf("Location: %s\n\n", r.Label)
	fmt.Printf("  Overall:      %6.1f\n", r.Scores.Overall)
	fmt.Printf("  Services:     %6.1f\n", r.Scores.Services)
	fmt.Printf("  Mobility:     %6.1f\n", r.Scores.Mobility)
	fmt.Printf("  Safety:       %6.1f\n", r.Scores.Safety)
	fmt.Printf("  Environment:  %6.1f\n\n", r.Scores.Environment)

	fmt.Println("Facilities by category:")
	for _, cat := range model.Categories {
		if n := r.FacilityCounts[cat]; n > 0 {
			fmt.Printf("  %-14s %d\n", cat, n)
		}
	}

	if len(r.NearbyFacilities) > 0 {
		fmt.Println("\nNearby:")
		for _, name := range r.NearbyFacilities {
			fmt.Printf("  - %s\n", name)
		}
	}
}
