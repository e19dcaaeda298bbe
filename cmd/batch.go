package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/futuricity/livability/internal/model"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a CSV batch of coordinates",
	Long: `Score every coordinate in a CSV file sequentially, pausing between
locations to stay polite to the Overpass API.

The input CSV has columns: label,lat,lng. A header row is detected and
skipped. Results are written as a JSON array.

Examples:
  livability batch --input locations.csv
  livability batch --input locations.csv --output results.json`,
	RunE: runBatchCmd,
}

func init() {
	f := batchCmd.Flags()
	f.String("input", "", "input CSV file (label,lat,lng)")
	f.String("output", "", "output file path (default: stdout)")
	_ = batchCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(batchCmd)
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	locations, err := readLocationsCSV(input)
	if err != nil {
		return err
	}

	runner, _, err := newRunner(cfg)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("run_id", uuid.NewString()))
	log.Info("starting batch", zap.Int("locations", len(locations)))

	batch, err := runner.Run(ctx, locations)
	if err != nil {
		return eris.Wrap(err, "run batch")
	}

	log.Info("batch complete",
		zap.Int("scored", len(batch.Results)-len(batch.Errors)),
		zap.Int("failed", len(batch.Errors)),
	)

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "create %s", output)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(batch.Results)
}

// readLocationsCSV parses a label,lat,lng CSV. A first row whose lat column
// does not parse is treated as a header and skipped.
func readLocationsCSV(path string) ([]model.Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	var locations []model.Location
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "parse %s", path)
		}

		lat, latErr := strconv.ParseFloat(record[1], 64)
		lng, lngErr := strconv.ParseFloat(record[2], 64)
		if latErr != nil || lngErr != nil {
			if row == 0 {
				continue // header
			}
			return nil, eris.Errorf("%s: row %d: invalid coordinates %q,%q", path, row+1, record[1], record[2])
		}

		locations = append(locations, model.Location{Label: record[0], Lat: lat, Lng: lng})
	}

	if len(locations) == 0 {
		return nil, eris.Errorf("%s: no locations found", path)
	}
	return locations, nil
}
