package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	domain "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/ingest"
)

// seedFiles is the initial-database build order: parents before children.
var seedFiles = []struct {
	name   string
	entity domain.Entity
}{
	{"counters.xlsx", domain.EntityCounters},
	{"datastreams.xlsx", domain.EntityDatastreams},
	{"counts.csv", domain.EntityCounts},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Build the initial database from the standard vendor export set",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		dir, _ := cmd.Flags().GetString("dir")

		for _, sf := range seedFiles {
			path := filepath.Join(dir, sf.name)
			res, err := deps.Loader.LoadFile(ctx, path, sf.entity, ingest.ModeReplace)
			if err != nil {
				return errs.Wrapf(err, "seed %s", path)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "loaded %d row(s) into %s\n", res.Rows, sf.entity.Table()); err != nil {
				return errs.Wrap(err, "write seed output")
			}
		}

		// Verify what landed, table by table.
		for _, entity := range []domain.Entity{domain.EntityCounters, domain.EntityDatastreams, domain.EntityCounts} {
			n, err := deps.Repo.CountRows(ctx, entity)
			if err != nil {
				return errs.Wrapf(err, "verify %s", entity.Table())
			}
			logging.Info(ctx, "table verified", slog.String("table", entity.Table()), slog.Int64("rows", n))
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d row(s)\n", entity.Table(), n); err != nil {
				return errs.Wrap(err, "write seed output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("dir", ".", "Directory holding counters.xlsx, datastreams.xlsx and counts.csv")
}
