package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	domain "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/ingest"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate and load one vendor export file",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		file, _ := cmd.Flags().GetString("file")
		entityName, _ := cmd.Flags().GetString("entity")
		appendRows, _ := cmd.Flags().GetBool("append")

		entity, err := domain.ParseEntity(entityName)
		if err != nil {
			return err
		}

		mode := ingest.ModeReplace
		if appendRows {
			mode = ingest.ModeAppend
		}

		res, err := deps.Loader.LoadFile(ctx, file, entity, mode)
		if err != nil {
			return errs.Wrapf(err, "load %s", file)
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "loaded %d row(s) into %s (%d chunk(s), batch %s)\n",
			res.Rows, res.Entity.Table(), res.Chunks, res.BatchID); err != nil {
			return errs.Wrap(err, "write load output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().String("file", "", "Vendor export file (.csv, .xlsx or .xls)")
	loadCmd.Flags().String("entity", "", "Target entity: counters, datastreams or counts")
	loadCmd.Flags().Bool("append", false, "Append to the table instead of replacing it")
	_ = loadCmd.MarkFlagRequired("file")
	_ = loadCmd.MarkFlagRequired("entity")
}
