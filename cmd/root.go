package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "nccoast",
	Short:        "NC COAST bike and pedestrian counter service",
	Long:         "Serve pedestrian/cyclist traffic-counter data and load vendor exports into the central SQLite database.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	env := os.Getenv("NCCOAST_APP_ENV")
	if env == "" {
		env = "local"
	}
	level := logging.ParseLevel(os.Getenv("NCCOAST_APP_LOG_LEVEL"))

	logger := slog.New(logging.NewHandler(rootCmd.ErrOrStderr(), env, level))
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithAttrs(ctx, slog.String("app", "nccoast"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default configs/config.yaml)")
}
