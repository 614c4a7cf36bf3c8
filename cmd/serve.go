package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/httpapi"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/mockdata"
	trafficuc "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/traffic"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the counter data HTTP API",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = deps.App.Config.Server.Addr
		}
		mock, _ := cmd.Flags().GetBool("mock")

		svc := deps.Traffic
		if mock {
			logging.Info(ctx, "serving mock fixture data, database reads disabled")
			svc = trafficuc.NewService(mockdata.New(), nil)
		}

		handler := httpapi.New(svc, deps.App.Config.Server.AllowedOrigins)
		server := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server listening", slog.String("addr", addr), slog.Bool("mock", mock))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "serve http")
			}
		case <-ctx.Done():
			logging.Info(ctx, "shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return errs.Wrap(err, "shutdown http server")
			}
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "server stopped"); err != nil {
			return errs.Wrap(err, "write serve output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8000)")
	serveCmd.Flags().Bool("mock", false, "Serve the built-in Charlotte fixture data instead of the database")
}
