// Package serve implements the HTTP API server command.
package serve

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuzamma/surah-recognition-go/internal/api"
	"github.com/kuzamma/surah-recognition-go/internal/classifier"
	"github.com/kuzamma/surah-recognition-go/internal/conf"
	"github.com/kuzamma/surah-recognition-go/internal/datastore"
	"github.com/kuzamma/surah-recognition-go/internal/history"
	"github.com/kuzamma/surah-recognition-go/internal/logging"
	"github.com/kuzamma/surah-recognition-go/internal/observability"
	"github.com/kuzamma/surah-recognition-go/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recognition HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVarP(&settings.WebServer.Port, "port", "p", settings.WebServer.Port, "Port to listen on")
	return cmd
}

func run(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("serve")
	if settings.Main.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, "serve", slog.LevelInfo)
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()
		logger = fileLogger
	}

	store, err := openStore(settings)
	if err != nil {
		return err
	}
	defer store.Close()

	ledger, err := history.NewLedger(store)
	if err != nil {
		return err
	}

	client := classifier.New(settings)
	defer client.Close()

	metrics := observability.NewMetrics()
	sess := session.NewController(client, ledger, session.WithMetrics(metrics))
	controller := api.New(api.NewServer(), settings, sess, client, ledger, metrics)

	// Warm the availability cache so the first upload doesn't pay for the
	// probe.
	if !client.EnsureAvailable(ctx) {
		logger.Warn("Classifier service is unreachable, uploads will fall back")
	}

	errChan := make(chan error, 1)
	go func() {
		if err := controller.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Info("Shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Shutting down", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return controller.Shutdown(shutdownCtx)
}

func openStore(settings *conf.Settings) (datastore.Store, error) {
	if settings.Output.SQLite.Enabled {
		return datastore.OpenSQLite(settings.Output.SQLite.Path)
	}
	return datastore.NewMemStore(), nil
}
