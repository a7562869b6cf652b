package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RestyAPI/internal/app"
	"RestyAPI/internal/config"
	"RestyAPI/internal/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var debug bool

var rootCmd = &cobra.Command{
	Use:   "restyapi",
	Short: "REST server for declaratively registered resources",
	Long: `restyapi mounts every resource described in DESCRIPTORS_DIR under BASE_PATH.
Table resources are read-only views over PostgreSQL or SQLite; memory
resources keep their items in process.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
	// no subcommand means serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

// setup loads and validates the config and opens log/app.log.
func setup() (*config.Config, error) {
	if err := logger.Init("."); err != nil {
		return nil, fmt.Errorf("log init failed: %w", err)
	}
	logger.SetDebug(debug)
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config_invalid", map[string]any{"error": err.Error()})
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("app_init_failed", map[string]any{"error": err.Error()})
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_start", map[string]any{"port": cfg.Port, "base_path": cfg.BasePath})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", map[string]any{"error": err.Error()})
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server_shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
