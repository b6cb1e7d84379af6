/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the TransactSync API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Resolve configuration (flags, env, optional config file)
  2. Build the logger
  3. Open the store and apply the schema
  4. Create ledger, API handler and router
  5. Start server with graceful shutdown

EXAMPLES:
  # Run with file database
  ./server --database-url=./data/transactsync.db

  # Run with in-memory database
  ./server --database-url=:memory:

  # Run against PostgreSQL with the access gate enabled
  DATABASE_URL=postgres://app@db/transactsync API_KEY=s3cret ./server --host=0.0.0.0

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlstore/sqlstore.go: Database implementation
*/
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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/transactsync/transactsync/api"
	"github.com/transactsync/transactsync/config"
	"github.com/transactsync/transactsync/ledger"
	"github.com/transactsync/transactsync/logger"
	"github.com/transactsync/transactsync/store/sqlstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "transactsync",
		Short:        "Transaction ledger API for email-ingested bank alerts",
		Version:      api.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	if err := config.RegisterFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlstore.New(cfg.DatabaseURL, sqlstore.WithMaxOpenConns(cfg.DBMaxOpenConns))
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize database")
		return err
	}
	defer store.Close()
	log.Info().Str("dialect", store.Dialect()).Msg("database ready")

	if cfg.APIKey == "" {
		log.Warn().Msg("API_KEY is not set; all routes are publicly accessible")
	}

	handler := api.NewHandler(ledger.New(store), log)
	router := api.NewRouter(handler, api.RouterConfig{
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
