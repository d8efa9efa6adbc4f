package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/app/server"
	"github.com/mytheresa/product-catalog/config"
	"github.com/mytheresa/product-catalog/database"
	"github.com/mytheresa/product-catalog/logger"
)

var (
	migrateOnly = flag.Bool("migrate-only", false, "apply migrations (and seed when DB_SEED is set) then exit")
	envFile     = flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
)

func main() {
	flag.Parse()

	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	if cfg.Database.Migrate || *migrateOnly {
		if err := database.Migrate(db, cfg.Database); err != nil {
			return err
		}
		log.Info("database schema up to date", zap.String("driver", cfg.Database.Driver))
	}
	if cfg.Seed.Enabled {
		if err := database.Seed(ctx, db, cfg.Seed, log); err != nil {
			return err
		}
	}
	if *migrateOnly {
		log.Info("migrations completed; exiting as requested")
		return nil
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.New(db, cfg, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped gracefully")
	return nil
}
