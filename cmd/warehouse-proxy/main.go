// Package main is the entry point for the warehouse proxy. The proxy opens
// a DuckDB database, optionally seeds the demo fleet tables, and exposes
// signed POST /query and GET /health over HTTP.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"fleet-dash/internal/config"
	"fleet-dash/internal/warehouse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}
	cfg, err := config.LoadProxyFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.SeedDemo {
		if err := warehouse.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seed demo warehouse: %w", err)
		}
		logger.Info("demo warehouse ready")
	}

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: warehouse.NewHandler(warehouse.HandlerConfig{
			DB:        db,
			Token:     cfg.Token,
			MaxSkew:   cfg.MaxSkew,
			StartTime: time.Now(),
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down warehouse proxy")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("warehouse proxy listening", "addr", cfg.ListenAddr, "duckdb_path", cfg.DuckDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
