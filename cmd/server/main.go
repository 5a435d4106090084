// Package main is the entry point for the fleet dashboard API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fleet-dash/internal/app"
	"fleet-dash/internal/config"
	"fleet-dash/internal/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	startTime := time.Now()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// writeDB: single-connection pool for serialized writes.
	// readDB:  4-connection pool for concurrent reads.
	store, err := db.Open(cfg.MetaDBPath, 4)
	if err != nil {
		return fmt.Errorf("open fleet store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	a, err := app.New(ctx, app.Deps{
		Cfg:       cfg,
		Store:     store,
		Logger:    logger,
		StartTime: startTime,
	})
	if err != nil {
		return err
	}

	a.Warmer.Start()
	defer a.Warmer.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("fleet dashboard listening",
		"addr", cfg.ListenAddr,
		"warehouse", cfg.Warehouse.URL,
		"schemas", len(a.Registry.List()),
	)
	logger.Info("try: " + kpiCurlHint(cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// kpiCurlHint returns an example command that fetches the dashboard KPIs
// from a server listening on listenAddr.
func kpiCurlHint(listenAddr string) string {
	return "curl -H 'Authorization: Bearer <jwt>' http://" + curlHostForListenAddr(listenAddr) + "/v1/dashboard/kpis"
}

// curlHostForListenAddr turns a listen address into a host:port usable in
// an example curl command.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
