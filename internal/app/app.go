// Package app wires the dashboard's repositories, warehouse client,
// services and HTTP router from the provided dependencies.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fleet-dash/internal/api"
	"fleet-dash/internal/config"
	"fleet-dash/internal/db"
	"fleet-dash/internal/db/repository"
	"fleet-dash/internal/domain"
	"fleet-dash/internal/fleet"
	"fleet-dash/internal/middleware"
	"fleet-dash/internal/service/dashboard"
	"fleet-dash/internal/ui"
	"fleet-dash/internal/warehouse"
)

// Deps holds the external dependencies that main() must provide.
// Warehouse is optional; when nil a ProxyClient is built from Cfg.
type Deps struct {
	Cfg       *config.Config
	Store     *db.Store
	Warehouse domain.Warehouse
	Validator middleware.JWTValidator
	Logger    *slog.Logger
	StartTime time.Time
}

// App holds the fully-wired application.
type App struct {
	Service  *dashboard.Service
	Warmer   *dashboard.Warmer
	Registry *fleet.Registry
	Cache    *warehouse.CachedWarehouse
	Router   http.Handler
}

// New wires repositories, the cached warehouse, services and the router.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.StartTime.IsZero() {
		deps.StartTime = time.Now()
	}

	// === Repositories ===
	// Writes go through the single-connection pool; list reads use the read pool.
	vehicleRepo := repository.NewVehicleRepo(deps.Store.Write)
	driverRepo := repository.NewDriverRepo(deps.Store.Write)
	tripRepo := repository.NewTripRepo(deps.Store.Write)

	// === Warehouse ===
	wh := deps.Warehouse
	if wh == nil {
		wh = warehouse.NewProxyClient(cfg.Warehouse.URL, cfg.Warehouse.Token, warehouse.ProxyClientOptions{
			Timeout: cfg.Warehouse.Timeout,
			Logger:  logger.With("component", "warehouse-client"),
		})
	}
	cache := warehouse.NewCachedWarehouse(wh, cfg.Warehouse.CacheTTL)

	// === Schemas ===
	registry, err := fleet.LoadRegistryDir(cfg.SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}

	// === Services ===
	svc := dashboard.NewService(cache, vehicleRepo, driverRepo, tripRepo, dashboard.Options{
		Logger: logger.With("component", "dashboard"),
	})
	warmer, err := dashboard.NewWarmer(svc, cfg.KPIWarmSchedule, logger)
	if err != nil {
		return nil, err
	}

	// === Auth ===
	validator := deps.Validator
	if validator == nil {
		validator, err = newValidator(ctx, cfg.Auth)
		if err != nil {
			return nil, err
		}
	}

	// === Router ===
	handler := api.NewHandler(svc, registry, logger.With("component", "api"))
	router := api.NewRouter(api.RouterConfig{
		Handler:   handler,
		Validator: validator,
		UI:        ui.NewHandler(svc, logger.With("component", "ui")),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
		StartTime:      deps.StartTime,
	})

	return &App{
		Service:  svc,
		Warmer:   warmer,
		Registry: registry,
		Cache:    cache,
		Router:   router,
	}, nil
}

// newValidator prefers the OIDC issuer and falls back to the shared secret.
func newValidator(ctx context.Context, auth config.AuthConfig) (middleware.JWTValidator, error) {
	if auth.OIDCEnabled() {
		v, err := middleware.NewOIDCValidator(ctx, auth.IssuerURL, auth.Audience)
		if err != nil {
			return nil, fmt.Errorf("oidc validator: %w", err)
		}
		return v, nil
	}
	v, err := middleware.NewHS256Validator(auth.JWTSecret, auth.Audience)
	if err != nil {
		return nil, fmt.Errorf("hs256 validator: %w", err)
	}
	return v, nil
}
