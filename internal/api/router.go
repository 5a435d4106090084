package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fleet-dash/internal/middleware"
)

// RouterConfig holds everything needed to build the dashboard router.
type RouterConfig struct {
	Handler        *Handler
	Validator      middleware.JWTValidator
	UI             http.Handler
	RateLimit      middleware.RateLimitConfig
	AllowedOrigins []string
	Logger         *slog.Logger
	StartTime      time.Time
}

// NewRouter wires the middleware chain and mounts /healthz, /v1 and /ui.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
			ExposedHeaders:   []string{middleware.HeaderRequestID},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.Use(middleware.RateLimiter(cfg.RateLimit))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"uptime_seconds": int(time.Since(cfg.StartTime).Seconds()),
		})
	})

	auth := middleware.Authenticate(cfg.Validator, logger)
	h := cfg.Handler

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth)
		r.Get("/vehicles", h.listVehicles)
		r.Get("/vehicles/{id}/odometer", h.vehicleOdometer)
		r.Get("/drivers", h.listDrivers)
		r.Get("/locations", h.listLocations)
		r.Get("/trips", h.listTrips)
		r.Get("/dashboard/kpis", h.dashboardKPIs)
		r.Get("/schemas", h.listSchemas)
		r.Post("/decode", h.decode)
		r.Post("/sync", h.sync)
	})

	if cfg.UI != nil {
		r.With(auth).Handle("/ui", cfg.UI)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: http.StatusNotFound, Message: "not found"})
	})
	return r
}
