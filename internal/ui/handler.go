// Package ui renders the dashboard's single server-side KPI page.
package ui

import (
	"context"
	"log/slog"
	"net/http"

	gomponents "maragu.dev/gomponents"

	"fleet-dash/internal/domain"
)

// DashboardSource supplies the data shown on the KPI page.
type DashboardSource interface {
	DashboardKPIs(ctx context.Context) (*domain.DashboardKPIs, error)
	ListLocations(ctx context.Context) ([]domain.VehicleLocation, error)
}

// Handler serves GET /ui.
type Handler struct {
	src    DashboardSource
	logger *slog.Logger
}

func NewHandler(src DashboardSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{src: src, logger: logger.With("component", "ui")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, _ := domain.PrincipalFromContext(r.Context())

	kpis, err := h.src.DashboardKPIs(r.Context())
	if err != nil {
		h.logger.Warn("kpi page failed", "error", err)
		renderHTML(w, statusFor(err), errorPage(principal, err))
		return
	}
	locations, err := h.src.ListLocations(r.Context())
	if err != nil {
		h.logger.Warn("kpi page locations failed", "error", err)
		locations = nil
	}
	renderHTML(w, http.StatusOK, kpiPage(principal, kpis, locations))
}

func statusFor(err error) int {
	switch {
	case isType[*domain.UnauthenticatedError](err):
		return http.StatusUnauthorized
	case isType[*domain.AccessDeniedError](err):
		return http.StatusForbidden
	case isType[*domain.PayloadMissingError](err), isType[*domain.WarehouseError](err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
