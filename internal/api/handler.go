// Package api exposes the fleet dashboard over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/fleet"
	"fleet-dash/internal/tabular"
)

// FleetService is the dashboard service the handlers call.
type FleetService interface {
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
	ListLocations(ctx context.Context) ([]domain.VehicleLocation, error)
	LatestOdometer(ctx context.Context, vehicleID int64) (domain.OdometerReading, error)
	ListTrips(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, int64, error)
	DashboardKPIs(ctx context.Context) (*domain.DashboardKPIs, error)
	Sync(ctx context.Context) error
}

// maxDecodeBytes caps the body of a decode request.
const maxDecodeBytes = 8 << 20

// Handler implements the /v1 endpoints.
type Handler struct {
	svc      FleetService
	registry *fleet.Registry
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc FleetService, registry *fleet.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, registry: registry, logger: logger.With("component", "api")}
}

// listResponse wraps list results.
type listResponse[T any] struct {
	Data          []T    `json:"data"`
	NextPageToken string `json:"next_page_token,omitempty"`
	Total         *int64 `json:"total,omitempty"`
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.svc.ListVehicles(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Vehicle]{Data: vehicles})
}

func (h *Handler) vehicleOdometer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid vehicle id %q", chi.URLParam(r, "id")))
		return
	}
	reading, err := h.svc.LatestOdometer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (h *Handler) listDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.svc.ListDrivers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Driver]{Data: drivers})
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.svc.ListLocations(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.VehicleLocation]{Data: locs})
}

func (h *Handler) listTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TripFilter{Page: domain.PageRequest{PageToken: q.Get("page_token")}}
	if raw := q.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, domain.ErrValidation("invalid max_results %q", raw))
			return
		}
		filter.Page.MaxResults = n
	}
	if raw := q.Get("vehicle_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, r, domain.ErrValidation("invalid vehicle_id %q", raw))
			return
		}
		filter.VehicleID = &id
	}
	if raw := q.Get("status"); raw != "" {
		filter.Status = &raw
	}

	trips, total, err := h.svc.ListTrips(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Trip]{
		Data:          trips,
		NextPageToken: filter.Page.NextPageToken(total),
		Total:         &total,
	})
}

func (h *Handler) dashboardKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.svc.DashboardKPIs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sync(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	if _, err := domain.RequireRole(r.Context(), domain.RoleViewer); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[tabular.Schema]{Data: h.registry.List()})
}

// decodeRequest is the body of POST /v1/decode.
type decodeRequest struct {
	Schema  string           `json:"schema"`
	Payload *tabular.Payload `json:"payload"`
	Select  *selectRequest   `json:"select,omitempty"`
}

type selectRequest struct {
	OrderBy   string `json:"order_by"`
	Direction string `json:"direction"`
	Limit     int    `json:"limit"`
}

type decodeResponse struct {
	Schema  string           `json:"schema"`
	Records []tabular.Record `json:"records"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) {
	if _, err := domain.RequireRole(r.Context(), domain.RoleAdmin); err != nil {
		h.writeError(w, r, err)
		return
	}

	var req decodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDecodeBytes)).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	schema, err := h.registry.Get(req.Schema)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Payload == nil {
		h.writeError(w, r, domain.ErrValidation("payload is required"))
		return
	}

	records, err := tabular.DecodeAll(req.Payload, schema)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Select != nil {
		policy, err := selectionPolicy(schema, req.Select)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		records = tabular.SelectTop(records, policy)
	}
	writeJSON(w, http.StatusOK, decodeResponse{Schema: schema.Name, Records: records})
}

func selectionPolicy(schema tabular.Schema, req *selectRequest) (tabular.SelectionPolicy, error) {
	if _, ok := schema.Field(req.OrderBy); !ok {
		return tabular.SelectionPolicy{}, domain.ErrValidation("schema %q has no field %q", schema.Name, req.OrderBy)
	}
	policy := tabular.SelectionPolicy{OrderBy: req.OrderBy, Limit: req.Limit}
	switch strings.ToLower(req.Direction) {
	case "", "desc", "descending":
		policy.Direction = tabular.Descending
	case "asc", "ascending":
		policy.Direction = tabular.Ascending
	default:
		return tabular.SelectionPolicy{}, domain.ErrValidation("invalid direction %q", req.Direction)
	}
	return policy, nil
}
