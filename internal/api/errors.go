package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fleet-dash/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var (
		notFound       *domain.NotFoundError
		accessDenied   *domain.AccessDeniedError
		unauth         *domain.UnauthenticatedError
		validation     *domain.ValidationError
		conflict       *domain.ConflictError
		payloadMissing *domain.PayloadMissingError
		warehouse      *domain.WarehouseError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unauth):
		return http.StatusUnauthorized
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &payloadMissing), errors.As(err, &warehouse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse is the JSON body of every error answer.
type errorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status for err. Internal errors are logged
// and their message is not exposed.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	requestID := w.Header().Get("X-Request-ID")
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", requestID, "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else if status == http.StatusBadGateway {
		h.logger.Warn("warehouse failure", "request_id", requestID, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: status, Message: msg, RequestID: requestID})
}
