package warehouse

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxRequestBytes caps the size of a proxy query request body.
const maxRequestBytes = 1 << 20

// HandlerConfig holds the parameters needed to build the proxy handler.
type HandlerConfig struct {
	DB        *sql.DB
	Token     string
	MaxSkew   time.Duration
	StartTime time.Time
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewHandler builds the warehouse proxy's http.Handler with POST /query and
// GET /health. Query requests must be signed with the shared token.
func NewHandler(cfg HandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	maxSkew := cfg.MaxSkew
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	exec := NewLocalExecutor(cfg.DB)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", CodeParse, requestID)
			return
		}

		if err := VerifyRequest(r, cfg.Token, body, now(), maxSkew); err != nil {
			logger.Warn("rejected unsigned query", "request_id", requestID, "error", err)
			writeError(w, http.StatusUnauthorized, "unauthorized", CodeAuth, requestID)
			return
		}

		var req QueryRequest
		if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.SQL) == "" {
			writeError(w, http.StatusBadRequest, "invalid request body", CodeParse, requestID)
			return
		}
		if requestID == "" {
			requestID = req.RequestID
		}

		start := now()
		payload, err := exec.Query(r.Context(), req.SQL)
		if err != nil {
			logger.Error("query execution failed", "request_id", requestID, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error(), CodeExecution, requestID)
			return
		}

		logger.Info("query completed",
			"request_id", requestID,
			"row_count", len(payload.Rows),
			"duration_ms", now().Sub(start).Milliseconds(),
		)
		writeJSON(w, http.StatusOK, payload)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		var version string
		_ = cfg.DB.QueryRowContext(r.Context(), "SELECT version()").Scan(&version)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"uptime_seconds": int(now().Sub(cfg.StartTime).Seconds()),
			"duckdb_version": version,
		})
	})

	return mux
}

func writeError(w http.ResponseWriter, status int, msg, code, requestID string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code, RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
