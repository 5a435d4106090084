package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"fleet-dash/internal/domain"
)

// Authenticate requires a valid bearer JWT and stores the resulting
// principal in the request context. Requests without one get a 401.
func Authenticate(v JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			claims, err := v.Validate(r.Context(), token)
			if err != nil {
				logger.Debug("rejected token", "request_id", RequestIDFromContext(r.Context()), "error", err)
				writeUnauthorized(w, "invalid bearer token")
				return
			}
			ctx := domain.WithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="fleet-dash"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusUnauthorized,
		"message": "unauthorized: " + msg,
	})
}
