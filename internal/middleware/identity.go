package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	logpkg "github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultUserIDHeader carries the caller id set by the authenticating proxy
const DefaultUserIDHeader = "X-User-ID"

// Identity reads the caller id from a trusted upstream header and stores it
// in the request context. Requests without a valid id get 401.
func Identity(header string, logger *zap.Logger) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultUserIDHeader
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				respondError(w, r, http.StatusUnauthorized, "Unauthorized", "Missing "+header+" header")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				logger.Debug("invalid_user_id_header",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("value", logpkg.SanitizeString(raw, 64)),
				)
				respondError(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid "+header+" header")
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithUserID(r.Context(), userID)))
		})
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success:   false,
		Error:     errorType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
}
