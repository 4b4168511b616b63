package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// DefaultOrigin is always allowed so a local frontend works out of the box
const DefaultOrigin = "http://localhost:3000"

// ParseOrigins splits a comma-separated FRONTEND_URL into a deduplicated
// origin list that always starts with DefaultOrigin
func ParseOrigins(frontendURL string) []string {
	origins := []string{DefaultOrigin}
	seen := map[string]bool{DefaultOrigin: true}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}
	return origins
}

// CORS handles CORS headers and OPTIONS preflight requests with rs/cors.
// userIDHeader is allowed as a request header so browsers can send it.
func CORS(allowedOrigins []string, userIDHeader string) func(http.Handler) http.Handler {
	if userIDHeader == "" {
		userIDHeader = DefaultUserIDHeader
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", userIDHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}
