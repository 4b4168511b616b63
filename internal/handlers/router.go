package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/smart-goals/internal/middleware"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// RouterConfig holds everything NewRouter wires together
type RouterConfig struct {
	Engine         GoalEngine
	Health         *HealthChecker
	Version        VersionInfo
	Logger         *zap.Logger
	AllowedOrigins []string
	UserIDHeader   string
	EnableHSTS     bool
	// RateLimit is the ulule/limiter middleware for /api/v1; nil disables it
	RateLimit      func(http.Handler) http.Handler
	RequestTimeout time.Duration
	Tracing        bool
	ServiceName    string
}

// NewRouter builds the HTTP router. gorilla/mux runs middleware in
// registration order, the first registered being the outermost.
func NewRouter(cfg RouterConfig) (*mux.Router, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	health := cfg.Health
	if health == nil {
		health = NewHealthChecker(log)
	}

	r := mux.NewRouter()
	if cfg.Tracing {
		r.Use(otelmux.Middleware(cfg.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.AllowedOrigins, cfg.UserIDHeader))
	r.Use(middleware.Logging(log))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.HandleFunc("/healthz", health.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", VersionHandler(cfg.Version)).Methods(http.MethodGet)

	openAPI, err := NewOpenAPIHandler()
	if err != nil {
		return nil, err
	}
	openAPI.RegisterRoutes(r)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Identity(cfg.UserIDHeader, log))
	if cfg.RateLimit != nil {
		api.Use(cfg.RateLimit)
	}
	NewGoalHandler(cfg.Engine).RegisterRoutes(api.PathPrefix("/goals").Subrouter())
	NewTemplateHandler(cfg.Engine).RegisterRoutes(api.PathPrefix("/goal-templates").Subrouter())

	// preflight requests never reach a route; rs/cors answers them, this only
	// keeps mux from returning 405
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
