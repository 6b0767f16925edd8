package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Yuqi1124/TownRecord/internal/api/handler"
	"github.com/Yuqi1124/TownRecord/internal/api/middleware"
	"github.com/Yuqi1124/TownRecord/internal/api/request"
	"github.com/Yuqi1124/TownRecord/internal/services/registry"
	"github.com/Yuqi1124/TownRecord/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger    *slog.Logger
	Registry  *registry.Registry
	WSHandler *ws.Handler
	// Validate is used for request bodies; nil creates a default one
	Validate *validator.Validate
	// Gatherer is exposed on /metrics when set
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	validate := cfg.Validate
	if validate == nil {
		validate = request.NewValidator()
	}

	// Create handlers
	townHandler := handler.NewTownHandler(cfg.Registry, validate)
	connectHandler := handler.NewConnectHandler(cfg.WSHandler)

	// Create middleware
	sessionMiddleware := middleware.Session(cfg.Registry)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	// Logging wraps recovery so recovered panics are logged with their 500
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Town routes; update and delete are guarded by the town password
	api.HandleFunc("/towns", townHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/towns", townHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/towns/{townID}", townHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/towns/{townID}", townHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/towns/{townID}/sessions", townHandler.Join).Methods(http.MethodPost)

	// Live connection (requires a session in the town)
	connect := api.PathPrefix("/towns/{townID}/connect").Subrouter()
	connect.Use(sessionMiddleware)
	connect.HandleFunc("", connectHandler.Connect).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
