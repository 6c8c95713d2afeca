// Package httpadmin exposes health, metrics, and a thin read-only query
// surface over the merged store. Responses are best-effort: queries never
// block on an in-flight refresh.
package httpadmin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/permit-risk-etl/internal/store/sqlite"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Store is the read side of the record store consumed by the API handlers.
type Store interface {
	Query(ctx context.Context, f sqlite.Filter) ([]sqlite.RecordWithRisk, error)
	QueryStats(ctx context.Context) (sqlite.Stats, error)
}

// Server exposes health, readiness, metrics, and query HTTP endpoints.
type Server struct {
	httpServer *http.Server
	store      Store
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /api/permits, and /api/stats routes.
func NewServer(addr string, ready ReadinessChecker, store Store, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/permits", s.handlePermits)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handlePermits(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.Query(r.Context(), filterFromQuery(r))
	if err != nil {
		s.logger.Error("permit query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	if results == nil {
		results = []sqlite.RecordWithRisk{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.QueryStats(r.Context())
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats failed"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// filterFromQuery maps URL parameters onto a store filter. Invalid numbers
// are treated as unset; the store clamps limits.
func filterFromQuery(r *http.Request) sqlite.Filter {
	q := r.URL.Query()
	f := sqlite.Filter{
		Origin:           q.Get("origin"),
		CategoryContains: q.Get("category"),
		AreaKey:          q.Get("area"),
		RiskFloor:        q.Get("risk"),
	}
	if v, err := strconv.ParseFloat(q.Get("min_value"), 64); err == nil {
		f.MinValue = v
	}
	if v, err := strconv.Atoi(q.Get("days")); err == nil {
		f.WithinDays = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
