// Package ops serves the operational endpoints on a listener separate from
// the public API.
package ops

import (
	"encoding/json"
	"net/http"
	"time"

	"flarewise/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config selects the optional ops endpoints
type Config struct {
	// Profiling mounts net/http/pprof under /debug
	Profiling bool
	Timeout   time.Duration
}

// NewRouter builds the ops router: /metrics from gatherer, /healthz from
// health (always ok when nil) and /debug/pprof when profiling is enabled
func NewRouter(cfg Config, gatherer prometheus.Gatherer, health ports.HealthChecker) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status, body := http.StatusOK, "ok"
		if health != nil {
			if err := health.Ping(req.Context()); err != nil {
				status, body = http.StatusServiceUnavailable, "unavailable"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": body, "requestId": middleware.GetReqID(req.Context())})
	})

	if cfg.Profiling {
		r.Mount("/debug", middleware.Profiler())
	}
	return r
}
