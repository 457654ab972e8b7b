package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"flarewise/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))
	metrics.ObserveRequest("/api/patterns", "200")

	w := get(NewRouter(Config{}, reg, nil), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flarewise_http_requests_total")
}

func TestRouter_Health(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.Equal(t, http.StatusOK, get(NewRouter(Config{}, reg, nil), "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(NewRouter(Config{}, reg, pinger{}), "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(NewRouter(Config{}, reg, pinger{errors.New("down")}), "/healthz").Code)
}

func TestRouter_ProfilingIsOptIn(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.Equal(t, http.StatusNotFound, get(NewRouter(Config{}, reg, nil), "/debug/pprof/").Code)
	assert.Equal(t, http.StatusOK, get(NewRouter(Config{Profiling: true}, reg, nil), "/debug/pprof/").Code)
}
