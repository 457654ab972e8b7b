package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that returned a result.
	OutcomeSuccess = "success"
	// OutcomeError labels analyses that failed (validation or repository errors).
	OutcomeError = "error"
)

// Analysis names used as label values.
const (
	AnalysisCorrelation  = "correlation"
	AnalysisCombinations = "combinations"
	AnalysisDoseResponse = "dose_response"
	AnalysisTrend        = "trend"
	AnalysisPatterns     = "patterns"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flarewise",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by analysis and outcome.",
		},
		[]string{"analysis", "outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flarewise",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds, including repository fetches.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"analysis"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flarewise",
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	analysesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "flarewise",
			Name:      "analyses_in_flight",
			Help:      "Analyses currently holding a concurrency slot.",
		},
	)
)

// Register attaches flarewise collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer, extra ...prometheus.Collector) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		httpRequestsTotal,
		analysesInFlight,
	}
	collectors = append(collectors, extra...)

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(analysis string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(analysis, label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.WithLabelValues(analysis).Observe(duration.Seconds())
}

// ObserveRequest counts one API request.
func ObserveRequest(route, status string) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, status).Inc()
}

// InFlight adjusts the in-flight analyses gauge by delta.
func InFlight(delta float64) {
	analysesInFlight.Add(delta)
}
