// Package api exposes the analysis services over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"flarewise/app"
	"flarewise/domain/analysis"
	"flarewise/domain/core"
	"flarewise/internal"
	"flarewise/ports"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// CorrelationAnalyzer is the correlation surface the handlers call
type CorrelationAnalyzer interface {
	ComputeCorrelation(ctx context.Context, req app.CorrelationRequest) (*analysis.CorrelationResult, error)
	ComputeWithCombinations(ctx context.Context, userID core.UserID, symptomID core.SymptomID, r core.DateRange, opts app.Options) (*analysis.CombinationAnalysis, error)
}

// DoseResponseAnalyzer fits portion size against severity for one food
type DoseResponseAnalyzer interface {
	ComputeForFood(ctx context.Context, userID core.UserID, foodID core.FoodID, symptomID core.SymptomID, r core.DateRange) (*analysis.DoseResponseResult, error)
}

// TrendAnalyzer builds monthly flare trends
type TrendAnalyzer interface {
	GetMonthlyTrendData(ctx context.Context, userID core.UserID, option app.TimeRangeOption) (*analysis.TrendAnalysis, error)
}

// PatternDetector finds recurring exposure→symptom pairs
type PatternDetector interface {
	DetectPatterns(ctx context.Context, userID core.UserID, r core.DateRange, opts app.PatternOptions) ([]analysis.DetectedPattern, error)
}

// Services groups the handler dependencies. Health may be nil.
type Services struct {
	Correlations CorrelationAnalyzer
	DoseResponse DoseResponseAnalyzer
	Trends       TrendAnalyzer
	Patterns     PatternDetector
	Health       ports.HealthChecker
}

// Options tunes request handling
type Options struct {
	DefaultRangeDays      int
	RequestTimeout        time.Duration
	MaxConcurrentAnalyses int64
	PatternMinFrequency   int
	PatternMaxLag         time.Duration
}

// DefaultOptions returns the defaults used when config leaves a value unset
func DefaultOptions() Options {
	return Options{
		DefaultRangeDays:      30,
		RequestTimeout:        30 * time.Second,
		MaxConcurrentAnalyses: 8,
	}
}

// Server wires the analysis handlers into a gin engine
type Server struct {
	router   *gin.Engine
	services Services
	opts     Options
	logger   *internal.Logger
	limiter  *semaphore.Weighted
	now      func() time.Time
}

// NewServer creates the API server and registers its routes
func NewServer(services Services, opts Options, logger *internal.Logger) *Server {
	defaults := DefaultOptions()
	if opts.DefaultRangeDays <= 0 {
		opts.DefaultRangeDays = defaults.DefaultRangeDays
	}
	if opts.MaxConcurrentAnalyses <= 0 {
		opts.MaxConcurrentAnalyses = defaults.MaxConcurrentAnalyses
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:   gin.New(),
		services: services,
		opts:     opts,
		logger:   logger.With("api"),
		limiter:  semaphore.NewWeighted(opts.MaxConcurrentAnalyses),
		now:      time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the http.Handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the gin engine for additional routes
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(s.recover))
	s.router.Use(RequestLogger(s.logger))
	if s.opts.RequestTimeout > 0 {
		s.router.Use(Timeout(s.opts.RequestTimeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/correlations", s.handleCorrelations)
		api.POST("/correlations", s.handleCorrelations)
		api.GET("/correlations/food", s.handleSingleCorrelation)
		api.GET("/trends/monthly", s.handleMonthlyTrend)
		api.GET("/dose-response", s.handleDoseResponse)
		api.GET("/patterns", s.handlePatterns)
	}
}
