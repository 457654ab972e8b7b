package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"flarewise/app"
	"flarewise/domain/core"
	"flarewise/internal/errors"
	"flarewise/internal/metrics"

	"github.com/gin-gonic/gin"
)

// correlationParams is accepted as a JSON body (POST) or query string (GET)
type correlationParams struct {
	UserID        string `json:"userId" form:"userId"`
	SymptomID     string `json:"symptomId" form:"symptomId"`
	StartMs       *int64 `json:"startMs" form:"startMs"`
	EndMs         *int64 `json:"endMs" form:"endMs"`
	MinSampleSize *int   `json:"minSampleSize" form:"minSampleSize"`
}

func (s *Server) handleCorrelations(c *gin.Context) {
	var p correlationParams
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&p)
	} else {
		err = c.ShouldBindQuery(&p)
	}
	if err != nil {
		s.writeError(c, errors.ValidationError("malformed request: "+err.Error()))
		return
	}
	if p.UserID == "" || p.SymptomID == "" {
		s.writeError(c, errors.ValidationError("userId and symptomId are required"))
		return
	}
	r, err := s.resolveRange(p.StartMs, p.EndMs)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var opts app.Options
	if p.MinSampleSize != nil {
		if *p.MinSampleSize < 1 {
			s.writeError(c, errors.ValidationError("minSampleSize must be at least 1"))
			return
		}
		opts.MinSampleSize = *p.MinSampleSize
	}

	s.runAnalysis(c, metrics.AnalysisCombinations, func(ctx context.Context) (any, error) {
		return s.services.Correlations.ComputeWithCombinations(ctx, core.UserID(p.UserID), core.SymptomID(p.SymptomID), r, opts)
	})
}

func (s *Server) handleSingleCorrelation(c *gin.Context) {
	userID, symptomID := c.Query("userId"), c.Query("symptomId")
	if userID == "" || symptomID == "" {
		s.writeError(c, errors.ValidationError("userId and symptomId are required"))
		return
	}
	r, err := s.queryRange(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	req := app.CorrelationRequest{
		UserID:    core.UserID(userID),
		FoodID:    core.FoodID(c.Query("foodId")),
		TriggerID: core.TriggerID(c.Query("triggerId")),
		SymptomID: core.SymptomID(symptomID),
		Range:     r,
	}
	s.runAnalysis(c, metrics.AnalysisCorrelation, func(ctx context.Context) (any, error) {
		return s.services.Correlations.ComputeCorrelation(ctx, req)
	})
}

func (s *Server) handleMonthlyTrend(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		s.writeError(c, errors.ValidationError("userId is required"))
		return
	}
	option, err := app.ParseTimeRange(c.Query("timeRange"))
	if err != nil {
		s.writeError(c, errors.WithCode(errors.CodeValidationError, err))
		return
	}
	s.runAnalysis(c, metrics.AnalysisTrend, func(ctx context.Context) (any, error) {
		return s.services.Trends.GetMonthlyTrendData(ctx, core.UserID(userID), option)
	})
}

func (s *Server) handleDoseResponse(c *gin.Context) {
	userID, foodID, symptomID := c.Query("userId"), c.Query("foodId"), c.Query("symptomId")
	if userID == "" || foodID == "" || symptomID == "" {
		s.writeError(c, errors.ValidationError("userId, foodId and symptomId are required"))
		return
	}
	r, err := s.queryRange(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.runAnalysis(c, metrics.AnalysisDoseResponse, func(ctx context.Context) (any, error) {
		return s.services.DoseResponse.ComputeForFood(ctx, core.UserID(userID), core.FoodID(foodID), core.SymptomID(symptomID), r)
	})
}

func (s *Server) handlePatterns(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		s.writeError(c, errors.ValidationError("userId is required"))
		return
	}
	r, err := s.queryRange(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	opts := app.PatternOptions{
		MinFrequency: s.opts.PatternMinFrequency,
		MaxLag:       s.opts.PatternMaxLag,
	}
	if v := c.Query("minFrequency"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(c, errors.ValidationError("minFrequency must be a positive integer"))
			return
		}
		opts.MinFrequency = n
	}
	if v := c.Query("maxLagHours"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil || h <= 0 {
			s.writeError(c, errors.ValidationError("maxLagHours must be positive"))
			return
		}
		opts.MaxLag = time.Duration(h * float64(time.Hour))
	}
	if v := c.Query("buckets"); v != "" {
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				s.writeError(c, errors.ValidationError("buckets must be comma-separated hours"))
				return
			}
			opts.BucketHours = append(opts.BucketHours, n)
		}
	}
	opts.WithCorrelations = c.Query("withCorrelations") == "true"

	s.runAnalysis(c, metrics.AnalysisPatterns, func(ctx context.Context) (any, error) {
		found, err := s.services.Patterns.DetectPatterns(ctx, core.UserID(userID), r, opts)
		if err != nil {
			return nil, err
		}
		return gin.H{"patterns": found, "count": len(found)}, nil
	})
}

// runAnalysis holds a concurrency slot while fn runs and records its outcome
func (s *Server) runAnalysis(c *gin.Context, name string, fn func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		s.writeError(c, errors.Unavailable("too many concurrent analyses"))
		return
	}
	metrics.InFlight(1)
	defer func() {
		metrics.InFlight(-1)
		s.limiter.Release(1)
	}()

	start := time.Now()
	out, err := fn(ctx)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveAnalysis(name, time.Since(start), outcome)

	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) queryRange(c *gin.Context) (core.DateRange, error) {
	start, err := optionalMillis(c.Query("startMs"), "startMs")
	if err != nil {
		return core.DateRange{}, err
	}
	end, err := optionalMillis(c.Query("endMs"), "endMs")
	if err != nil {
		return core.DateRange{}, err
	}
	return s.resolveRange(start, end)
}

// resolveRange fills missing bounds: end defaults to now and start to
// DefaultRangeDays before end
func (s *Server) resolveRange(startMs, endMs *int64) (core.DateRange, error) {
	end := s.now().UTC()
	if endMs != nil {
		end = core.FromMillis(*endMs).Time()
	}
	start := end.AddDate(0, 0, -s.opts.DefaultRangeDays)
	if startMs != nil {
		start = core.FromMillis(*startMs).Time()
	}
	r, err := core.NewDateRange(start, end)
	if err != nil {
		return core.DateRange{}, errors.WithCode(errors.CodeValidationError, err)
	}
	return r, nil
}

func optionalMillis(v, name string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, errors.ValidationError(name + " must be epoch milliseconds")
	}
	return &ms, nil
}
