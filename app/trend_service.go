package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flarewise/adapters/stats/regression"
	"flarewise/domain/analysis"
	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal"
	"flarewise/internal/errors"
	"flarewise/ports"

	"github.com/montanaflynn/stats"
)

// TimeRangeOption selects how far back a trend query looks
type TimeRangeOption string

const (
	TimeRange3Months TimeRangeOption = "3m"
	TimeRange6Months TimeRangeOption = "6m"
	TimeRange1Year   TimeRangeOption = "1y"
	TimeRangeAll     TimeRangeOption = "all"
)

// Trend classification
const (
	// TrendSlopeThreshold is the flares-per-month slope beyond which a trend
	// is improving or declining; exactly ±0.3 is stable
	TrendSlopeThreshold = 0.3
	// MinTrendMonths is the number of months with flares needed for a direction
	MinTrendMonths = 3
)

const monthLayout = "2006-01"

// ParseTimeRange validates a time range option; empty means 6m
func ParseTimeRange(s string) (TimeRangeOption, error) {
	opt := TimeRangeOption(strings.ToLower(strings.TrimSpace(s)))
	if opt == "" {
		return TimeRange6Months, nil
	}
	if !opt.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidTimeRange, s)
	}
	return opt, nil
}

// Valid reports whether o is a known option
func (o TimeRangeOption) Valid() bool {
	switch o {
	case TimeRange3Months, TimeRange6Months, TimeRange1Year, TimeRangeAll:
		return true
	}
	return false
}

// Resolve turns the option into a concrete range ending at now
func (o TimeRangeOption) Resolve(now time.Time) (core.DateRange, error) {
	now = now.UTC()
	switch o {
	case TimeRange3Months:
		return core.DateRange{Start: now.AddDate(0, -3, 0), End: now}, nil
	case TimeRange6Months:
		return core.DateRange{Start: now.AddDate(0, -6, 0), End: now}, nil
	case TimeRange1Year:
		return core.DateRange{Start: now.AddDate(-1, 0, 0), End: now}, nil
	case TimeRangeAll:
		return core.DateRange{Start: time.Unix(0, 0).UTC(), End: now}, nil
	}
	return core.DateRange{}, fmt.Errorf("%w: %q", core.ErrInvalidTimeRange, string(o))
}

// TrendService builds monthly flare-frequency series
type TrendService struct {
	flares ports.FlareReader
	logger *internal.Logger
	now    func() time.Time
}

// NewTrendService creates a trend service using the wall clock
func NewTrendService(repo ports.FlareReader, logger *internal.Logger) *TrendService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TrendService{
		flares: repo,
		logger: logger.With("trend"),
		now:    time.Now,
	}
}

// WithClock replaces the clock the time range resolves against
func (s *TrendService) WithClock(now func() time.Time) *TrendService {
	s.now = now
	return s
}

// GetMonthlyTrendData buckets the user's flares by UTC start month and fits
// a line through the monthly counts
func (s *TrendService) GetMonthlyTrendData(ctx context.Context, userID core.UserID, option TimeRangeOption) (*analysis.TrendAnalysis, error) {
	r, err := option.Resolve(s.now())
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}

	flares, err := s.flares.ListFlares(ctx, userID, r)
	if err != nil {
		return nil, errors.Database(err, "list flares")
	}
	owned := flares[:0:0]
	for _, f := range flares {
		if f.UserID == userID && r.Contains(f.StartDate.Time()) {
			owned = append(owned, f)
		}
	}

	var history []health.FlareEvent
	if len(owned) > 0 {
		ids := make([]core.FlareID, len(owned))
		for i, f := range owned {
			ids[i] = f.ID
		}
		history, err = s.flares.ListFlareEvents(ctx, userID, ids)
		if err != nil {
			return nil, errors.Database(err, "list flare events")
		}
	}

	points := BuildMonthlySeries(owned, history)
	xy := make([]regression.Point, len(points))
	populated := 0
	for i, p := range points {
		xy[i] = regression.Point{X: float64(i), Y: float64(p.FlareCount)}
		if p.FlareCount > 0 {
			populated++
		}
	}
	line := regression.CalculateLinearRegression(xy)

	s.logger.Debug("trend months=%d populated=%d flares=%d", len(points), populated, len(owned))

	return &analysis.TrendAnalysis{
		DataPoints:     points,
		TrendLine:      line,
		TrendDirection: ClassifyTrend(line.Slope, populated),
		TimeRange:      string(option),
		Range:          r,
	}, nil
}

// ClassifyTrend maps a monthly slope to a direction. Fewer than three
// months with flares is insufficient.
func ClassifyTrend(slope float64, populatedMonths int) analysis.TrendDirection {
	switch {
	case populatedMonths < MinTrendMonths:
		return analysis.TrendInsufficientData
	case slope < -TrendSlopeThreshold:
		return analysis.TrendImproving
	case slope > TrendSlopeThreshold:
		return analysis.TrendDeclining
	default:
		return analysis.TrendStable
	}
}

// BuildMonthlySeries buckets flares by UTC month of StartDate. Months between
// the first and last populated month are zero-filled so the index of a point
// is its calendar offset.
func BuildMonthlySeries(flares []health.FlareRecord, history []health.FlareEvent) []analysis.TrendDataPoint {
	if len(flares) == 0 {
		return []analysis.TrendDataPoint{}
	}

	byFlare := make(map[core.FlareID][]health.FlareEvent)
	for _, ev := range history {
		byFlare[ev.FlareID] = append(byFlare[ev.FlareID], ev)
	}

	peaks := make(map[string][]float64)
	var first, last time.Time
	for i, f := range flares {
		m := monthStart(f.StartDate.Time())
		if i == 0 || m.Before(first) {
			first = m
		}
		if i == 0 || m.After(last) {
			last = m
		}
		key := m.Format(monthLayout)
		peaks[key] = append(peaks[key], float64(health.PeakSeverity(f, byFlare[f.ID])))
	}

	points := make([]analysis.TrendDataPoint, 0)
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := m.Format(monthLayout)
		p := analysis.TrendDataPoint{
			Month:          key,
			MonthTimestamp: core.NewTimestamp(m),
			FlareCount:     len(peaks[key]),
		}
		if sev := peaks[key]; len(sev) > 0 {
			avg, _ := stats.Mean(sev)
			avg, _ = stats.Round(avg, 2)
			hi, _ := stats.Max(sev)
			peak := int(hi)
			p.AverageSeverity = &avg
			p.PeakSeverity = &peak
		}
		points = append(points, p)
	}
	return points
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
