package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"flarewise/adapters/stats/regression"
	"flarewise/adapters/stats/windows"
	"flarewise/domain/analysis"
	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal"
	"flarewise/internal/errors"
	"flarewise/ports"

	"golang.org/x/sync/errgroup"
)

// Dose-response thresholds
const (
	MinDoseSampleSize = 5
	HighDoseR2        = 0.7
	MediumDoseR2      = 0.4
)

// DoseResponseService fits symptom severity against portion size
type DoseResponseService struct {
	foods    ports.FoodEventReader
	symptoms ports.SymptomReader
	logger   *internal.Logger
}

// NewDoseResponseService creates a dose-response service
func NewDoseResponseService(repo ports.EventRepository, logger *internal.Logger) *DoseResponseService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DoseResponseService{
		foods:    repo,
		symptoms: repo,
		logger:   logger.With("dose-response"),
	}
}

// ComputeDoseResponse regresses severity on portion. Fewer than five points
// yield an insufficient result with a zero fit.
func ComputeDoseResponse(points []analysis.DosePoint) analysis.DoseResponseResult {
	n := len(points)
	if n < MinDoseSampleSize {
		return analysis.DoseResponseResult{
			Confidence: analysis.DoseConfidenceInsufficient,
			SampleSize: n,
			Message:    fmt.Sprintf("Insufficient data: minimum %d events required (found %d)", MinDoseSampleSize, n),
		}
	}

	xy := make([]regression.Point, n)
	for i, p := range points {
		xy[i] = regression.Point{X: float64(p.Portion), Y: float64(p.Severity)}
	}
	fit := regression.CalculateLinearRegression(xy)

	conf := doseConfidence(fit.R2)
	return analysis.DoseResponseResult{
		Slope:      fit.Slope,
		Intercept:  fit.Intercept,
		R2:         fit.R2,
		Confidence: conf,
		SampleSize: n,
		Message:    doseMessage(fit, conf, n),
	}
}

func doseConfidence(r2 float64) analysis.DoseConfidence {
	switch {
	case r2 >= HighDoseR2:
		return analysis.DoseConfidenceHigh
	case r2 >= MediumDoseR2:
		return analysis.DoseConfidenceMedium
	default:
		return analysis.DoseConfidenceLow
	}
}

func doseMessage(fit analysis.Regression, conf analysis.DoseConfidence, n int) string {
	// the fit is already rounded to 4 dp, so only a truly flat line is neutral
	direction := "portion size shows no clear effect on symptom severity"
	switch {
	case fit.Slope > 0:
		direction = "larger portions correlate with more severe symptoms"
	case fit.Slope < 0:
		direction = "larger portions correlate with less severe symptoms"
	}
	return fmt.Sprintf("Dose response: %s (slope %.4f per portion step, R² %.2f, %s confidence, %d events)",
		direction, fit.Slope, fit.R2, conf, n)
}

// ComputeForFood pairs each logged portion of a food with the worst matching
// symptom severity in the following 48 hours. Meals with no portion recorded
// or no symptom in the window contribute no point.
func (s *DoseResponseService) ComputeForFood(ctx context.Context, userID core.UserID, foodID core.FoodID, symptomID core.SymptomID, r core.DateRange) (*analysis.DoseResponseResult, error) {
	var (
		meals    []health.FoodEvent
		symptoms []health.SymptomInstance
	)
	// symptoms just past the range end still belong to meals inside it
	symptomRange := core.DateRange{Start: r.Start, End: r.End.Add(windows.MaxLag())}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meals, err = s.foods.ListFoodEvents(gctx, userID, r)
		return errors.Database(err, "list food events")
	})
	g.Go(func() error {
		var err error
		symptoms, err = s.symptoms.ListSymptomInstances(gctx, userID, symptomRange)
		return errors.Database(err, "list symptom instances")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := DosePoints(meals, symptoms, foodID, symptomID, windows.MaxLag())
	result := ComputeDoseResponse(points)
	result.FoodID = foodID
	result.SymptomID = symptomID
	s.logger.Debug("dose-response points=%d confidence=%s", len(points), result.Confidence)
	return &result, nil
}

// DosePoints builds (portion, severity) pairs for a food; severity is the
// maximum of matching symptoms in [meal, meal+maxLag].
func DosePoints(meals []health.FoodEvent, symptoms []health.SymptomInstance, foodID core.FoodID, symptomID core.SymptomID, maxLag time.Duration) []analysis.DosePoint {
	matching := make([]health.SymptomInstance, 0, len(symptoms))
	for _, s := range symptoms {
		if s.Matches(symptomID) {
			matching = append(matching, s)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].Timestamp.Before(matching[j].Timestamp) })

	points := make([]analysis.DosePoint, 0)
	for _, meal := range meals {
		if !meal.Contains(foodID) {
			continue
		}
		portion, ok := meal.PortionSizes[foodID]
		if !ok || !portion.Valid() {
			continue
		}
		start := meal.Timestamp.Time()
		end := start.Add(maxLag)
		i := sort.Search(len(matching), func(i int) bool { return !matching[i].Timestamp.Time().Before(start) })
		worst := 0
		for ; i < len(matching) && !matching[i].Timestamp.Time().After(end); i++ {
			if matching[i].Severity > worst {
				worst = matching[i].Severity
			}
		}
		if worst == 0 {
			continue
		}
		points = append(points, analysis.DosePoint{Portion: portion, Severity: worst})
	}
	return points
}
