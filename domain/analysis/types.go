package analysis

import (
	"fmt"

	"flarewise/domain/core"
	"flarewise/domain/health"
)

// ============================================================================
// CLOSED ENUMERATIONS
// ============================================================================

// Confidence is the coarse trust tier of a correlation
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders tiers for comparisons: high > medium > low
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Valid reports whether c is a known tier
func (c Confidence) Valid() bool {
	return c.Rank() > 0
}

// Ptr returns a pointer to a copy of c
func (c Confidence) Ptr() *Confidence {
	return &c
}

// DoseConfidence extends Confidence with an explicit insufficient-data state
type DoseConfidence string

const (
	DoseConfidenceInsufficient DoseConfidence = "insufficient"
	DoseConfidenceLow          DoseConfidence = "low"
	DoseConfidenceMedium       DoseConfidence = "medium"
	DoseConfidenceHigh         DoseConfidence = "high"
)

// Valid reports whether c is a known dose-response confidence
func (c DoseConfidence) Valid() bool {
	switch c {
	case DoseConfidenceInsufficient, DoseConfidenceLow, DoseConfidenceMedium, DoseConfidenceHigh:
		return true
	}
	return false
}

// TrendDirection names the health outcome of a flare-frequency trend.
// TrendDeclining means flare frequency is rising, i.e. health is declining.
type TrendDirection string

const (
	TrendImproving        TrendDirection = "improving"
	TrendStable           TrendDirection = "stable"
	TrendDeclining        TrendDirection = "declining"
	TrendInsufficientData TrendDirection = "insufficient-data"
)

// Valid reports whether d is a known direction
func (d TrendDirection) Valid() bool {
	switch d {
	case TrendImproving, TrendStable, TrendDeclining, TrendInsufficientData:
		return true
	}
	return false
}

// CorrelationStatus distinguishes "computed" from "not enough data"
type CorrelationStatus string

const (
	StatusComputed     CorrelationStatus = "computed"
	StatusInsufficient CorrelationStatus = "insufficient"
)

// PatternType is the exposure-outcome family of a detected pattern
type PatternType string

const (
	PatternFoodSymptom       PatternType = "food-symptom"
	PatternTriggerSymptom    PatternType = "trigger-symptom"
	PatternMedicationSymptom PatternType = "medication-symptom"
)

// PatternTypeFor maps an exposure kind to its pattern family
func PatternTypeFor(kind health.TimelineKind) (PatternType, error) {
	switch kind {
	case health.KindFood:
		return PatternFoodSymptom, nil
	case health.KindTrigger:
		return PatternTriggerSymptom, nil
	case health.KindMedication:
		return PatternMedicationSymptom, nil
	case health.KindSymptom:
		return "", fmt.Errorf("%w: symptom is not an exposure kind", core.ErrInvalidInput)
	}
	return "", fmt.Errorf("%w: unknown timeline kind %q", core.ErrInvalidInput, kind)
}

// ============================================================================
// REGRESSION
// ============================================================================

// Regression is a least-squares fit; values are rounded to 4 decimal places
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// ============================================================================
// CORRELATION
// ============================================================================

// WindowScore is the consistency score of one lag window
type WindowScore struct {
	Window     string   `json:"window"`
	Score      *float64 `json:"score"` // nil when there were no exposures
	SampleSize int      `json:"sampleSize"`
	Hits       int      `json:"hits"`
	PValue     float64  `json:"pValue"`
}

// ScoreValue returns the score, or 0 when undefined
func (w WindowScore) ScoreValue() float64 {
	if w.Score == nil {
		return 0
	}
	return *w.Score
}

// CorrelationResult is the lagged correlation of one exposure with one symptom
type CorrelationResult struct {
	FoodID       core.FoodID       `json:"foodId,omitempty"`
	TriggerID    core.TriggerID    `json:"triggerId,omitempty"`
	SymptomID    core.SymptomID    `json:"symptomId"`
	WindowScores []WindowScore     `json:"windowScores"`
	BestWindow   *WindowScore      `json:"bestWindow,omitempty"`
	SampleSize   int               `json:"sampleSize"`
	Confidence   *Confidence       `json:"confidence"`
	Status       CorrelationStatus `json:"status"`
	ComputedAt   core.Timestamp    `json:"computedAt"`
}

// BestScore returns the best window score, or 0 when indeterminate
func (r CorrelationResult) BestScore() float64 {
	if r.BestWindow == nil {
		return 0
	}
	return r.BestWindow.ScoreValue()
}

// CombinationResult is the joint correlation of a pair of foods eaten together
type CombinationResult struct {
	FoodIDs                []core.FoodID  `json:"foodIds"`
	SymptomID              core.SymptomID `json:"symptomId"`
	CombinationCorrelation float64        `json:"combinationCorrelation"`
	IndividualMax          float64        `json:"individualMax"`
	Synergistic            bool           `json:"synergistic"`
	PValue                 float64        `json:"pValue"`
	Confidence             *Confidence    `json:"confidence"`
	SampleSize             int            `json:"sampleSize"`
	BestWindow             string         `json:"bestWindow,omitempty"`
}

// CombinationMetadata summarizes a combination analysis
type CombinationMetadata struct {
	TotalPairs           int            `json:"totalPairs"`
	CombinationsDetected int            `json:"combinationsDetected"`
	MinSampleSize        int            `json:"minSampleSize"`
	Range                core.DateRange `json:"range"`
	ComputedAt           core.Timestamp `json:"computedAt"`
}

// CombinationAnalysis is the response of a full correlation sweep for a symptom
type CombinationAnalysis struct {
	Correlations []CorrelationResult `json:"correlations"`
	Combinations []CombinationResult `json:"combinations"`
	Metadata     CombinationMetadata `json:"metadata"`
}

// ============================================================================
// DOSE RESPONSE
// ============================================================================

// DosePoint pairs a portion ordinal with the resulting symptom severity
type DosePoint struct {
	Portion  health.Portion `json:"portion"`
	Severity int            `json:"severity"`
}

// DoseResponseResult is the portion-to-severity regression
type DoseResponseResult struct {
	FoodID     core.FoodID    `json:"foodId,omitempty"`
	SymptomID  core.SymptomID `json:"symptomId,omitempty"`
	Slope      float64        `json:"slope"`
	Intercept  float64        `json:"intercept"`
	R2         float64        `json:"r2"`
	Confidence DoseConfidence `json:"confidence"`
	SampleSize int            `json:"sampleSize"`
	Message    string         `json:"message"`
}

// ============================================================================
// MONTHLY TREND
// ============================================================================

// TrendDataPoint is one calendar month (UTC) of flare activity
type TrendDataPoint struct {
	Month           string         `json:"month"` // YYYY-MM
	MonthTimestamp  core.Timestamp `json:"monthTimestamp"`
	FlareCount      int            `json:"flareCount"`
	AverageSeverity *float64       `json:"averageSeverity"`
	PeakSeverity    *int           `json:"peakSeverity"`
}

// TrendAnalysis is the monthly flare series with its fitted line
type TrendAnalysis struct {
	DataPoints     []TrendDataPoint `json:"dataPoints"`
	TrendLine      Regression       `json:"trendLine"`
	TrendDirection TrendDirection   `json:"trendDirection"`
	TimeRange      string           `json:"timeRange"`
	Range          core.DateRange   `json:"range"`
}

// ============================================================================
// DETECTED PATTERNS
// ============================================================================

// PatternOccurrence is one exposure→symptom pair backing a pattern
type PatternOccurrence struct {
	Event1    health.TimelineEvent `json:"event1"`
	Event2    health.TimelineEvent `json:"event2"`
	Timestamp core.Timestamp       `json:"timestamp"`
}

// DetectedPattern is a recurring exposure→symptom relationship for highlighting.
// len(Occurrences) == Frequency.
type DetectedPattern struct {
	ID            core.ID             `json:"id"`
	Type          PatternType         `json:"type"`
	Description   string              `json:"description"`
	Frequency     int                 `json:"frequency"`
	Confidence    Confidence          `json:"confidence"`
	Occurrences   []PatternOccurrence `json:"occurrences"`
	CorrelationID string              `json:"correlationId"`
	Coefficient   float64             `json:"coefficient"`
	LagHours      float64             `json:"lagHours"`
	Window        string              `json:"window"`
}

// LatestOccurrence returns the most recent occurrence timestamp
func (p DetectedPattern) LatestOccurrence() core.Timestamp {
	var latest core.Timestamp
	for _, o := range p.Occurrences {
		if o.Timestamp.After(latest) {
			latest = o.Timestamp
		}
	}
	return latest
}
