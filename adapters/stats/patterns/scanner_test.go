package patterns

import (
	"fmt"
	"testing"
	"time"

	"flarewise/domain/analysis"
	"flarewise/domain/core"
	"flarewise/domain/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

func ev(id string, kind health.TimelineKind, subject string, at time.Time) health.TimelineEvent {
	return health.TimelineEvent{EventID: core.ID(id), Kind: kind, SubjectID: subject, Timestamp: core.NewTimestamp(at)}
}

// dairyTimeline: dairy every day at 08:00 followed by bloating at 12:00, and
// stress every other day at 09:00.
func dairyTimeline(days int) []health.TimelineEvent {
	var out []health.TimelineEvent
	for d := 0; d < days; d++ {
		base := day0.AddDate(0, 0, d)
		out = append(out,
			ev(fmt.Sprintf("meal-%d", d), health.KindFood, "dairy", base),
			ev(fmt.Sprintf("sym-%d", d), health.KindSymptom, "bloating", base.Add(4*time.Hour)),
		)
		if d%2 == 0 {
			out = append(out, ev(fmt.Sprintf("stress-%d", d), health.KindTrigger, "stress", base.Add(time.Hour)))
		}
	}
	return timelineOf(out)
}

func timelineOf(in []health.TimelineEvent) []health.TimelineEvent {
	var foods []health.FoodEvent
	var triggers []health.TriggerEvent
	var symptoms []health.SymptomInstance
	for _, e := range in {
		switch e.Kind {
		case health.KindFood:
			foods = append(foods, health.FoodEvent{ID: e.EventID, Timestamp: e.Timestamp, FoodIDs: []core.FoodID{core.FoodID(e.SubjectID)}})
		case health.KindTrigger:
			triggers = append(triggers, health.TriggerEvent{ID: e.EventID, Timestamp: e.Timestamp, TriggerID: core.TriggerID(e.SubjectID)})
		case health.KindSymptom:
			symptoms = append(symptoms, health.SymptomInstance{ID: e.EventID, Timestamp: e.Timestamp, SymptomID: core.SymptomID(e.SubjectID)})
		}
	}
	return health.BuildTimeline(foods, triggers, nil, symptoms)
}

func find(patterns []analysis.DetectedPattern, exposure, window string) *analysis.DetectedPattern {
	for i := range patterns {
		if len(patterns[i].Occurrences) > 0 && patterns[i].Occurrences[0].Event1.SubjectID == exposure && patterns[i].Window == window {
			return &patterns[i]
		}
	}
	return nil
}

func TestDetect_FindsRecurringFoodSymptomPair(t *testing.T) {
	patterns := NewScanner(DefaultConfig()).Detect(dairyTimeline(6), nil)

	p := find(patterns, "dairy", "2-6h")
	require.NotNil(t, p)
	assert.Equal(t, analysis.PatternFoodSymptom, p.Type)
	assert.Equal(t, 6, p.Frequency)
	assert.Len(t, p.Occurrences, p.Frequency)
	assert.Equal(t, 4.0, p.LagHours)
	assert.Equal(t, 1.0, p.Coefficient)
	assert.Contains(t, p.Description, `"dairy" followed by "bloating" within 2-6h`)
	assert.Empty(t, p.CorrelationID)
}

func TestDetect_OccurrencesMatchFrequency(t *testing.T) {
	for _, p := range NewScanner(DefaultConfig()).Detect(dairyTimeline(10), nil) {
		assert.Equal(t, p.Frequency, len(p.Occurrences), p.Description)
		assert.GreaterOrEqual(t, p.Frequency, DefaultMinFrequency)
		assert.GreaterOrEqual(t, p.Coefficient, 0.0)
		assert.LessOrEqual(t, p.Coefficient, 1.0)
	}
}

func TestDetect_BelowFrequencyThresholdDropped(t *testing.T) {
	patterns := NewScanner(DefaultConfig()).Detect(dairyTimeline(2), nil)
	assert.Empty(t, patterns)
}

func TestDetect_Idempotent(t *testing.T) {
	timeline := dairyTimeline(8)
	s := NewScanner(DefaultConfig())

	first := s.Detect(timeline, nil)
	second := s.Detect(timeline, nil)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestDetect_RankingFrequencyFirst(t *testing.T) {
	patterns := NewScanner(DefaultConfig()).Detect(dairyTimeline(8), nil)
	require.GreaterOrEqual(t, len(patterns), 2)

	for i := 1; i < len(patterns); i++ {
		assert.GreaterOrEqual(t, patterns[i-1].Frequency, patterns[i].Frequency)
	}
	assert.Equal(t, "dairy", patterns[0].Occurrences[0].Event1.SubjectID)
}

func TestDetect_UsesCorrelationHint(t *testing.T) {
	hints := map[HintKey]CorrelationHint{
		{Kind: health.KindFood, ExposureID: "dairy", SymptomID: "bloating"}: {
			CorrelationID: "corr-dairy-bloating",
			Coefficient:   0.42,
			PValue:        0.5,
		},
	}
	patterns := NewScanner(DefaultConfig()).Detect(dairyTimeline(6), hints)

	p := find(patterns, "dairy", "2-6h")
	require.NotNil(t, p)
	assert.Equal(t, "corr-dairy-bloating", p.CorrelationID)
	assert.Equal(t, 0.42, p.Coefficient)
	assert.Equal(t, analysis.ConfidenceLow, p.Confidence)
}

func TestDetect_IgnoresLagsBeyondMax(t *testing.T) {
	var events []health.TimelineEvent
	for d := 0; d < 5; d++ {
		base := day0.AddDate(0, 0, d*5)
		events = append(events,
			ev(fmt.Sprintf("f%d", d), health.KindFood, "gluten", base),
			ev(fmt.Sprintf("s%d", d), health.KindSymptom, "rash", base.Add(60*time.Hour)),
		)
	}
	patterns := NewScanner(DefaultConfig()).Detect(timelineOf(events), nil)
	assert.Empty(t, patterns)
}

func TestRank_TieBreaks(t *testing.T) {
	older := analysis.PatternOccurrence{Timestamp: core.FromMillis(1000)}
	newer := analysis.PatternOccurrence{Timestamp: core.FromMillis(9000)}
	patterns := []analysis.DetectedPattern{
		{ID: "a", Frequency: 3, Confidence: analysis.ConfidenceLow, Occurrences: []analysis.PatternOccurrence{newer}},
		{ID: "b", Frequency: 3, Confidence: analysis.ConfidenceHigh, Occurrences: []analysis.PatternOccurrence{older}},
		{ID: "c", Frequency: 3, Confidence: analysis.ConfidenceHigh, Occurrences: []analysis.PatternOccurrence{newer}},
		{ID: "d", Frequency: 5, Confidence: analysis.ConfidenceLow, Occurrences: []analysis.PatternOccurrence{older}},
	}

	Rank(patterns)

	ids := make([]core.ID, len(patterns))
	for i, p := range patterns {
		ids[i] = p.ID
	}
	assert.Equal(t, []core.ID{"d", "c", "b", "a"}, ids)
}

func TestDetect_EmptyTimeline(t *testing.T) {
	patterns := NewScanner(DefaultConfig()).Detect(nil, nil)
	assert.NotNil(t, patterns)
	assert.Empty(t, patterns)
}
