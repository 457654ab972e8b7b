package correlation

import (
	"testing"
	"time"

	"flarewise/adapters/stats/windows"
	"flarewise/domain/analysis"
	"flarewise/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(h float64) time.Time {
	return epoch.Add(time.Duration(h * float64(time.Hour)))
}

func hours(hs ...float64) []time.Time {
	out := make([]time.Time, len(hs))
	for i, h := range hs {
		out[i] = at(h)
	}
	return out
}

func scoreFor(t *testing.T, r Result, label string) analysis.WindowScore {
	t.Helper()
	for _, ws := range r.WindowScores {
		if ws.Window == label {
			return ws
		}
	}
	t.Fatalf("window %s not in result", label)
	return analysis.WindowScore{}
}

// Exposures at 0h, 24h, 48h; outcomes at 6h and 30h. The 48h exposure has no
// outcome after it, so a 0-12h window scores 2 of 3.
func TestCompute_ExampleScenario(t *testing.T) {
	exposures := hours(0, 24, 48)
	outcomes := hours(6, 30)

	wide := windows.Window{Label: "0-12h", Start: 0, End: 12 * time.Hour}
	c := NewComputer(Config{MinSampleSize: 3, Windows: []windows.Window{wide}})

	r := c.Compute(exposures, outcomes, core.DateRange{})

	require.Len(t, r.WindowScores, 1)
	ws := r.WindowScores[0]
	require.NotNil(t, ws.Score)
	assert.InDelta(t, 2.0/3.0, *ws.Score, 1e-9)
	assert.Equal(t, 3, ws.SampleSize)
	assert.Equal(t, 2, ws.Hits)
	require.NotNil(t, r.BestWindow)
	assert.Equal(t, "0-12h", r.BestWindow.Window)
	assert.Equal(t, analysis.StatusComputed, r.Status())
}

func TestCompute_DefaultCatalogOnExample(t *testing.T) {
	r := NewComputer(DefaultConfig()).Compute(hours(0, 24, 48), hours(6, 30), core.DateRange{})

	require.Len(t, r.WindowScores, len(windows.WindowSet))
	assert.InDelta(t, 2.0/3.0, scoreFor(t, r, "2-6h").ScoreValue(), 1e-9)
	assert.InDelta(t, 2.0/3.0, scoreFor(t, r, "6-12h").ScoreValue(), 1e-9)
	assert.InDelta(t, 0.0, scoreFor(t, r, "12-24h").ScoreValue(), 1e-9)
	assert.InDelta(t, 1.0/3.0, scoreFor(t, r, "24-48h").ScoreValue(), 1e-9)

	// 2-6h and 6-12h tie; the narrower window wins
	require.NotNil(t, r.BestWindow)
	assert.Equal(t, "2-6h", r.BestWindow.Window)
}

func TestCompute_ZeroExposures(t *testing.T) {
	r := NewComputer(DefaultConfig()).Compute(nil, hours(1, 2, 3), core.DateRange{})

	assert.Equal(t, 0, r.SampleSize)
	assert.Nil(t, r.BestWindow)
	assert.Equal(t, analysis.StatusInsufficient, r.Status())
	for _, ws := range r.WindowScores {
		assert.Nil(t, ws.Score, ws.Window)
		assert.Equal(t, 0, ws.SampleSize)
		assert.Equal(t, 1.0, ws.PValue)
	}
}

func TestCompute_BelowMinimumSampleIsIndeterminate(t *testing.T) {
	r := NewComputer(DefaultConfig()).Compute(hours(0, 24), hours(1, 25), core.DateRange{})

	assert.Nil(t, r.BestWindow)
	assert.Equal(t, analysis.StatusInsufficient, r.Status())
	// scores are still reported so the UI can show them
	assert.InDelta(t, 1.0, scoreFor(t, r, "0-2h").ScoreValue(), 1e-9)
}

func TestCompute_NoCorrelationIsComputedNotInsufficient(t *testing.T) {
	r := NewComputer(DefaultConfig()).Compute(hours(0, 100, 200, 300), nil, core.DateRange{})

	require.NotNil(t, r.BestWindow)
	assert.Equal(t, 0.0, r.BestWindow.ScoreValue())
	assert.Equal(t, "0-2h", r.BestWindow.Window)
	assert.Equal(t, analysis.StatusComputed, r.Status())
}

func TestCompute_Deterministic(t *testing.T) {
	exposures := hours(0, 10, 30, 55, 80, 81, 120)
	outcomes := hours(3, 14, 33, 60, 84, 150)
	c := NewComputer(DefaultConfig())

	first := c.Compute(exposures, outcomes, core.DateRange{})
	for i := 0; i < 5; i++ {
		again := c.Compute(exposures, outcomes, core.DateRange{})
		assert.Equal(t, first, again)
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	outcomes := hours(30, 6)
	NewComputer(DefaultConfig()).Compute(hours(0, 24, 48), outcomes, core.DateRange{})
	assert.Equal(t, at(30), outcomes[0])
}

func TestCountHits_InclusiveBounds(t *testing.T) {
	w := windows.Window{Label: "2-6h", Start: 2 * time.Hour, End: 6 * time.Hour}
	assert.Equal(t, 1, CountHits(hours(0), hours(2), w))
	assert.Equal(t, 1, CountHits(hours(0), hours(6), w))
	assert.Equal(t, 0, CountHits(hours(0), hours(6.01), w))
	assert.Equal(t, 0, CountHits(hours(0), hours(1.99), w))
}

func TestCountHits_OutcomeCountsForEachExposure(t *testing.T) {
	w := windows.Window{Label: "0-12h", Start: 0, End: 12 * time.Hour}
	assert.Equal(t, 3, CountHits(hours(0, 2, 4), hours(8), w))
}

func TestBinomialPValue_Monotonic(t *testing.T) {
	const baseline = 0.2

	// more hits at fixed n -> lower p
	prev := BinomialPValue(0, 20, baseline)
	for hits := 1; hits <= 20; hits++ {
		p := BinomialPValue(hits, 20, baseline)
		assert.LessOrEqual(t, p, prev, "hits=%d", hits)
		prev = p
	}

	// same above-baseline rate over more samples -> lower p
	assert.Less(t, BinomialPValue(20, 30, baseline), BinomialPValue(2, 3, baseline))
	assert.Less(t, BinomialPValue(8, 12, baseline), BinomialPValue(4, 6, baseline))
}

func TestBinomialPValue_Degenerate(t *testing.T) {
	assert.Equal(t, 1.0, BinomialPValue(0, 10, 0.3))
	assert.Equal(t, 1.0, BinomialPValue(3, 0, 0.3))
	assert.InDelta(t, 0.001, BinomialPValue(3, 3, 0.1), 1e-9)
}

func TestBaselineRate(t *testing.T) {
	observed := core.DateRange{Start: at(0), End: at(100)}
	w := windows.Window{Label: "0-10h", Start: 0, End: 10 * time.Hour}

	// two overlapping cover intervals [40,50] and [45,55] -> 15h of 100h
	assert.InDelta(t, 0.15, BaselineRate(hours(50, 55), w, observed), 1e-9)

	// clipped at the start of the range: [-5,5] -> 5h
	assert.InDelta(t, 0.05, BaselineRate(hours(5), w, observed), 1e-9)

	// clamped
	assert.Equal(t, minBaseline, BaselineRate(nil, w, observed))
	assert.Equal(t, 0.5, BaselineRate(hours(5), w, core.DateRange{Start: at(1), End: at(1)}))
}

func TestSelectBestWindow(t *testing.T) {
	score := func(v float64) *float64 { return &v }
	scores := []analysis.WindowScore{
		{Window: "0-2h", Score: score(0.5), SampleSize: 2},
		{Window: "2-6h", Score: score(0.4), SampleSize: 5},
		{Window: "6-12h", Score: score(0.4), SampleSize: 5},
		{Window: "12-24h", Score: nil, SampleSize: 0},
	}

	best := SelectBestWindow(scores, windows.WindowSet, 3)
	require.NotNil(t, best)
	assert.Equal(t, "2-6h", best.Window)

	assert.Nil(t, SelectBestWindow(scores, windows.WindowSet, 10))
}
