package confidence

import (
	"testing"

	"flarewise/domain/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineConfidence_Table(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		score  float64
		pValue float64
		want   *analysis.Confidence
	}{
		{"below minimum", 2, 1.0, 0.0001, nil},
		{"zero samples", 0, 0, 1, nil},
		{"high", 10, 0.6, 0.049, analysis.ConfidenceHigh.Ptr()},
		{"high large n", 40, 0.9, 0.001, analysis.ConfidenceHigh.Ptr()},
		{"medium small n", 9, 0.9, 0.01, analysis.ConfidenceMedium.Ptr()},
		{"medium weak score", 20, 0.59, 0.01, analysis.ConfidenceMedium.Ptr()},
		{"low at p threshold", 20, 0.9, 0.05, analysis.ConfidenceLow.Ptr()},
		{"low not significant", 3, 0.1, 0.8, analysis.ConfidenceLow.Ptr()},
		{"minimum sample low", 3, 1.0, 0.2, analysis.ConfidenceLow.Ptr()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineConfidence(tt.n, tt.score, tt.pValue)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

// Raising n and score at a fixed significant p-value never lowers the tier.
func TestDetermineConfidence_Monotonic(t *testing.T) {
	const p = 0.01
	scores := []float64{0, 0.2, 0.4, 0.59, 0.6, 0.8, 1}

	for n := MinSampleSize; n < 30; n++ {
		for i, s := range scores {
			current := OrLow(DetermineConfidence(n, s, p)).Rank()

			nextN := OrLow(DetermineConfidence(n+1, s, p)).Rank()
			assert.GreaterOrEqual(t, nextN, current, "n=%d score=%.2f", n, s)

			if i+1 < len(scores) {
				nextScore := OrLow(DetermineConfidence(n, scores[i+1], p)).Rank()
				assert.GreaterOrEqual(t, nextScore, current, "n=%d score=%.2f", n, s)
			}
		}
	}
}

func TestOrLow(t *testing.T) {
	assert.Equal(t, analysis.ConfidenceLow, OrLow(nil))
	assert.Equal(t, analysis.ConfidenceHigh, OrLow(analysis.ConfidenceHigh.Ptr()))
}
