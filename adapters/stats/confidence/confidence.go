// Package confidence grades a correlation from its sample size, score and p-value.
package confidence

import "flarewise/domain/analysis"

// Decision table thresholds
const (
	// MinSampleSize is the floor below which no confidence is assigned
	MinSampleSize = 3
	// HighSampleSize is the sample size required for a high tier
	HighSampleSize = 10
	// PValueThreshold is the significance cutoff (strict less-than)
	PValueThreshold = 0.05
	// StrongScore is the consistency score required for a high tier (inclusive)
	StrongScore = 0.6
)

// DetermineConfidence classifies a correlation.
//
//	sampleSize < 3                            -> nil
//	n >= 10 && p < 0.05 && score >= 0.6       -> high
//	p < 0.05                                  -> medium
//	otherwise                                 -> low
func DetermineConfidence(sampleSize int, consistencyScore, pValue float64) *analysis.Confidence {
	if sampleSize < MinSampleSize {
		return nil
	}
	significant := pValue < PValueThreshold
	switch {
	case significant && sampleSize >= HighSampleSize && consistencyScore >= StrongScore:
		return analysis.ConfidenceHigh.Ptr()
	case significant:
		return analysis.ConfidenceMedium.Ptr()
	default:
		return analysis.ConfidenceLow.Ptr()
	}
}

// OrLow dereferences a confidence, treating nil as low
func OrLow(c *analysis.Confidence) analysis.Confidence {
	if c == nil {
		return analysis.ConfidenceLow
	}
	return *c
}
