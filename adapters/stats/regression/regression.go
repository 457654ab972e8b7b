// Package regression fits least-squares lines for the trend and
// dose-response analyses. Degenerate input never errors; it yields a
// neutral fit.
package regression

import (
	"flarewise/domain/analysis"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Precision is the number of decimal places results are rounded to
const Precision = 4

// Point is one (x, y) observation
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CalculateLinearRegression fits y = slope*x + intercept.
//
//   - empty input: all zeros
//   - one point, or all x identical: slope 0, intercept mean(y), r2 0
//   - all y identical (SStot = 0): exact horizontal fit, r2 1
func CalculateLinearRegression(points []Point) analysis.Regression {
	if len(points) == 0 {
		return analysis.Regression{}
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	meanY, _ := stats.Mean(ys)

	if len(points) == 1 || zeroVariance(xs) {
		return analysis.Regression{Intercept: round(meanY)}
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	ssTot := 0.0
	for _, y := range ys {
		d := y - meanY
		ssTot += d * d
	}

	r2 := 1.0
	if ssTot > 0 {
		r2 = stat.RSquared(xs, ys, nil, intercept, slope)
	}

	return analysis.Regression{
		Slope:     round(slope),
		Intercept: round(intercept),
		R2:        round(r2),
	}
}

func zeroVariance(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func round(v float64) float64 {
	r, err := stats.Round(v, Precision)
	if err != nil || r == 0 {
		// stats.Round only fails on NaN; also folds -0 into 0
		return 0
	}
	return r
}
