// Package correlation scores how consistently an exposure is followed by an
// outcome inside each lag window.
//
// For a window [Start, End] the consistency score is hits/n where n is the
// number of exposures and a hit is an exposure with at least one outcome in
// [t+Start, t+End]. An outcome may satisfy several exposures; each exposure
// counts once (per-exposure recall, not per-outcome attribution).
package correlation

import (
	"math"
	"sort"
	"time"

	"flarewise/adapters/stats/windows"
	"flarewise/domain/analysis"
	"flarewise/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultMinSampleSize is the exposures a window needs to be eligible as best
	DefaultMinSampleSize = 3
	// tieEpsilon treats scores this close as equal when picking the best window
	tieEpsilon = 1e-9
	// baseline hit rates are clamped so the binomial test stays informative
	minBaseline = 0.01
	maxBaseline = 0.99
)

// Config controls a Computer
type Config struct {
	MinSampleSize int
	Windows       []windows.Window
}

// DefaultConfig uses the fixed window catalog and a minimum sample of 3
func DefaultConfig() Config {
	return Config{
		MinSampleSize: DefaultMinSampleSize,
		Windows:       windows.All(),
	}
}

// Result is the per-window breakdown for one exposure/outcome pair
type Result struct {
	WindowScores []analysis.WindowScore
	BestWindow   *analysis.WindowScore
	SampleSize   int
}

// Status reports whether a best window could be determined
func (r Result) Status() analysis.CorrelationStatus {
	if r.BestWindow == nil {
		return analysis.StatusInsufficient
	}
	return analysis.StatusComputed
}

// Computer computes windowed consistency scores. It holds no mutable state
// and is safe for concurrent use.
type Computer struct {
	cfg Config
}

// NewComputer creates a computer; zero-valued config fields take defaults
func NewComputer(cfg Config) *Computer {
	if cfg.MinSampleSize <= 0 {
		cfg.MinSampleSize = DefaultMinSampleSize
	}
	if len(cfg.Windows) == 0 {
		cfg.Windows = windows.All()
	}
	return &Computer{cfg: cfg}
}

// MinSampleSize returns the configured eligibility threshold
func (c *Computer) MinSampleSize() int {
	return c.cfg.MinSampleSize
}

// Windows returns the windows this computer scores
func (c *Computer) Windows() []windows.Window {
	return c.cfg.Windows
}

// Compute scores every configured window. observed is the range the events
// were drawn from and sets the random-baseline hit rate; a zero range falls
// back to the span of the events themselves.
func (c *Computer) Compute(exposures, outcomes []time.Time, observed core.DateRange) Result {
	sortedOutcomes := sortedCopy(outcomes)
	if observed.IsZero() {
		observed = span(exposures, sortedOutcomes)
	}

	scores := make([]analysis.WindowScore, 0, len(c.cfg.Windows))
	for _, w := range c.cfg.Windows {
		scores = append(scores, c.scoreSorted(exposures, sortedOutcomes, w, observed))
	}

	return Result{
		WindowScores: scores,
		BestWindow:   SelectBestWindow(scores, c.cfg.Windows, c.cfg.MinSampleSize),
		SampleSize:   len(exposures),
	}
}

// ScoreWindow scores a single window
func (c *Computer) ScoreWindow(exposures, outcomes []time.Time, w windows.Window, observed core.DateRange) analysis.WindowScore {
	sortedOutcomes := sortedCopy(outcomes)
	if observed.IsZero() {
		observed = span(exposures, sortedOutcomes)
	}
	return c.scoreSorted(exposures, sortedOutcomes, w, observed)
}

func (c *Computer) scoreSorted(exposures, sortedOutcomes []time.Time, w windows.Window, observed core.DateRange) analysis.WindowScore {
	ws := analysis.WindowScore{
		Window:     w.Label,
		SampleSize: len(exposures),
		PValue:     1,
	}
	if len(exposures) == 0 {
		return ws
	}

	hits := CountHits(exposures, sortedOutcomes, w)
	score := float64(hits) / float64(len(exposures))
	ws.Score = &score
	ws.Hits = hits
	ws.PValue = BinomialPValue(hits, len(exposures), BaselineRate(sortedOutcomes, w, observed))
	return ws
}

// CountHits counts exposures followed by an outcome inside w.
// sortedOutcomes must be ascending.
func CountHits(exposures, sortedOutcomes []time.Time, w windows.Window) int {
	hits := 0
	for _, t := range exposures {
		lo := t.Add(w.Start)
		hi := t.Add(w.End)
		i := sort.Search(len(sortedOutcomes), func(i int) bool {
			return !sortedOutcomes[i].Before(lo)
		})
		if i < len(sortedOutcomes) && !sortedOutcomes[i].After(hi) {
			hits++
		}
	}
	return hits
}

// BaselineRate is the probability that an exposure placed uniformly at random
// in observed would be followed by an outcome inside w: the covered fraction
// of the union of [o-End, o-Start] over outcomes o.
func BaselineRate(sortedOutcomes []time.Time, w windows.Window, observed core.DateRange) float64 {
	total := observed.Duration()
	if total <= 0 {
		return 0.5
	}
	if len(sortedOutcomes) == 0 {
		return minBaseline
	}

	var covered time.Duration
	var curStart, curEnd time.Time
	open := false
	flush := func() {
		if !open {
			return
		}
		s, e := clip(curStart, curEnd, observed)
		if e.After(s) {
			covered += e.Sub(s)
		}
	}

	for _, o := range sortedOutcomes {
		s := o.Add(-w.End)
		e := o.Add(-w.Start)
		if open && !s.After(curEnd) {
			if e.After(curEnd) {
				curEnd = e
			}
			continue
		}
		flush()
		curStart, curEnd, open = s, e, true
	}
	flush()

	rate := float64(covered) / float64(total)
	return math.Min(maxBaseline, math.Max(minBaseline, rate))
}

// BinomialPValue is the one-sided exact binomial tail P(X >= hits) for
// X ~ Binomial(n, baseline). More hits at fixed n, or the same above-baseline
// rate over more samples, gives a smaller value.
func BinomialPValue(hits, n int, baseline float64) float64 {
	if n <= 0 || hits <= 0 {
		return 1
	}
	if hits > n {
		hits = n
	}
	dist := distuv.Binomial{N: float64(n), P: baseline}
	p := dist.Survival(float64(hits - 1))
	if math.IsNaN(p) {
		return 1
	}
	return math.Min(1, math.Max(0, p))
}

// SelectBestWindow picks the highest-scoring window with at least minSample
// exposures; ties go to the narrower, then earlier, window. Returns nil when
// no window is eligible.
func SelectBestWindow(scores []analysis.WindowScore, catalog []windows.Window, minSample int) *analysis.WindowScore {
	widths := make(map[string]windows.Window, len(catalog))
	for _, w := range catalog {
		widths[w.Label] = w
	}

	bestIdx := -1
	for i, s := range scores {
		if s.Score == nil || s.SampleSize < minSample {
			continue
		}
		if bestIdx < 0 {
			bestIdx = i
			continue
		}
		best := scores[bestIdx]
		diff := *s.Score - *best.Score
		switch {
		case diff > tieEpsilon:
			bestIdx = i
		case diff >= -tieEpsilon && preferShorter(widths[s.Window], widths[best.Window]):
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return nil
	}
	best := scores[bestIdx]
	return &best
}

func preferShorter(candidate, current windows.Window) bool {
	if candidate.Width() != current.Width() {
		return candidate.Width() < current.Width()
	}
	return candidate.Start < current.Start
}

func sortedCopy(ts []time.Time) []time.Time {
	out := make([]time.Time, len(ts))
	copy(out, ts)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func span(exposures, sortedOutcomes []time.Time) core.DateRange {
	var r core.DateRange
	first := true
	extend := func(t time.Time) {
		if first {
			r.Start, r.End, first = t, t, false
			return
		}
		if t.Before(r.Start) {
			r.Start = t
		}
		if t.After(r.End) {
			r.End = t
		}
	}
	for _, t := range exposures {
		extend(t)
	}
	for _, t := range sortedOutcomes {
		extend(t)
	}
	return r
}

func clip(s, e time.Time, r core.DateRange) (time.Time, time.Time) {
	if s.Before(r.Start) {
		s = r.Start
	}
	if e.After(r.End) {
		e = r.End
	}
	return s, e
}
