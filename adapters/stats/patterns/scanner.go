// Package patterns finds recurring exposure→symptom pairs on a merged
// timeline for timeline highlighting. The scan is pure: identical input
// always yields identical, identically ordered output.
package patterns

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"flarewise/adapters/stats/confidence"
	"flarewise/adapters/stats/correlation"
	"flarewise/adapters/stats/windows"
	"flarewise/domain/analysis"
	"flarewise/domain/core"
	"flarewise/domain/health"

	"github.com/montanaflynn/stats"
)

const (
	DefaultMaxLag       = 48 * time.Hour
	DefaultMinFrequency = 3
)

// Config controls a Scanner
type Config struct {
	MaxLag       time.Duration
	MinFrequency int
	Windows      []windows.Window
}

// DefaultConfig scans up to 48h with a minimum frequency of 3
func DefaultConfig() Config {
	return Config{
		MaxLag:       DefaultMaxLag,
		MinFrequency: DefaultMinFrequency,
		Windows:      windows.All(),
	}
}

// HintKey identifies an exposure/symptom pair for correlation hints
type HintKey struct {
	Kind       health.TimelineKind
	ExposureID string
	SymptomID  string
}

// CorrelationHint carries a correlation computed elsewhere for a pair, used
// in place of the scanner's own frequency-based coefficient.
type CorrelationHint struct {
	CorrelationID string
	Coefficient   float64
	PValue        float64
}

// Scanner detects recurring pairs
type Scanner struct {
	cfg Config
}

// NewScanner creates a scanner; zero-valued config fields take defaults
func NewScanner(cfg Config) *Scanner {
	if cfg.MaxLag <= 0 {
		cfg.MaxLag = DefaultMaxLag
	}
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = DefaultMinFrequency
	}
	if len(cfg.Windows) == 0 {
		cfg.Windows = windows.All()
	}
	return &Scanner{cfg: cfg}
}

type groupKey struct {
	kind      health.TimelineKind
	exposure  string
	symptom   string
	windowIdx int
}

func (k groupKey) String(label string) string {
	return strings.Join([]string{string(k.kind), k.exposure, k.symptom, label}, "|")
}

type exposureKey struct {
	kind    health.TimelineKind
	subject string
}

// Detect scans a chronologically ordered timeline (see health.BuildTimeline).
// Each exposure is paired with the nearest following instance of every
// symptom within MaxLag; pairs are grouped by exposure, symptom and lag
// window, and groups seen at least MinFrequency times become patterns.
func (s *Scanner) Detect(timeline []health.TimelineEvent, hints map[HintKey]CorrelationHint) []analysis.DetectedPattern {
	if len(timeline) == 0 {
		return []analysis.DetectedPattern{}
	}

	symptomsBySubject := make(map[string][]health.TimelineEvent)
	exposureCounts := make(map[exposureKey]int)
	for _, ev := range timeline {
		switch {
		case ev.Kind == health.KindSymptom:
			symptomsBySubject[ev.SubjectID] = append(symptomsBySubject[ev.SubjectID], ev)
		case ev.Kind.IsExposure():
			exposureCounts[exposureKey{ev.Kind, ev.SubjectID}]++
		}
	}
	for _, list := range symptomsBySubject {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	}
	symptomIDs := make([]string, 0, len(symptomsBySubject))
	for id := range symptomsBySubject {
		symptomIDs = append(symptomIDs, id)
	}
	sort.Strings(symptomIDs)

	groups := make(map[groupKey][]analysis.PatternOccurrence)
	for _, ev := range timeline {
		if !ev.Kind.IsExposure() {
			continue
		}
		for _, sid := range symptomIDs {
			next, ok := nextAfter(symptomsBySubject[sid], ev.Timestamp.Time())
			if !ok {
				continue
			}
			lag := next.Timestamp.Time().Sub(ev.Timestamp.Time())
			if lag > s.cfg.MaxLag {
				continue
			}
			idx := s.windowFor(lag)
			if idx < 0 {
				continue
			}
			key := groupKey{kind: ev.Kind, exposure: ev.SubjectID, symptom: sid, windowIdx: idx}
			groups[key] = append(groups[key], analysis.PatternOccurrence{
				Event1:    ev,
				Event2:    next,
				Timestamp: next.Timestamp,
			})
		}
	}

	observed := timelineSpan(timeline)
	patterns := make([]analysis.DetectedPattern, 0)
	for key, occ := range groups {
		if len(occ) < s.cfg.MinFrequency {
			continue
		}
		p, err := s.buildPattern(key, occ, exposureCounts[exposureKey{key.kind, key.exposure}], symptomsBySubject[key.symptom], observed, hints)
		if err != nil {
			continue
		}
		patterns = append(patterns, p)
	}

	Rank(patterns)
	return patterns
}

func (s *Scanner) buildPattern(
	key groupKey,
	occ []analysis.PatternOccurrence,
	exposureCount int,
	symptoms []health.TimelineEvent,
	observed core.DateRange,
	hints map[HintKey]CorrelationHint,
) (analysis.DetectedPattern, error) {
	w := s.cfg.Windows[key.windowIdx]
	ptype, err := analysis.PatternTypeFor(key.kind)
	if err != nil {
		return analysis.DetectedPattern{}, err
	}

	frequency := len(occ)
	lags := make([]float64, len(occ))
	for i, o := range occ {
		lags[i] = o.Event2.Timestamp.Time().Sub(o.Event1.Timestamp.Time()).Hours()
	}
	meanLag, _ := stats.Mean(lags)
	meanLag, _ = stats.Round(meanLag, 1)

	coefficient := 0.0
	if exposureCount > 0 {
		coefficient = float64(frequency) / float64(exposureCount)
	}
	symptomTimes := make([]time.Time, len(symptoms))
	for i, sev := range symptoms {
		symptomTimes[i] = sev.Timestamp.Time()
	}
	pValue := correlation.BinomialPValue(frequency, exposureCount, correlation.BaselineRate(symptomTimes, w, observed))

	correlationID := ""
	if hint, ok := hints[HintKey{Kind: key.kind, ExposureID: key.exposure, SymptomID: key.symptom}]; ok {
		coefficient = hint.Coefficient
		pValue = hint.PValue
		correlationID = hint.CorrelationID
	}
	coefficient, _ = stats.Round(coefficient, 4)

	sort.SliceStable(occ, func(i, j int) bool { return occ[i].Timestamp.Before(occ[j].Timestamp) })

	return analysis.DetectedPattern{
		ID:            core.DeterministicID(key.String(w.Label)),
		Type:          ptype,
		Description:   describe(key, w, frequency),
		Frequency:     frequency,
		Confidence:    confidence.OrLow(confidence.DetermineConfidence(frequency, coefficient, pValue)),
		Occurrences:   occ,
		CorrelationID: correlationID,
		Coefficient:   coefficient,
		LagHours:      meanLag,
		Window:        w.Label,
	}, nil
}

// Rank orders patterns for display: frequency desc, confidence desc, most
// recent occurrence first, then id for a total order.
func Rank(patterns []analysis.DetectedPattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		a, b := patterns[i], patterns[j]
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if a.Confidence.Rank() != b.Confidence.Rank() {
			return a.Confidence.Rank() > b.Confidence.Rank()
		}
		la, lb := a.LatestOccurrence(), b.LatestOccurrence()
		if !la.Time().Equal(lb.Time()) {
			return la.After(lb)
		}
		return a.ID < b.ID
	})
}

func (s *Scanner) windowFor(lag time.Duration) int {
	if lag <= 0 {
		return -1
	}
	for i, w := range s.cfg.Windows {
		if w.Contains(lag) {
			return i
		}
	}
	return -1
}

// nextAfter returns the first event strictly after t in an ascending list
func nextAfter(list []health.TimelineEvent, t time.Time) (health.TimelineEvent, bool) {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Timestamp.Time().After(t)
	})
	if i == len(list) {
		return health.TimelineEvent{}, false
	}
	return list[i], true
}

func timelineSpan(timeline []health.TimelineEvent) core.DateRange {
	r := core.DateRange{Start: timeline[0].Timestamp.Time(), End: timeline[0].Timestamp.Time()}
	for _, ev := range timeline[1:] {
		t := ev.Timestamp.Time()
		if t.Before(r.Start) {
			r.Start = t
		}
		if t.After(r.End) {
			r.End = t
		}
	}
	return r
}

func describe(key groupKey, w windows.Window, frequency int) string {
	return fmt.Sprintf("%s %q followed by %q within %s (%d times)",
		kindLabel(key.kind), key.exposure, key.symptom, w.Label, frequency)
}

func kindLabel(kind health.TimelineKind) string {
	switch kind {
	case health.KindFood:
		return "Food"
	case health.KindTrigger:
		return "Trigger"
	case health.KindMedication:
		return "Medication"
	case health.KindSymptom:
		return "Symptom"
	}
	return string(kind)
}
