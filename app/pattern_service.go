package app

import (
	"context"
	"time"

	"flarewise/adapters/stats/correlation"
	"flarewise/adapters/stats/patterns"
	"flarewise/adapters/stats/windows"
	"flarewise/domain/analysis"
	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal"
	"flarewise/internal/errors"
	"flarewise/ports"

	"golang.org/x/sync/errgroup"
)

// PatternOptions tunes pattern detection. Zero values take the defaults:
// 48h max lag, frequency 3, hours buckets [2, 6, 12, 24, 48].
type PatternOptions struct {
	MaxLag       time.Duration
	MinFrequency int
	BucketHours  []int
	// WithCorrelations replaces the frequency-based coefficient with the
	// lagged correlation score of each exposure/symptom pair
	WithCorrelations bool
}

// PatternService detects recurring exposure→symptom pairs on a user's timeline
type PatternService struct {
	repo     ports.EventRepository
	computer *correlation.Computer
	logger   *internal.Logger
}

// NewPatternService creates a pattern service
func NewPatternService(repo ports.EventRepository, computer *correlation.Computer, logger *internal.Logger) *PatternService {
	if computer == nil {
		computer = correlation.NewComputer(correlation.DefaultConfig())
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PatternService{
		repo:     repo,
		computer: computer,
		logger:   logger.With("patterns"),
	}
}

// DetectPatterns loads every event kind in range, merges them into one
// timeline and scans it
func (s *PatternService) DetectPatterns(ctx context.Context, userID core.UserID, r core.DateRange, opts PatternOptions) ([]analysis.DetectedPattern, error) {
	cfg, err := scannerConfig(opts)
	if err != nil {
		return nil, err
	}

	var (
		foods    []health.FoodEvent
		triggers []health.TriggerEvent
		meds     []health.MedicationEvent
		symptoms []health.SymptomInstance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		foods, err = s.repo.ListFoodEvents(gctx, userID, r)
		return errors.Database(err, "list food events")
	})
	g.Go(func() error {
		var err error
		triggers, err = s.repo.ListTriggerEvents(gctx, userID, r)
		return errors.Database(err, "list trigger events")
	})
	g.Go(func() error {
		var err error
		meds, err = s.repo.ListMedicationEvents(gctx, userID, r)
		return errors.Database(err, "list medication events")
	})
	g.Go(func() error {
		var err error
		symptoms, err = s.repo.ListSymptomInstances(gctx, userID, r)
		return errors.Database(err, "list symptom instances")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timeline := health.BuildTimeline(foods, triggers, meds, symptoms)

	var hints map[patterns.HintKey]patterns.CorrelationHint
	if opts.WithCorrelations {
		hints = s.correlationHints(timeline, r)
	}

	found := patterns.NewScanner(cfg).Detect(timeline, hints)
	s.logger.Debug("patterns events=%d found=%d", len(timeline), len(found))
	return found, nil
}

// correlationHints scores every exposure/symptom pair on the timeline with
// the correlation computer. Pairs without a best window get no hint.
func (s *PatternService) correlationHints(timeline []health.TimelineEvent, r core.DateRange) map[patterns.HintKey]patterns.CorrelationHint {
	type exposure struct {
		kind    health.TimelineKind
		subject string
	}
	exposures := make(map[exposure][]time.Time)
	symptoms := make(map[string][]time.Time)
	for _, ev := range timeline {
		if ev.Kind == health.KindSymptom {
			symptoms[ev.SubjectID] = append(symptoms[ev.SubjectID], ev.Timestamp.Time())
			continue
		}
		key := exposure{ev.Kind, ev.SubjectID}
		exposures[key] = append(exposures[key], ev.Timestamp.Time())
	}

	hints := make(map[patterns.HintKey]patterns.CorrelationHint)
	for exp, times := range exposures {
		for symptom, outcomes := range symptoms {
			res := s.computer.Compute(times, outcomes, r)
			if res.BestWindow == nil {
				continue
			}
			key := patterns.HintKey{Kind: exp.kind, ExposureID: exp.subject, SymptomID: symptom}
			hints[key] = patterns.CorrelationHint{
				CorrelationID: core.DeterministicID("correlation|" + string(exp.kind) + "|" + exp.subject + "|" + symptom).String(),
				Coefficient:   res.BestWindow.ScoreValue(),
				PValue:        res.BestWindow.PValue,
			}
		}
	}
	return hints
}

func scannerConfig(opts PatternOptions) (patterns.Config, error) {
	cfg := patterns.DefaultConfig()
	if opts.MaxLag > 0 {
		cfg.MaxLag = opts.MaxLag
	}
	if opts.MinFrequency > 0 {
		cfg.MinFrequency = opts.MinFrequency
	}
	if len(opts.BucketHours) > 0 {
		ws, err := windows.FromBucketHours(opts.BucketHours)
		if err != nil {
			return patterns.Config{}, errors.WithCode(errors.CodeValidationError, err)
		}
		cfg.Windows = ws
	}
	return cfg, nil
}
