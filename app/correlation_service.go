package app

import (
	"context"
	"sort"
	"time"

	"flarewise/adapters/stats/confidence"
	"flarewise/adapters/stats/correlation"
	"flarewise/domain/analysis"
	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal"
	"flarewise/internal/errors"
	"flarewise/ports"

	"golang.org/x/sync/errgroup"
)

const (
	// SynergyEpsilon is the margin a joint score must clear over the best
	// individual score before a combination counts as synergistic
	SynergyEpsilon = 0.05
	// scoreTolerance absorbs float error in differences of hit ratios
	scoreTolerance = 1e-9
	// MaxCombinationFoods bounds pair enumeration to the most frequently
	// logged foods in range; at most 300 pairs are scored.
	MaxCombinationFoods = 25
)

// CorrelationRequest asks for the correlation of one exposure with one symptom.
// Exactly one of FoodID and TriggerID is set.
type CorrelationRequest struct {
	UserID    core.UserID
	FoodID    core.FoodID
	TriggerID core.TriggerID
	SymptomID core.SymptomID
	Range     core.DateRange
}

// Options tunes a correlation sweep
type Options struct {
	// MinSampleSize overrides the minimum exposures for a best window; 0 keeps the default
	MinSampleSize int
}

// CorrelationService coordinates window scoring and confidence across the
// exposure/symptom pairs of one user
type CorrelationService struct {
	foods    ports.FoodEventReader
	triggers ports.TriggerEventReader
	symptoms ports.SymptomReader
	computer *correlation.Computer
	logger   *internal.Logger
	now      func() time.Time
}

// NewCorrelationService creates a correlation service
func NewCorrelationService(repo ports.EventRepository, computer *correlation.Computer, logger *internal.Logger) *CorrelationService {
	if computer == nil {
		computer = correlation.NewComputer(correlation.DefaultConfig())
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CorrelationService{
		foods:    repo,
		triggers: repo,
		symptoms: repo,
		computer: computer,
		logger:   logger.With("correlation"),
		now:      time.Now,
	}
}

// ComputeCorrelation scores a single food or trigger against a symptom
func (s *CorrelationService) ComputeCorrelation(ctx context.Context, req CorrelationRequest) (*analysis.CorrelationResult, error) {
	if (req.FoodID == "") == (req.TriggerID == "") {
		return nil, errors.ValidationError("exactly one of foodId and triggerId is required")
	}

	var exposures, outcomes []time.Time
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outcomes, err = s.outcomeTimes(gctx, req.UserID, req.SymptomID, req.Range)
		return err
	})
	g.Go(func() error {
		if req.FoodID != "" {
			events, err := s.foods.ListFoodEvents(gctx, req.UserID, req.Range)
			if err != nil {
				return errors.Database(err, "list food events")
			}
			exposures = foodExposureTimes(events)[req.FoodID]
			return nil
		}
		events, err := s.triggers.ListTriggerEvents(gctx, req.UserID, req.Range)
		if err != nil {
			return errors.Database(err, "list trigger events")
		}
		exposures = triggerExposureTimes(events)[req.TriggerID]
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := s.buildResult(s.computer, exposures, outcomes, req.SymptomID, req.Range)
	result.FoodID = req.FoodID
	result.TriggerID = req.TriggerID
	s.logger.Debug("pair scored exposures=%d outcomes=%d status=%s", len(exposures), len(outcomes), result.Status)
	return &result, nil
}

// ComputeWithCombinations scores every food and trigger logged in range
// against the symptom, then scores co-eaten food pairs for synergy.
func (s *CorrelationService) ComputeWithCombinations(ctx context.Context, userID core.UserID, symptomID core.SymptomID, r core.DateRange, opts Options) (*analysis.CombinationAnalysis, error) {
	started := time.Now()
	computer := s.computerFor(opts)

	var (
		meals    []health.FoodEvent
		triggers []health.TriggerEvent
		outcomes []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meals, err = s.foods.ListFoodEvents(gctx, userID, r)
		return errors.Database(err, "list food events")
	})
	g.Go(func() error {
		var err error
		triggers, err = s.triggers.ListTriggerEvents(gctx, userID, r)
		return errors.Database(err, "list trigger events")
	})
	g.Go(func() error {
		var err error
		outcomes, err = s.outcomeTimes(gctx, userID, symptomID, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	foodTimes := foodExposureTimes(meals)
	triggerTimes := triggerExposureTimes(triggers)

	correlations := make([]analysis.CorrelationResult, 0, len(foodTimes)+len(triggerTimes))
	individual := make(map[core.FoodID]float64, len(foodTimes))
	for _, food := range sortedKeys(foodTimes) {
		res := s.buildResult(computer, foodTimes[food], outcomes, symptomID, r)
		res.FoodID = food
		individual[food] = res.BestScore()
		correlations = append(correlations, res)
	}
	for _, trigger := range sortedKeys(triggerTimes) {
		res := s.buildResult(computer, triggerTimes[trigger], outcomes, symptomID, r)
		res.TriggerID = trigger
		correlations = append(correlations, res)
	}
	sortCorrelations(correlations)

	combinations := s.scoreCombinations(computer, meals, foodTimes, individual, outcomes, symptomID, r)

	s.logger.Info("sweep done exposures=%d combinations=%d outcomes=%d took=%s",
		len(correlations), len(combinations), len(outcomes), time.Since(started))

	return &analysis.CombinationAnalysis{
		Correlations: correlations,
		Combinations: combinations,
		Metadata: analysis.CombinationMetadata{
			TotalPairs:           len(correlations),
			CombinationsDetected: len(combinations),
			MinSampleSize:        computer.MinSampleSize(),
			Range:                r,
			ComputedAt:           core.NewTimestamp(s.now()),
		},
	}, nil
}

func (s *CorrelationService) computerFor(opts Options) *correlation.Computer {
	if opts.MinSampleSize <= 0 || opts.MinSampleSize == s.computer.MinSampleSize() {
		return s.computer
	}
	return correlation.NewComputer(correlation.Config{
		MinSampleSize: opts.MinSampleSize,
		Windows:       s.computer.Windows(),
	})
}

func (s *CorrelationService) outcomeTimes(ctx context.Context, userID core.UserID, symptomID core.SymptomID, r core.DateRange) ([]time.Time, error) {
	instances, err := s.symptoms.ListSymptomInstances(ctx, userID, r)
	if err != nil {
		return nil, errors.Database(err, "list symptom instances")
	}
	out := make([]time.Time, 0, len(instances))
	for _, inst := range instances {
		if inst.Matches(symptomID) {
			out = append(out, inst.Timestamp.Time())
		}
	}
	return out, nil
}

func (s *CorrelationService) buildResult(computer *correlation.Computer, exposures, outcomes []time.Time, symptomID core.SymptomID, r core.DateRange) analysis.CorrelationResult {
	res := computer.Compute(exposures, outcomes, r)
	out := analysis.CorrelationResult{
		SymptomID:    symptomID,
		WindowScores: res.WindowScores,
		BestWindow:   res.BestWindow,
		SampleSize:   res.SampleSize,
		Status:       res.Status(),
		ComputedAt:   core.NewTimestamp(s.now()),
	}
	if res.BestWindow != nil {
		out.Confidence = confidence.DetermineConfidence(res.BestWindow.SampleSize, res.BestWindow.ScoreValue(), res.BestWindow.PValue)
	}
	return out
}

// scoreCombinations scores food pairs logged in the same meal. The joint
// exposure is every meal containing both foods.
func (s *CorrelationService) scoreCombinations(
	computer *correlation.Computer,
	meals []health.FoodEvent,
	foodTimes map[core.FoodID][]time.Time,
	individual map[core.FoodID]float64,
	outcomes []time.Time,
	symptomID core.SymptomID,
	r core.DateRange,
) []analysis.CombinationResult {
	candidates := mostFrequent(foodTimes, MaxCombinationFoods)
	allowed := make(map[core.FoodID]bool, len(candidates))
	for _, f := range candidates {
		allowed[f] = true
	}

	type pair struct{ a, b core.FoodID }
	joint := make(map[pair][]time.Time)
	for _, meal := range meals {
		foods := distinctFoods(meal.FoodIDs, allowed)
		for i := 0; i < len(foods); i++ {
			for j := i + 1; j < len(foods); j++ {
				p := pair{foods[i], foods[j]}
				joint[p] = append(joint[p], meal.Timestamp.Time())
			}
		}
	}

	pairs := make([]pair, 0, len(joint))
	for p, times := range joint {
		if len(times) >= computer.MinSampleSize() {
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	out := make([]analysis.CombinationResult, 0, len(pairs))
	for _, p := range pairs {
		res := computer.Compute(joint[p], outcomes, r)
		if res.BestWindow == nil {
			continue
		}
		best := res.BestWindow
		score := best.ScoreValue()
		indMax := individual[p.a]
		if individual[p.b] > indMax {
			indMax = individual[p.b]
		}
		out = append(out, analysis.CombinationResult{
			FoodIDs:                []core.FoodID{p.a, p.b},
			SymptomID:              symptomID,
			CombinationCorrelation: score,
			IndividualMax:          indMax,
			Synergistic:            IsSynergistic(score, indMax, res.SampleSize, computer.MinSampleSize()),
			PValue:                 best.PValue,
			Confidence:             confidence.DetermineConfidence(res.SampleSize, score, best.PValue),
			SampleSize:             res.SampleSize,
			BestWindow:             best.Window,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Synergistic != out[j].Synergistic {
			return out[i].Synergistic
		}
		return out[i].CombinationCorrelation-out[i].IndividualMax > out[j].CombinationCorrelation-out[j].IndividualMax
	})
	return out
}

// IsSynergistic reports whether a joint score materially exceeds the best
// individual score with enough joint exposures. A gain of exactly
// SynergyEpsilon is not synergy.
func IsSynergistic(joint, individualMax float64, sampleSize, minSampleSize int) bool {
	return sampleSize >= minSampleSize && joint-individualMax > SynergyEpsilon+scoreTolerance
}

func foodExposureTimes(meals []health.FoodEvent) map[core.FoodID][]time.Time {
	out := make(map[core.FoodID][]time.Time)
	for _, meal := range meals {
		for _, food := range distinctFoods(meal.FoodIDs, nil) {
			out[food] = append(out[food], meal.Timestamp.Time())
		}
	}
	return out
}

func triggerExposureTimes(events []health.TriggerEvent) map[core.TriggerID][]time.Time {
	out := make(map[core.TriggerID][]time.Time)
	for _, ev := range events {
		out[ev.TriggerID] = append(out[ev.TriggerID], ev.Timestamp.Time())
	}
	return out
}

// distinctFoods dedups and sorts a meal's foods, keeping only allowed ones
// when allowed is non-nil
func distinctFoods(ids []core.FoodID, allowed map[core.FoodID]bool) []core.FoodID {
	seen := make(map[core.FoodID]bool, len(ids))
	out := make([]core.FoodID, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] || (allowed != nil && !allowed[id]) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func mostFrequent(foodTimes map[core.FoodID][]time.Time, limit int) []core.FoodID {
	foods := sortedKeys(foodTimes)
	sort.SliceStable(foods, func(i, j int) bool {
		return len(foodTimes[foods[i]]) > len(foodTimes[foods[j]])
	})
	if len(foods) > limit {
		foods = foods[:limit]
	}
	return foods
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// sortCorrelations puts computed results first, strongest best window first
func sortCorrelations(results []analysis.CorrelationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.BestWindow != nil) != (b.BestWindow != nil) {
			return a.BestWindow != nil
		}
		return a.BestScore() > b.BestScore()
	})
}
