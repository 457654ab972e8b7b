package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"flarewise/domain/core"
	"flarewise/domain/health"
)

// PlantedEffect makes an exposure provoke a symptom after a lag drawn
// uniformly from [MinLag, MaxLag] with the given probability
type PlantedEffect struct {
	ExposureKind health.TimelineKind `json:"exposure_kind"`
	ExposureID   string              `json:"exposure_id"`
	SymptomID    core.SymptomID      `json:"symptom_id"`
	Probability  float64             `json:"probability"`
	MinLag       time.Duration       `json:"min_lag"`
	MaxLag       time.Duration       `json:"max_lag"`
	// DoseScaled raises severity with portion size for food effects
	DoseScaled bool `json:"dose_scaled"`
}

// SymptomLogConfig configures the symptom-log generator
type SymptomLogConfig struct {
	UserCount          int                 `json:"user_count"`
	StartDate          time.Time           `json:"start_date"`
	Days               int                 `json:"days"`
	MealsPerDay        int                 `json:"meals_per_day"`
	Foods              []core.FoodID       `json:"foods"`
	Triggers           []core.TriggerID    `json:"triggers"`
	Medications        []core.MedicationID `json:"medications"`
	TriggerRate        float64             `json:"trigger_rate"`
	BackgroundSymptoms float64             `json:"background_symptoms"`
	FlaresPerMonth     float64             `json:"flares_per_month"`
	Effects            []PlantedEffect     `json:"effects"`
	Seed               int64               `json:"seed"`
}

// DefaultSymptomLogConfig plants dairy→bloating (2-6h, dose-scaled) and
// stress→headache (12-24h) over 180 days for one user
func DefaultSymptomLogConfig() SymptomLogConfig {
	return SymptomLogConfig{
		UserCount:          1,
		StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:               180,
		MealsPerDay:        3,
		Foods:              []core.FoodID{"dairy", "gluten", "coffee", "rice", "eggs", "tomato"},
		Triggers:           []core.TriggerID{"stress", "poor-sleep", "weather"},
		Medications:        []core.MedicationID{"antihistamine"},
		TriggerRate:        0.3,
		BackgroundSymptoms: 0.15,
		FlaresPerMonth:     2,
		Effects: []PlantedEffect{
			{ExposureKind: health.KindFood, ExposureID: "dairy", SymptomID: "bloating", Probability: 0.8, MinLag: 2 * time.Hour, MaxLag: 6 * time.Hour, DoseScaled: true},
			{ExposureKind: health.KindTrigger, ExposureID: "stress", SymptomID: "headache", Probability: 0.7, MinLag: 12 * time.Hour, MaxLag: 24 * time.Hour},
		},
		Seed: 42,
	}
}

// SymptomLogGenerator produces reproducible health logs; the same seed
// yields the same log
type SymptomLogGenerator struct {
	config SymptomLogConfig
	rng    *rand.Rand
	seq    int
}

// NewSymptomLogGenerator creates a generator
func NewSymptomLogGenerator(config SymptomLogConfig) *SymptomLogGenerator {
	return &SymptomLogGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the full log for every configured user
func (g *SymptomLogGenerator) Generate() (*health.EventLog, error) {
	if g.config.Days <= 0 || g.config.UserCount <= 0 {
		return nil, fmt.Errorf("days and user count must be positive")
	}
	if len(g.config.Foods) == 0 {
		return nil, fmt.Errorf("at least one food is required")
	}

	out := &health.EventLog{}
	for u := 0; u < g.config.UserCount; u++ {
		userID := core.UserID(fmt.Sprintf("user_%03d", u+1))
		out.Users = append(out.Users, userID)
		g.generateUser(userID, out)
	}
	return out, nil
}

func (g *SymptomLogGenerator) generateUser(userID core.UserID, out *health.EventLog) {
	mealHours := []int{8, 13, 19}
	for d := 0; d < g.config.Days; d++ {
		day := g.config.StartDate.AddDate(0, 0, d)

		for m := 0; m < g.config.MealsPerDay && m < len(mealHours); m++ {
			at := day.Add(time.Duration(mealHours[m])*time.Hour + time.Duration(g.rng.Intn(60))*time.Minute)
			meal := g.meal(userID, at)
			out.Foods = append(out.Foods, meal)
			for _, food := range meal.FoodIDs {
				g.provoke(userID, health.KindFood, string(food), at, meal.PortionSizes[food], out)
			}
		}

		if len(g.config.Triggers) > 0 && g.rng.Float64() < g.config.TriggerRate {
			at := day.Add(time.Duration(9+g.rng.Intn(10)) * time.Hour)
			trigger := g.config.Triggers[g.rng.Intn(len(g.config.Triggers))]
			out.Triggers = append(out.Triggers, health.TriggerEvent{
				ID:        g.nextID("trg"),
				UserID:    userID,
				Timestamp: core.NewTimestamp(at),
				TriggerID: trigger,
				Intensity: 1 + g.rng.Intn(5),
			})
			g.provoke(userID, health.KindTrigger, string(trigger), at, 0, out)
		}

		for _, med := range g.config.Medications {
			out.Medications = append(out.Medications, health.MedicationEvent{
				ID:           g.nextID("med"),
				UserID:       userID,
				Timestamp:    core.NewTimestamp(day.Add(7 * time.Hour)),
				MedicationID: med,
				Taken:        g.rng.Float64() < 0.9,
			})
		}

		if g.rng.Float64() < g.config.BackgroundSymptoms {
			out.Symptoms = append(out.Symptoms, g.symptom(userID, "fatigue", day.Add(time.Duration(g.rng.Intn(24))*time.Hour), 2+g.rng.Intn(4)))
		}
	}

	g.generateFlares(userID, out)
}

func (g *SymptomLogGenerator) meal(userID core.UserID, at time.Time) health.FoodEvent {
	count := 1 + g.rng.Intn(3)
	perm := g.rng.Perm(len(g.config.Foods))
	if count > len(perm) {
		count = len(perm)
	}
	ev := health.FoodEvent{
		ID:           g.nextID("meal"),
		UserID:       userID,
		Timestamp:    core.NewTimestamp(at),
		PortionSizes: make(map[core.FoodID]health.Portion, count),
		MealType:     mealType(at.Hour()),
	}
	for _, i := range perm[:count] {
		food := g.config.Foods[i]
		ev.FoodIDs = append(ev.FoodIDs, food)
		ev.PortionSizes[food] = health.Portion(1 + g.rng.Intn(3))
	}
	return ev
}

// provoke emits the symptoms planted for an exposure
func (g *SymptomLogGenerator) provoke(userID core.UserID, kind health.TimelineKind, exposure string, at time.Time, portion health.Portion, out *health.EventLog) {
	for _, eff := range g.config.Effects {
		if eff.ExposureKind != kind || eff.ExposureID != exposure {
			continue
		}
		if g.rng.Float64() >= eff.Probability {
			continue
		}
		span := eff.MaxLag - eff.MinLag
		lag := eff.MinLag
		if span > 0 {
			lag += time.Duration(g.rng.Int63n(int64(span)))
		}
		severity := 3 + g.rng.Intn(3)
		if eff.DoseScaled && portion.Valid() {
			severity = 1 + 3*int(portion) + g.rng.Intn(2)
		}
		out.Symptoms = append(out.Symptoms, g.symptom(userID, eff.SymptomID, at.Add(lag), severity))
	}
}

func (g *SymptomLogGenerator) symptom(userID core.UserID, id core.SymptomID, at time.Time, severity int) health.SymptomInstance {
	if severity > 10 {
		severity = 10
	}
	return health.SymptomInstance{
		ID:        g.nextID("sym"),
		UserID:    userID,
		Timestamp: core.NewTimestamp(at),
		SymptomID: id,
		Name:      string(id),
		Severity:  severity,
	}
}

func (g *SymptomLogGenerator) generateFlares(userID core.UserID, out *health.EventLog) {
	months := int(math.Ceil(float64(g.config.Days) / 30))
	regions := []string{"left-hand", "right-knee", "lower-back"}
	end := g.config.StartDate.AddDate(0, 0, g.config.Days)

	for m := 0; m < months; m++ {
		count := int(math.Round(g.config.FlaresPerMonth + g.rng.NormFloat64()*0.5))
		for i := 0; i < count; i++ {
			start := g.config.StartDate.AddDate(0, 0, m*30+g.rng.Intn(30))
			if !start.Before(end) {
				continue
			}
			initial := 3 + g.rng.Intn(4)
			flare := health.FlareRecord{
				ID:              core.FlareID(g.nextID("flare")),
				UserID:          userID,
				BodyRegionID:    regions[g.rng.Intn(len(regions))],
				InitialSeverity: initial,
				CurrentSeverity: initial,
				StartDate:       core.NewTimestamp(start),
				Status:          health.FlareStatusActive,
			}
			out.FlareEvents = append(out.FlareEvents, health.FlareEvent{
				ID: g.nextID("fev"), FlareID: flare.ID, UserID: userID,
				Timestamp: flare.StartDate, EventType: health.FlareEventCreated, Severity: intPtr(initial),
			})

			peak := initial + g.rng.Intn(3)
			out.FlareEvents = append(out.FlareEvents, health.FlareEvent{
				ID: g.nextID("fev"), FlareID: flare.ID, UserID: userID,
				Timestamp: core.NewTimestamp(start.Add(24 * time.Hour)), EventType: health.FlareEventSeverityUpdate, Severity: intPtr(peak),
			})

			if g.rng.Float64() < 0.7 {
				resolved := start.Add(time.Duration(3+g.rng.Intn(7)) * 24 * time.Hour)
				flare.EndDate = &resolved
				flare.Status = health.FlareStatusResolved
				flare.CurrentSeverity = 1
				out.FlareEvents = append(out.FlareEvents, health.FlareEvent{
					ID: g.nextID("fev"), FlareID: flare.ID, UserID: userID,
					Timestamp: core.NewTimestamp(resolved), EventType: health.FlareEventResolved, Severity: intPtr(1),
				})
			} else {
				flare.CurrentSeverity = peak
			}
			out.Flares = append(out.Flares, flare)
		}
	}
}

func (g *SymptomLogGenerator) nextID(prefix string) core.ID {
	g.seq++
	return core.ID(fmt.Sprintf("%s_%06d", prefix, g.seq))
}

func mealType(hour int) string {
	switch {
	case hour < 11:
		return "breakfast"
	case hour < 16:
		return "lunch"
	default:
		return "dinner"
	}
}

func intPtr(v int) *int { return &v }
