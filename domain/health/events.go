package health

import (
	"time"

	"flarewise/domain/core"
)

// Portion is the ordinal portion size of a logged food
type Portion int

const (
	PortionSmall  Portion = 1
	PortionMedium Portion = 2
	PortionLarge  Portion = 3
)

// ParsePortion maps a logged portion label to its ordinal
func ParsePortion(label string) (Portion, bool) {
	switch label {
	case "small", "Small", "S":
		return PortionSmall, true
	case "medium", "Medium", "M":
		return PortionMedium, true
	case "large", "Large", "L":
		return PortionLarge, true
	}
	return 0, false
}

// Valid reports whether the portion is one of the three ordinals
func (p Portion) Valid() bool {
	return p >= PortionSmall && p <= PortionLarge
}

// FoodEvent is one logged meal; a meal may contain several foods
type FoodEvent struct {
	ID           core.ID                 `json:"id" db:"id"`
	UserID       core.UserID             `json:"userId" db:"user_id"`
	Timestamp    core.Timestamp          `json:"timestamp" db:"timestamp"`
	FoodIDs      []core.FoodID           `json:"foodIds" db:"-"`
	PortionSizes map[core.FoodID]Portion `json:"portionSizes,omitempty" db:"-"`
	MealType     string                  `json:"mealType,omitempty" db:"meal_type"`
}

// Contains reports whether the meal includes the given food
func (e FoodEvent) Contains(id core.FoodID) bool {
	for _, f := range e.FoodIDs {
		if f == id {
			return true
		}
	}
	return false
}

// TriggerEvent is a logged non-food trigger (stress, weather, sleep...)
type TriggerEvent struct {
	ID        core.ID        `json:"id" db:"id"`
	UserID    core.UserID    `json:"userId" db:"user_id"`
	Timestamp core.Timestamp `json:"timestamp" db:"timestamp"`
	TriggerID core.TriggerID `json:"triggerId" db:"trigger_id"`
	Intensity int            `json:"intensity,omitempty" db:"intensity"`
}

// MedicationEvent is a logged medication dose
type MedicationEvent struct {
	ID           core.ID           `json:"id" db:"id"`
	UserID       core.UserID       `json:"userId" db:"user_id"`
	Timestamp    core.Timestamp    `json:"timestamp" db:"timestamp"`
	MedicationID core.MedicationID `json:"medicationId" db:"medication_id"`
	Taken        bool              `json:"taken" db:"taken"`
}

// SymptomInstance is a logged symptom occurrence with a 1-10 severity
type SymptomInstance struct {
	ID        core.ID        `json:"id" db:"id"`
	UserID    core.UserID    `json:"userId" db:"user_id"`
	Timestamp core.Timestamp `json:"timestamp" db:"timestamp"`
	SymptomID core.SymptomID `json:"symptomId" db:"symptom_id"`
	Name      string         `json:"name" db:"name"`
	Severity  int            `json:"severity" db:"severity"`
}

// Matches reports whether the instance refers to the symptom by id or name
func (s SymptomInstance) Matches(symptom core.SymptomID) bool {
	return s.SymptomID == symptom || (s.Name != "" && s.Name == string(symptom))
}

// FlareStatus is the cached lifecycle state of a flare
type FlareStatus string

const (
	FlareStatusActive    FlareStatus = "active"
	FlareStatusImproving FlareStatus = "improving"
	FlareStatusWorsening FlareStatus = "worsening"
	FlareStatusResolved  FlareStatus = "resolved"
)

// Valid reports whether s is a known status
func (s FlareStatus) Valid() bool {
	switch s {
	case FlareStatusActive, FlareStatusImproving, FlareStatusWorsening, FlareStatusResolved:
		return true
	}
	return false
}

// FlareRecord is a tracked period of elevated activity in a body region.
// CurrentSeverity and Status are cached from the latest FlareEvent.
type FlareRecord struct {
	ID              core.FlareID   `json:"id" db:"id"`
	UserID          core.UserID    `json:"userId" db:"user_id"`
	BodyRegionID    string         `json:"bodyRegionId" db:"body_region_id"`
	InitialSeverity int            `json:"initialSeverity" db:"initial_severity"`
	CurrentSeverity int            `json:"currentSeverity" db:"current_severity"`
	StartDate       core.Timestamp `json:"startDate" db:"start_date"`
	EndDate         *time.Time     `json:"endDate,omitempty" db:"end_date"`
	Status          FlareStatus    `json:"status" db:"status"`
}

// FlareEventType enumerates append-only flare history entries
type FlareEventType string

const (
	FlareEventCreated        FlareEventType = "created"
	FlareEventSeverityUpdate FlareEventType = "severity_update"
	FlareEventTrendChange    FlareEventType = "trend_change"
	FlareEventIntervention   FlareEventType = "intervention"
	FlareEventResolved       FlareEventType = "resolved"
)

// Valid reports whether t is a known event type
func (t FlareEventType) Valid() bool {
	switch t {
	case FlareEventCreated, FlareEventSeverityUpdate, FlareEventTrendChange,
		FlareEventIntervention, FlareEventResolved:
		return true
	}
	return false
}

// FlareEvent is one append-only history record of a flare
type FlareEvent struct {
	ID        core.ID        `json:"id" db:"id"`
	FlareID   core.FlareID   `json:"flareId" db:"flare_id"`
	UserID    core.UserID    `json:"userId" db:"user_id"`
	Timestamp core.Timestamp `json:"timestamp" db:"timestamp"`
	EventType FlareEventType `json:"eventType" db:"event_type"`
	Severity  *int           `json:"severity,omitempty" db:"severity"`
	Notes     string         `json:"notes,omitempty" db:"notes"`
}

// PeakSeverity returns the highest severity a flare reached: the max over its
// initial and current severities and any severity-carrying history events.
// With no history the initial severity is used.
func PeakSeverity(flare FlareRecord, history []FlareEvent) int {
	if len(history) == 0 {
		return flare.InitialSeverity
	}
	peak := flare.InitialSeverity
	if flare.CurrentSeverity > peak {
		peak = flare.CurrentSeverity
	}
	for _, ev := range history {
		if ev.FlareID != flare.ID || ev.Severity == nil {
			continue
		}
		if *ev.Severity > peak {
			peak = *ev.Severity
		}
	}
	return peak
}
