package ports

import (
	"context"

	"flarewise/domain/core"
	"flarewise/domain/health"
)

// FoodEventReader lists a user's logged meals
type FoodEventReader interface {
	// ListFoodEvents returns meals with Timestamp within r (inclusive), oldest first
	ListFoodEvents(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.FoodEvent, error)
}

// TriggerEventReader lists a user's logged non-food triggers
type TriggerEventReader interface {
	ListTriggerEvents(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.TriggerEvent, error)
}

// MedicationEventReader lists a user's logged medication doses
type MedicationEventReader interface {
	ListMedicationEvents(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.MedicationEvent, error)
}

// SymptomReader lists a user's symptom instances
type SymptomReader interface {
	ListSymptomInstances(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.SymptomInstance, error)
}

// FlareReader reads flare records and their append-only history
type FlareReader interface {
	// ListFlares returns flares whose StartDate falls within r, regardless of status
	ListFlares(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.FlareRecord, error)
	// ListFlareEvents returns the full history of the given flares
	ListFlareEvents(ctx context.Context, userID core.UserID, flareIDs []core.FlareID) ([]health.FlareEvent, error)
}

// EventRepository is the read side the analysis services depend on.
// Every query is scoped to a single user.
type EventRepository interface {
	FoodEventReader
	TriggerEventReader
	MedicationEventReader
	SymptomReader
	FlareReader
}

// HealthChecker is implemented by repositories that can report liveness
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventWriter persists events. Writes of an id that already exists are
// ignored, except flare history which is append-only.
type EventWriter interface {
	SaveFoodEvent(ctx context.Context, ev health.FoodEvent) error
	SaveTriggerEvent(ctx context.Context, ev health.TriggerEvent) error
	SaveMedicationEvent(ctx context.Context, ev health.MedicationEvent) error
	SaveSymptomInstance(ctx context.Context, s health.SymptomInstance) error
	SaveFlare(ctx context.Context, f health.FlareRecord) error
	SaveFlareEvent(ctx context.Context, ev health.FlareEvent) error
}
