// Package memory is an in-process EventRepository used for demo data, the
// CLI and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"flarewise/domain/core"
	"flarewise/domain/health"
)

// EventRepository keeps every event kind in per-user slices
type EventRepository struct {
	mu          sync.RWMutex
	foods       map[core.UserID][]health.FoodEvent
	triggers    map[core.UserID][]health.TriggerEvent
	medications map[core.UserID][]health.MedicationEvent
	symptoms    map[core.UserID][]health.SymptomInstance
	flares      map[core.UserID][]health.FlareRecord
	flareEvents map[core.UserID][]health.FlareEvent
}

// NewEventRepository creates an empty repository
func NewEventRepository() *EventRepository {
	return &EventRepository{
		foods:       make(map[core.UserID][]health.FoodEvent),
		triggers:    make(map[core.UserID][]health.TriggerEvent),
		medications: make(map[core.UserID][]health.MedicationEvent),
		symptoms:    make(map[core.UserID][]health.SymptomInstance),
		flares:      make(map[core.UserID][]health.FlareRecord),
		flareEvents: make(map[core.UserID][]health.FlareEvent),
	}
}

// AddFoodEvents stores meals under their UserID
func (r *EventRepository) AddFoodEvents(events ...health.FoodEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.foods[e.UserID] = append(r.foods[e.UserID], e)
	}
}

// AddTriggerEvents stores triggers under their UserID
func (r *EventRepository) AddTriggerEvents(events ...health.TriggerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.triggers[e.UserID] = append(r.triggers[e.UserID], e)
	}
}

// AddMedicationEvents stores medication doses under their UserID
func (r *EventRepository) AddMedicationEvents(events ...health.MedicationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.medications[e.UserID] = append(r.medications[e.UserID], e)
	}
}

// AddSymptomInstances stores symptoms under their UserID
func (r *EventRepository) AddSymptomInstances(instances ...health.SymptomInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range instances {
		r.symptoms[s.UserID] = append(r.symptoms[s.UserID], s)
	}
}

// AddFlares stores flare records under their UserID
func (r *EventRepository) AddFlares(flares ...health.FlareRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range flares {
		r.flares[f.UserID] = append(r.flares[f.UserID], f)
	}
}

// AddFlareEvents appends flare history under its UserID
func (r *EventRepository) AddFlareEvents(events ...health.FlareEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.flareEvents[e.UserID] = append(r.flareEvents[e.UserID], e)
	}
}

// Load copies every record of a log into the repository
func (r *EventRepository) Load(log *health.EventLog) {
	r.AddFoodEvents(log.Foods...)
	r.AddTriggerEvents(log.Triggers...)
	r.AddMedicationEvents(log.Medications...)
	r.AddSymptomInstances(log.Symptoms...)
	r.AddFlares(log.Flares...)
	r.AddFlareEvents(log.FlareEvents...)
}

func (r *EventRepository) ListFoodEvents(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.FoodEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return inRange(r.foods[userID], dr, func(e health.FoodEvent) core.Timestamp { return e.Timestamp }), nil
}

func (r *EventRepository) ListTriggerEvents(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.TriggerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return inRange(r.triggers[userID], dr, func(e health.TriggerEvent) core.Timestamp { return e.Timestamp }), nil
}

func (r *EventRepository) ListMedicationEvents(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.MedicationEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return inRange(r.medications[userID], dr, func(e health.MedicationEvent) core.Timestamp { return e.Timestamp }), nil
}

func (r *EventRepository) ListSymptomInstances(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.SymptomInstance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return inRange(r.symptoms[userID], dr, func(s health.SymptomInstance) core.Timestamp { return s.Timestamp }), nil
}

func (r *EventRepository) ListFlares(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.FlareRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return inRange(r.flares[userID], dr, func(f health.FlareRecord) core.Timestamp { return f.StartDate }), nil
}

func (r *EventRepository) ListFlareEvents(ctx context.Context, userID core.UserID, flareIDs []core.FlareID) ([]health.FlareEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[core.FlareID]bool, len(flareIDs))
	for _, id := range flareIDs {
		want[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]health.FlareEvent, 0)
	for _, e := range r.flareEvents[userID] {
		if want[e.FlareID] {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Ping always succeeds
func (r *EventRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// inRange copies the records whose timestamp falls in dr, oldest first.
// A zero range matches everything.
func inRange[T any](records []T, dr core.DateRange, ts func(T) core.Timestamp) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if dr.IsZero() || dr.Contains(ts(rec).Time()) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return ts(out[i]).Before(ts(out[j])) })
	return out
}
