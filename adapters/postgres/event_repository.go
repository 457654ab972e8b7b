package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flarewise/domain/core"
	"flarewise/domain/health"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// EventRepository reads and writes health events in PostgreSQL
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// foodEventRow is the storage shape of a meal: food ids in a TEXT[] and
// portions as a JSON object keyed by food id
type foodEventRow struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	Timestamp    time.Time      `db:"timestamp"`
	FoodIDs      pq.StringArray `db:"food_ids"`
	PortionSizes sql.NullString `db:"portion_sizes"`
	MealType     string         `db:"meal_type"`
}

func (row foodEventRow) toDomain() (health.FoodEvent, error) {
	ev := health.FoodEvent{
		ID:        core.ID(row.ID),
		UserID:    core.UserID(row.UserID),
		Timestamp: core.NewTimestamp(row.Timestamp),
		FoodIDs:   make([]core.FoodID, len(row.FoodIDs)),
		MealType:  row.MealType,
	}
	for i, f := range row.FoodIDs {
		ev.FoodIDs[i] = core.FoodID(f)
	}
	if row.PortionSizes.Valid && row.PortionSizes.String != "" {
		if err := json.Unmarshal([]byte(row.PortionSizes.String), &ev.PortionSizes); err != nil {
			return health.FoodEvent{}, fmt.Errorf("decode portion sizes of %s: %w", row.ID, err)
		}
	}
	return ev, nil
}

func foodEventToRow(ev health.FoodEvent) (foodEventRow, error) {
	row := foodEventRow{
		ID:        string(ev.ID),
		UserID:    string(ev.UserID),
		Timestamp: ev.Timestamp.Time(),
		FoodIDs:   make(pq.StringArray, len(ev.FoodIDs)),
		MealType:  ev.MealType,
	}
	for i, f := range ev.FoodIDs {
		row.FoodIDs[i] = string(f)
	}
	if len(ev.PortionSizes) > 0 {
		raw, err := json.Marshal(ev.PortionSizes)
		if err != nil {
			return foodEventRow{}, err
		}
		row.PortionSizes = sql.NullString{String: string(raw), Valid: true}
	}
	return row, nil
}

// ListFoodEvents returns the user's meals in range, oldest first
func (r *EventRepository) ListFoodEvents(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.FoodEvent, error) {
	var rows []foodEventRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, timestamp, food_ids, portion_sizes, meal_type
		FROM food_events
		WHERE user_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp ASC, id ASC
	`, userID, dr.Start, dr.End)
	if err != nil {
		return nil, err
	}

	events := make([]health.FoodEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// ListTriggerEvents returns the user's triggers in range, oldest first
func (r *EventRepository) ListTriggerEvents(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.TriggerEvent, error) {
	events := []health.TriggerEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, user_id, timestamp, trigger_id, intensity
		FROM trigger_events
		WHERE user_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp ASC, id ASC
	`, userID, dr.Start, dr.End)
	return events, err
}

// ListMedicationEvents returns the user's medication doses in range, oldest first
func (r *EventRepository) ListMedicationEvents(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.MedicationEvent, error) {
	events := []health.MedicationEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, user_id, timestamp, medication_id, taken
		FROM medication_events
		WHERE user_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp ASC, id ASC
	`, userID, dr.Start, dr.End)
	return events, err
}

// ListSymptomInstances returns the user's symptoms in range, oldest first
func (r *EventRepository) ListSymptomInstances(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.SymptomInstance, error) {
	instances := []health.SymptomInstance{}
	err := r.db.SelectContext(ctx, &instances, `
		SELECT id, user_id, timestamp, symptom_id, name, severity
		FROM symptom_instances
		WHERE user_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp ASC, id ASC
	`, userID, dr.Start, dr.End)
	return instances, err
}

// ListFlares returns the user's flares that started in range, active and resolved
func (r *EventRepository) ListFlares(ctx context.Context, userID core.UserID, dr core.DateRange) ([]health.FlareRecord, error) {
	flares := []health.FlareRecord{}
	err := r.db.SelectContext(ctx, &flares, `
		SELECT id, user_id, body_region_id, initial_severity, current_severity,
		       start_date, end_date, status
		FROM flares
		WHERE user_id = $1 AND start_date BETWEEN $2 AND $3
		ORDER BY start_date ASC, id ASC
	`, userID, dr.Start, dr.End)
	return flares, err
}

// ListFlareEvents returns the history of the given flares
func (r *EventRepository) ListFlareEvents(ctx context.Context, userID core.UserID, flareIDs []core.FlareID) ([]health.FlareEvent, error) {
	events := []health.FlareEvent{}
	if len(flareIDs) == 0 {
		return events, nil
	}
	ids := make([]string, len(flareIDs))
	for i, id := range flareIDs {
		ids[i] = string(id)
	}
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, flare_id, user_id, timestamp, event_type, severity, notes
		FROM flare_events
		WHERE user_id = $1 AND flare_id = ANY($2)
		ORDER BY timestamp ASC, id ASC
	`, userID, pq.Array(ids))
	return events, err
}

// SaveFoodEvent inserts a meal; an existing id is left untouched
func (r *EventRepository) SaveFoodEvent(ctx context.Context, ev health.FoodEvent) error {
	row, err := foodEventToRow(ev)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO food_events (id, user_id, timestamp, food_ids, portion_sizes, meal_type)
		VALUES (:id, :user_id, :timestamp, :food_ids, :portion_sizes, :meal_type)
		ON CONFLICT (id) DO NOTHING
	`, row)
	return err
}

// SaveTriggerEvent inserts a trigger
func (r *EventRepository) SaveTriggerEvent(ctx context.Context, ev health.TriggerEvent) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO trigger_events (id, user_id, timestamp, trigger_id, intensity)
		VALUES (:id, :user_id, :timestamp, :trigger_id, :intensity)
		ON CONFLICT (id) DO NOTHING
	`, ev)
	return err
}

// SaveMedicationEvent inserts a medication dose
func (r *EventRepository) SaveMedicationEvent(ctx context.Context, ev health.MedicationEvent) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO medication_events (id, user_id, timestamp, medication_id, taken)
		VALUES (:id, :user_id, :timestamp, :medication_id, :taken)
		ON CONFLICT (id) DO NOTHING
	`, ev)
	return err
}

// SaveSymptomInstance inserts a symptom
func (r *EventRepository) SaveSymptomInstance(ctx context.Context, s health.SymptomInstance) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO symptom_instances (id, user_id, timestamp, symptom_id, name, severity)
		VALUES (:id, :user_id, :timestamp, :symptom_id, :name, :severity)
		ON CONFLICT (id) DO NOTHING
	`, s)
	return err
}

// SaveFlare inserts a flare, or refreshes its cached severity and status
func (r *EventRepository) SaveFlare(ctx context.Context, f health.FlareRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO flares (id, user_id, body_region_id, initial_severity, current_severity, start_date, end_date, status)
		VALUES (:id, :user_id, :body_region_id, :initial_severity, :current_severity, :start_date, :end_date, :status)
		ON CONFLICT (id) DO UPDATE SET
			current_severity = EXCLUDED.current_severity,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status
	`, f)
	return err
}

// SaveFlareEvent appends a flare history record. History is append-only,
// so a duplicate id is a conflict.
func (r *EventRepository) SaveFlareEvent(ctx context.Context, ev health.FlareEvent) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO flare_events (id, flare_id, user_id, timestamp, event_type, severity, notes)
		VALUES (:id, :flare_id, :user_id, :timestamp, :event_type, :severity, :notes)
	`, ev)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return fmt.Errorf("flare event %s already recorded: %w", ev.ID, err)
	}
	return err
}

// Ping checks the connection
func (r *EventRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Stats exposes pool statistics for metrics
func (r *EventRepository) Stats() sql.DBStats {
	return r.db.Stats()
}
