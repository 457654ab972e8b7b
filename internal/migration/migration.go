package migration

import (
	"context"

	"flarewise/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the event tables the analysis services read.
// Every step is idempotent.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

// Steps returns the ordered migration statements
func (r *MigrationRunner) Steps() []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.name
	}
	return out
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range steps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Database(err, "failed to %s", s.name)
		}
	}
	return nil
}

var steps = []step{
	{"create food_events table", `
		CREATE TABLE IF NOT EXISTS food_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			food_ids TEXT[] NOT NULL DEFAULT '{}',
			portion_sizes JSONB,
			meal_type VARCHAR(32) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`},
	{"create trigger_events table", `
		CREATE TABLE IF NOT EXISTS trigger_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			trigger_id TEXT NOT NULL,
			intensity INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`},
	{"create medication_events table", `
		CREATE TABLE IF NOT EXISTS medication_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			medication_id TEXT NOT NULL,
			taken BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`},
	{"create symptom_instances table", `
		CREATE TABLE IF NOT EXISTS symptom_instances (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			symptom_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			severity INTEGER NOT NULL CHECK (severity BETWEEN 1 AND 10),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`},
	{"create flares table", `
		CREATE TABLE IF NOT EXISTS flares (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			body_region_id TEXT NOT NULL,
			initial_severity INTEGER NOT NULL CHECK (initial_severity BETWEEN 1 AND 10),
			current_severity INTEGER NOT NULL CHECK (current_severity BETWEEN 1 AND 10),
			start_date TIMESTAMP WITH TIME ZONE NOT NULL,
			end_date TIMESTAMP WITH TIME ZONE,
			status VARCHAR(20) NOT NULL DEFAULT 'active'
				CHECK (status IN ('active', 'improving', 'worsening', 'resolved'))
		)
	`},
	{"create flare_events table", `
		CREATE TABLE IF NOT EXISTS flare_events (
			id TEXT PRIMARY KEY,
			flare_id TEXT NOT NULL REFERENCES flares(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
			event_type VARCHAR(20) NOT NULL
				CHECK (event_type IN ('created', 'severity_update', 'trend_change', 'intervention', 'resolved')),
			severity INTEGER,
			notes TEXT NOT NULL DEFAULT ''
		)
	`},
	{"create indexes", `
		CREATE INDEX IF NOT EXISTS idx_food_events_user_time ON food_events(user_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_trigger_events_user_time ON trigger_events(user_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_medication_events_user_time ON medication_events(user_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_symptom_instances_user_time ON symptom_instances(user_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_flares_user_start ON flares(user_id, start_date);
		CREATE INDEX IF NOT EXISTS idx_flare_events_flare ON flare_events(flare_id, timestamp)
	`},
}
