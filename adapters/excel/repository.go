// Package excel serves health events from an .xlsx workbook. The workbook
// is read once on Open and queried from memory afterwards.
package excel

import (
	"context"
	"fmt"
	"os"

	"flarewise/adapters/memory"
	"flarewise/domain/health"
	"flarewise/internal"
)

// EventRepository is a read-only repository backed by a workbook
type EventRepository struct {
	*memory.EventRepository
	path string
	log  *health.EventLog
}

// Open reads the workbook at path
func Open(path string, logger *internal.Logger) (*EventRepository, error) {
	log, err := NewWorkbookReader(path, logger).Read()
	if err != nil {
		return nil, fmt.Errorf("load workbook %s: %w", path, err)
	}
	repo := memory.NewEventRepository()
	repo.Load(log)
	return &EventRepository{EventRepository: repo, path: path, log: log}, nil
}

// Log returns the loaded events
func (r *EventRepository) Log() *health.EventLog {
	return r.log
}

// Ping reports whether the workbook is still on disk
func (r *EventRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(r.path)
	return err
}
