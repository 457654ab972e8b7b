package app

import (
	"context"
	"fmt"
	"time"

	"flarewise/domain/health"
	"flarewise/internal"
	"flarewise/internal/errors"
	"flarewise/ports"
)

// ImportStats counts the records written by an import
type ImportStats struct {
	Foods       int           `json:"foods"`
	Triggers    int           `json:"triggers"`
	Medications int           `json:"medications"`
	Symptoms    int           `json:"symptoms"`
	Flares      int           `json:"flares"`
	FlareEvents int           `json:"flareEvents"`
	Duration    time.Duration `json:"duration"`
}

// Total is the number of records written
func (s ImportStats) Total() int {
	return s.Foods + s.Triggers + s.Medications + s.Symptoms + s.Flares + s.FlareEvents
}

// ImportService copies an EventLog into a writable repository, e.g. to seed
// PostgreSQL from a workbook or from generated demo data
type ImportService struct {
	writer ports.EventWriter
	logger *internal.Logger
}

// NewImportService creates an import service
func NewImportService(writer ports.EventWriter, logger *internal.Logger) *ImportService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ImportService{writer: writer, logger: logger.With("import")}
}

// Import writes every record of log. Flares are written before their
// history. The first failure stops the import.
func (s *ImportService) Import(ctx context.Context, log *health.EventLog) (ImportStats, error) {
	started := time.Now()
	var stats ImportStats

	for _, ev := range log.Foods {
		if err := s.writer.SaveFoodEvent(ctx, ev); err != nil {
			return stats, errors.Database(err, "save food event %s", ev.ID)
		}
		stats.Foods++
	}
	for _, ev := range log.Triggers {
		if err := s.writer.SaveTriggerEvent(ctx, ev); err != nil {
			return stats, errors.Database(err, "save trigger event %s", ev.ID)
		}
		stats.Triggers++
	}
	for _, ev := range log.Medications {
		if err := s.writer.SaveMedicationEvent(ctx, ev); err != nil {
			return stats, errors.Database(err, "save medication event %s", ev.ID)
		}
		stats.Medications++
	}
	for _, sym := range log.Symptoms {
		if err := s.writer.SaveSymptomInstance(ctx, sym); err != nil {
			return stats, errors.Database(err, "save symptom instance %s", sym.ID)
		}
		stats.Symptoms++
	}
	for _, f := range log.Flares {
		if err := s.writer.SaveFlare(ctx, f); err != nil {
			return stats, errors.Database(err, "save flare %s", f.ID)
		}
		stats.Flares++
	}
	for _, ev := range log.FlareEvents {
		if err := s.writer.SaveFlareEvent(ctx, ev); err != nil {
			return stats, errors.Database(err, "save flare event %s", ev.ID)
		}
		stats.FlareEvents++
	}

	stats.Duration = time.Since(started)
	s.logger.Info("imported %d records in %s", stats.Total(), stats.Duration)
	return stats, nil
}

// String renders the per-kind counts
func (s ImportStats) String() string {
	return fmt.Sprintf("foods=%d triggers=%d medications=%d symptoms=%d flares=%d flareEvents=%d",
		s.Foods, s.Triggers, s.Medications, s.Symptoms, s.Flares, s.FlareEvents)
}
