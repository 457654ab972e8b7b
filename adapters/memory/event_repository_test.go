package memory

import (
	"context"
	"testing"
	"time"

	"flarewise/domain/core"
	"flarewise/domain/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestListFoodEvents_RangeInclusiveAndSorted(t *testing.T) {
	repo := NewEventRepository()
	repo.AddFoodEvents(
		health.FoodEvent{ID: "m3", UserID: "u1", Timestamp: core.NewTimestamp(t0.Add(48 * time.Hour))},
		health.FoodEvent{ID: "m1", UserID: "u1", Timestamp: core.NewTimestamp(t0)},
		health.FoodEvent{ID: "m2", UserID: "u1", Timestamp: core.NewTimestamp(t0.Add(24 * time.Hour))},
		health.FoodEvent{ID: "other", UserID: "u2", Timestamp: core.NewTimestamp(t0)},
	)

	got, err := repo.ListFoodEvents(context.Background(), "u1", core.DateRange{Start: t0, End: t0.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.ID("m1"), got[0].ID)
	assert.Equal(t, core.ID("m2"), got[1].ID)
}

func TestListFlares_ByStartDate(t *testing.T) {
	repo := NewEventRepository()
	end := t0.Add(72 * time.Hour)
	repo.AddFlares(
		health.FlareRecord{ID: "f1", UserID: "u1", StartDate: core.NewTimestamp(t0), EndDate: &end, Status: health.FlareStatusResolved},
		health.FlareRecord{ID: "f2", UserID: "u1", StartDate: core.NewTimestamp(t0.AddDate(0, -2, 0)), Status: health.FlareStatusActive},
	)

	got, err := repo.ListFlares(context.Background(), "u1", core.DateRange{Start: t0.AddDate(0, 0, -7), End: t0.AddDate(0, 0, 7)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.FlareID("f1"), got[0].ID)
}

func TestListFlareEvents_FiltersByFlare(t *testing.T) {
	repo := NewEventRepository()
	sev := 7
	repo.AddFlareEvents(
		health.FlareEvent{ID: "e2", FlareID: "f1", UserID: "u1", Timestamp: core.NewTimestamp(t0.Add(time.Hour)), EventType: health.FlareEventSeverityUpdate, Severity: &sev},
		health.FlareEvent{ID: "e1", FlareID: "f1", UserID: "u1", Timestamp: core.NewTimestamp(t0), EventType: health.FlareEventCreated},
		health.FlareEvent{ID: "e3", FlareID: "f2", UserID: "u1", Timestamp: core.NewTimestamp(t0), EventType: health.FlareEventCreated},
		health.FlareEvent{ID: "e4", FlareID: "f1", UserID: "u2", Timestamp: core.NewTimestamp(t0), EventType: health.FlareEventCreated},
	)

	got, err := repo.ListFlareEvents(context.Background(), "u1", []core.FlareID{"f1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.ID("e1"), got[0].ID)
	assert.Equal(t, core.ID("e2"), got[1].ID)
}

func TestList_CancelledContext(t *testing.T) {
	repo := NewEventRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListSymptomInstances(ctx, "u1", core.DateRange{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Ping(ctx), context.Canceled)
}

func TestList_EmptyIsNonNil(t *testing.T) {
	repo := NewEventRepository()
	got, err := repo.ListTriggerEvents(context.Background(), "nobody", core.DateRange{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
