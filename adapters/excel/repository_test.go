package excel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func generatedLog(t *testing.T) *health.EventLog {
	t.Helper()
	cfg := testkit.DefaultSymptomLogConfig()
	cfg.Days = 20
	log, err := testkit.NewSymptomLogGenerator(cfg).Generate()
	require.NoError(t, err)
	return log
}

func TestWorkbook_RoundTrip(t *testing.T) {
	log := generatedLog(t)
	path := filepath.Join(t.TempDir(), "events.xlsx")
	require.NoError(t, WriteWorkbook(path, log))

	repo, err := Open(path, nil)
	require.NoError(t, err)

	loaded := repo.Log()
	assert.Equal(t, log.Users, loaded.Users)
	require.Len(t, loaded.Foods, len(log.Foods))
	assert.Len(t, loaded.Triggers, len(log.Triggers))
	assert.Len(t, loaded.Medications, len(log.Medications))
	assert.Len(t, loaded.Symptoms, len(log.Symptoms))
	require.Len(t, loaded.Flares, len(log.Flares))
	assert.Len(t, loaded.FlareEvents, len(log.FlareEvents))

	for i, want := range log.Foods {
		got := loaded.Foods[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.FoodIDs, got.FoodIDs)
		assert.Equal(t, want.PortionSizes, got.PortionSizes)
		assert.Equal(t, want.Timestamp.Millis(), got.Timestamp.Millis())
	}
	for i, want := range log.Flares {
		got := loaded.Flares[i]
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.CurrentSeverity, got.CurrentSeverity)
		assert.Equal(t, want.EndDate == nil, got.EndDate == nil)
	}

	ctx := context.Background()
	user := log.Users[0]
	symptoms, err := repo.ListSymptomInstances(ctx, user, core.DateRange{})
	require.NoError(t, err)
	assert.Len(t, symptoms, len(log.Symptoms))
	assert.NoError(t, repo.Ping(ctx))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"), nil)
	assert.ErrorContains(t, err, "workbook not found")
}

func TestOpen_MissingSheetsAreEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symptoms-only.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetSymptoms))
	require.NoError(t, f.SetSheetRow(SheetSymptoms, "A1", &[]interface{}{"id", "user_id", "timestamp", "symptom_id", "name", "severity"}))
	require.NoError(t, f.SetSheetRow(SheetSymptoms, "A2", &[]interface{}{"s1", "u1", "2024-03-01 09:30", "headache", "Headache", 6}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	repo, err := Open(path, nil)
	require.NoError(t, err)

	got, err := repo.ListSymptomInstances(context.Background(), "u1", core.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].Severity)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).UnixMilli(), got[0].Timestamp.Millis())

	meals, err := repo.ListFoodEvents(context.Background(), "u1", core.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestOpen_ReportsBadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetSymptoms))
	require.NoError(t, f.SetSheetRow(SheetSymptoms, "A1", &[]interface{}{"id", "user_id", "timestamp", "symptom_id", "name", "severity"}))
	require.NoError(t, f.SetSheetRow(SheetSymptoms, "A2", &[]interface{}{"s1", "u1", "2024-03-01", "headache", "", 11}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Open(path, nil)
	assert.ErrorContains(t, err, "sheet symptoms row 2: severity 11 outside 1-10")
}

func TestParsePortions(t *testing.T) {
	got, err := parsePortions("dairy=large; coffee=1")
	require.NoError(t, err)
	assert.Equal(t, map[core.FoodID]health.Portion{"dairy": health.PortionLarge, "coffee": health.PortionSmall}, got)

	empty, err := parsePortions("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parsePortions("dairy=huge")
	assert.Error(t, err)
}
