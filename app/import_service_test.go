package app

import (
	"context"
	stderrors "errors"
	"testing"

	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventWriter struct {
	mock.Mock
}

func (m *MockEventWriter) SaveFoodEvent(ctx context.Context, ev health.FoodEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockEventWriter) SaveTriggerEvent(ctx context.Context, ev health.TriggerEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockEventWriter) SaveMedicationEvent(ctx context.Context, ev health.MedicationEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockEventWriter) SaveSymptomInstance(ctx context.Context, s health.SymptomInstance) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockEventWriter) SaveFlare(ctx context.Context, f health.FlareRecord) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockEventWriter) SaveFlareEvent(ctx context.Context, ev health.FlareEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func importFixture() *health.EventLog {
	sev := 5
	return &health.EventLog{
		Users:    []core.UserID{testUser},
		Foods:    []health.FoodEvent{meal("m1", at(0, 8), "dairy"), meal("m2", at(1, 8), "rice")},
		Symptoms: []health.SymptomInstance{symptom("s1", at(0, 11), "bloating", 6)},
		Flares: []health.FlareRecord{{
			ID: "f1", UserID: testUser, BodyRegionID: "knee", InitialSeverity: 4, CurrentSeverity: 5,
			StartDate: at(2, 9), Status: health.FlareStatusActive,
		}},
		FlareEvents: []health.FlareEvent{{
			ID: "fe1", FlareID: "f1", UserID: testUser, Timestamp: at(3, 9),
			EventType: health.FlareEventSeverityUpdate, Severity: &sev,
		}},
	}
}

func TestImport_WritesFlaresBeforeHistory(t *testing.T) {
	w := new(MockEventWriter)
	var order []string
	w.On("SaveFoodEvent", mock.Anything, mock.Anything).Return(nil)
	w.On("SaveSymptomInstance", mock.Anything, mock.Anything).Return(nil)
	w.On("SaveFlare", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) { order = append(order, "flare") })
	w.On("SaveFlareEvent", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) { order = append(order, "history") })

	stats, err := NewImportService(w, nil).Import(context.Background(), importFixture())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Foods)
	assert.Equal(t, 1, stats.Symptoms)
	assert.Equal(t, 5, stats.Total())
	assert.Equal(t, []string{"flare", "history"}, order)
	w.AssertNumberOfCalls(t, "SaveFoodEvent", 2)
	w.AssertNotCalled(t, "SaveTriggerEvent", mock.Anything, mock.Anything)
}

func TestImport_StopsOnFirstFailure(t *testing.T) {
	w := new(MockEventWriter)
	w.On("SaveFoodEvent", mock.Anything, mock.Anything).Return(stderrors.New("disk full")).Once()

	stats, err := NewImportService(w, nil).Import(context.Background(), importFixture())
	require.Error(t, err)

	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "save food event m1")
	assert.Zero(t, stats.Total())
	w.AssertNotCalled(t, "SaveFlare", mock.Anything, mock.Anything)
}
