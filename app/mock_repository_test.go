package app

import (
	"context"
	"time"

	"flarewise/adapters/memory"
	"flarewise/domain/core"
	"flarewise/domain/health"

	"github.com/stretchr/testify/mock"
)

// MockEventRepository is a testify mock of ports.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) ListFoodEvents(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.FoodEvent, error) {
	args := m.Called(ctx, userID, r)
	events, _ := args.Get(0).([]health.FoodEvent)
	return events, args.Error(1)
}

func (m *MockEventRepository) ListTriggerEvents(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.TriggerEvent, error) {
	args := m.Called(ctx, userID, r)
	events, _ := args.Get(0).([]health.TriggerEvent)
	return events, args.Error(1)
}

func (m *MockEventRepository) ListMedicationEvents(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.MedicationEvent, error) {
	args := m.Called(ctx, userID, r)
	events, _ := args.Get(0).([]health.MedicationEvent)
	return events, args.Error(1)
}

func (m *MockEventRepository) ListSymptomInstances(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.SymptomInstance, error) {
	args := m.Called(ctx, userID, r)
	instances, _ := args.Get(0).([]health.SymptomInstance)
	return instances, args.Error(1)
}

func (m *MockEventRepository) ListFlares(ctx context.Context, userID core.UserID, r core.DateRange) ([]health.FlareRecord, error) {
	args := m.Called(ctx, userID, r)
	flares, _ := args.Get(0).([]health.FlareRecord)
	return flares, args.Error(1)
}

func (m *MockEventRepository) ListFlareEvents(ctx context.Context, userID core.UserID, flareIDs []core.FlareID) ([]health.FlareEvent, error) {
	args := m.Called(ctx, userID, flareIDs)
	events, _ := args.Get(0).([]health.FlareEvent)
	return events, args.Error(1)
}

// fixtures shared by the service tests

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

const testUser core.UserID = "u1"

func at(day int, hour float64) core.Timestamp {
	return core.NewTimestamp(base.AddDate(0, 0, day).Add(time.Duration(hour * float64(time.Hour))))
}

func meal(id string, ts core.Timestamp, foods ...core.FoodID) health.FoodEvent {
	return health.FoodEvent{ID: core.ID(id), UserID: testUser, Timestamp: ts, FoodIDs: foods}
}

func symptom(id string, ts core.Timestamp, symptomID core.SymptomID, severity int) health.SymptomInstance {
	return health.SymptomInstance{ID: core.ID(id), UserID: testUser, Timestamp: ts, SymptomID: symptomID, Name: string(symptomID), Severity: severity}
}

func testRange(days int) core.DateRange {
	return core.DateRange{Start: base, End: base.AddDate(0, 0, days)}
}

func newRepo() *memory.EventRepository {
	return memory.NewEventRepository()
}
