package testkit

import (
	"context"
	"testing"

	"flarewise/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymptomLogGenerator_Deterministic(t *testing.T) {
	cfg := DefaultSymptomLogConfig()
	cfg.Days = 30

	a, err := NewSymptomLogGenerator(cfg).Generate()
	require.NoError(t, err)
	b, err := NewSymptomLogGenerator(cfg).Generate()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSymptomLogGenerator_Basic(t *testing.T) {
	cfg := DefaultSymptomLogConfig()
	cfg.Days = 60
	cfg.UserCount = 2

	log, err := NewSymptomLogGenerator(cfg).Generate()
	require.NoError(t, err)

	assert.Len(t, log.Users, 2)
	assert.Len(t, log.Foods, 60*3*2)
	assert.NotEmpty(t, log.Symptoms)
	assert.NotEmpty(t, log.Flares)

	for _, meal := range log.Foods {
		require.NotEmpty(t, meal.FoodIDs)
		for _, food := range meal.FoodIDs {
			assert.True(t, meal.PortionSizes[food].Valid(), "portion for %s", food)
		}
	}
	for _, s := range log.Symptoms {
		assert.GreaterOrEqual(t, s.Severity, 1)
		assert.LessOrEqual(t, s.Severity, 10)
	}
	for _, ev := range log.FlareEvents {
		assert.True(t, ev.EventType.Valid())
	}
}

func TestSymptomLogGenerator_PlantsDairyBloating(t *testing.T) {
	log, err := NewSymptomLogGenerator(DefaultSymptomLogConfig()).Generate()
	require.NoError(t, err)

	bloating := 0
	for _, s := range log.Symptoms {
		if s.SymptomID == "bloating" {
			bloating++
		}
	}
	assert.Greater(t, bloating, 50)
}

func TestSymptomLogGenerator_RejectsEmptyConfig(t *testing.T) {
	_, err := NewSymptomLogGenerator(SymptomLogConfig{}).Generate()
	assert.Error(t, err)
}

func TestNewTestKit_LoadsRepository(t *testing.T) {
	kit, err := NewTestKit(7)
	require.NoError(t, err)

	meals, err := kit.Repo.ListFoodEvents(context.Background(), kit.FirstUser(), core.DateRange{})
	require.NoError(t, err)
	assert.Len(t, meals, len(kit.Log.Foods))

	other, err := kit.Repo.ListFoodEvents(context.Background(), "someone-else", core.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, other)
}
