package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_StepOrder(t *testing.T) {
	r := NewRunner()

	assert.Equal(t, "1.0.0", r.Version())
	assert.Equal(t, []string{
		"create food_events table",
		"create trigger_events table",
		"create medication_events table",
		"create symptom_instances table",
		"create flares table",
		"create flare_events table",
		"create indexes",
	}, r.Steps())
}

func TestSteps_AreIdempotent(t *testing.T) {
	for _, s := range steps {
		for _, stmt := range strings.Split(s.sql, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			assert.Contains(t, stmt, "IF NOT EXISTS", "step %q", s.name)
		}
	}
}

func TestSteps_FlaresPrecedeHistory(t *testing.T) {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		index[s.name] = i
	}

	flares, ok := index["create flares table"]
	require.True(t, ok)
	history, ok := index["create flare_events table"]
	require.True(t, ok)
	assert.Less(t, flares, history, "flare_events references flares")
	assert.Equal(t, len(steps)-1, index["create indexes"])
}

func TestSteps_SeverityBounds(t *testing.T) {
	for _, s := range steps {
		switch s.name {
		case "create symptom_instances table", "create flares table":
			assert.Contains(t, s.sql, "BETWEEN 1 AND 10", "step %q", s.name)
		}
	}
}
