package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"flarewise/domain/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestGenerateThenTrend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.xlsx")
	assert.Contains(t, run(t, "generate", "--out", path, "--days", "120"), "for 1 users")

	var res analysis.TrendAnalysis
	require.NoError(t, json.Unmarshal([]byte(run(t, "trend", "--workbook", path, "--range", "3m")), &res))
	assert.True(t, res.TrendDirection.Valid())
	assert.NotEmpty(t, res.DataPoints)
}

func TestDose_FindsPlantedEffect(t *testing.T) {
	var res analysis.DoseResponseResult
	out := run(t, "dose", "--food", "dairy", "--symptom", "bloating", "--range-days", "180")
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Greater(t, res.SampleSize, 20)
	assert.Greater(t, res.Slope, 0.0)
}

func TestCorrelate_RequiresSymptom(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"correlate"})
	assert.Error(t, cmd.Execute())
}
