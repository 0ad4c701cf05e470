//go:build basic

package integration

import (
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEconomicCommand tests the standalone economic score as JSON.
func TestEconomicCommand(t *testing.T) {
	out, err := runBidsim(t, t.TempDir(), nil,
		"economic", "--base", "1000", "--offered", "800", "--best", "800", "--output", "json")
	require.NoError(t, err)

	var result schema.EconomicResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 40.0, result.Score, 1e-9)
	assert.Equal(t, schema.InterpolationFormula, result.Formula)
}

// TestScoreCommand tests scoring a lot document with evaluator inputs.
func TestScoreCommand(t *testing.T) {
	out, err := runBidsim(t, t.TempDir(), nil,
		"score", "--lot-file", "lotto-1.yaml", "--inputs", "inputs.yaml", "--discount", "20", "--output", "json")
	require.NoError(t, err)

	var report schema.ScoreReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.InDelta(t, 20.0/35.0*20.0+20.0+7.5, report.Technical.Total, 1e-9)
	require.NotNil(t, report.Bid)
	assert.Equal(t, 800_000.0, report.Bid.Price)
}

// TestMaxPointsCSV tests the CSV rendering of requirement ceilings.
func TestMaxPointsCSV(t *testing.T) {
	out, err := runBidsim(t, t.TempDir(), nil, "maxpoints", "--lot-file", "lotto-1.yaml", "--output", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "R1", records[1][0])
	assert.Equal(t, "35", strings.SplitN(records[1][3], ".", 2)[0])
}

// TestSimulateSeeded tests that a seeded simulation is reproducible across processes.
func TestSimulateSeeded(t *testing.T) {
	args := []string{
		"simulate", "--lot-file", "lotto-1.yaml",
		"--my-discount", "25", "--my-tech", "50",
		"--comp-discount-mean", "20", "--comp-discount-std", "5",
		"--comp-tech-mean", "50", "--comp-tech-std", "5",
		"--iterations", "2000", "--workers", "4", "--seed", "42", "--output", "json",
	}
	first, err := runBidsim(t, t.TempDir(), nil, args...)
	require.NoError(t, err)
	second, err := runBidsim(t, t.TempDir(), nil, args...)
	require.NoError(t, err)

	var a, b schema.SimulationResult
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.Equal(t, a.Wins, b.Wins)
	assert.Equal(t, 2000, a.Iterations)
}

// TestSimulateParquet tests exporting every trial.
func TestSimulateParquet(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "trials.parquet")
	_, err := runBidsim(t, t.TempDir(), nil,
		"simulate", "--lot-file", "lotto-1.yaml", "--my-discount", "25", "--my-tech", "50",
		"--comp-discount-mean", "20", "--comp-tech-mean", "50", "--iterations", "100",
		"--output", "parquet", "--output-file", outFile)
	require.NoError(t, err)
	assert.FileExists(t, outFile)
}

// TestOptimizeCommand tests the reference optimization case end to end.
func TestOptimizeCommand(t *testing.T) {
	out, err := runBidsim(t, t.TempDir(), nil,
		"optimize", "--lot-file", "lotto-1.yaml", "--my-tech", "52.35", "--comp-tech", "55",
		"--comp-discount", "30", "--validate=false", "--output", "json")
	require.NoError(t, err)

	var result schema.OptimizationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.True(t, result.Achievable)
	assert.Equal(t, 38.0, *result.MinDiscount)
	assert.Len(t, result.Scenarios, 4)
}

// TestLotLifecycleSQLite tests import, show, list and delete against the default SQLite store.
func TestLotLifecycleSQLite(t *testing.T) {
	home := t.TempDir()

	_, err := runBidsim(t, home, nil, "lot", "import", "lotto-1.yaml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".bidsim_lots.db"))

	out, err := runBidsim(t, home, nil, "lot", "list", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "lotto-1,Lotto 1")

	out, err = runBidsim(t, home, nil, "lot", "show", "lotto-1", "--output", "json")
	require.NoError(t, err)
	var lot schema.LotConfig
	require.NoError(t, json.Unmarshal([]byte(out), &lot))
	assert.Equal(t, "Lotto 1", lot.Name)

	// stored lots are addressable by id
	out, err = runBidsim(t, home, nil, "score", "lotto-1", "--inputs", "inputs.yaml", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"technical"`)

	_, err = runBidsim(t, home, nil, "lot", "delete", "lotto-1")
	require.NoError(t, err)
	_, err = runBidsim(t, home, nil, "lot", "show", "lotto-1")
	assert.Error(t, err)
}

// TestRunHistorySQLite tests run tracking and export with a SQLite run store.
func TestRunHistorySQLite(t *testing.T) {
	home := t.TempDir()
	env := []string{"BIDSIM_RUNS_BACKEND=sqlite"}

	_, err := runBidsim(t, home, env,
		"optimize", "--lot-file", "lotto-1.yaml", "--my-tech", "52.35", "--comp-tech", "55",
		"--comp-discount", "30", "--validate=false", "--output", "json")
	require.NoError(t, err)

	out, err := runBidsim(t, home, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")

	prefix := filepath.Join(t.TempDir(), "history")
	_, err = runBidsim(t, home, env, "runs", "export", "--output-file", prefix)
	require.NoError(t, err)
	assert.FileExists(t, prefix+".runs.parquet")
	assert.FileExists(t, prefix+".run_metrics.parquet")
}

// TestInvalidFlags tests that bad configuration fails before any work is done.
func TestInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown output", []string{"economic", "--base", "1", "--output", "xml"}},
		{"unknown formula", []string{"economic", "--base", "1", "--formula", "cubic"}},
		{"negative iterations", []string{"simulate", "--lot-file", "lotto-1.yaml", "--iterations", "-1"}},
		{"missing lot", []string{"maxpoints"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runBidsim(t, t.TempDir(), nil, tt.args...)
			assert.Error(t, err)
		})
	}
}
