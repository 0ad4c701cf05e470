package contract

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/huangsam/bidsim/core/montecarlo"
	"github.com/huangsam/bidsim/core/optimizer"
	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input with the same values the CLI defaults provide.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Output:       "text",
		Precision:    DefaultPrecision,
		Color:        "yes",
		Workers:      4,
		StoreBackend: "sqlite",
		Alpha:        0.3,
		MaxEcon:      40,
		Formula:      "interpolation",
		BestDiscount: -1,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{
			name:   "valid minimal config",
			mutate: func(*ConfigRawInput) {},
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "invalid workers (zero)",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: true,
		},
		{
			name:        "invalid precision",
			mutate:      func(in *ConfigRawInput) { in.Precision = 9 },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: true,
		},
		{
			name:        "invalid store backend",
			mutate:      func(in *ConfigRawInput) { in.StoreBackend = "redis" },
			expectError: true,
		},
		{
			name:        "mysql store without connection string",
			mutate:      func(in *ConfigRawInput) { in.StoreBackend = "mysql" },
			expectError: true,
		},
		{
			name: "postgres runs with connection string",
			mutate: func(in *ConfigRawInput) {
				in.RunsBackend = "postgresql"
				in.RunsDBConnect = "host=localhost dbname=bidsim"
			},
		},
		{
			name:        "negative iterations",
			mutate:      func(in *ConfigRawInput) { in.Iterations = -3 },
			expectError: true,
		},
		{
			name:        "iterations above cap",
			mutate:      func(in *ConfigRawInput) { in.Iterations = montecarlo.MaxIterations + 1 },
			expectError: true,
		},
		{
			name:        "step out of range",
			mutate:      func(in *ConfigRawInput) { in.Step = 150 },
			expectError: true,
		},
		{
			name:        "unknown formula",
			mutate:      func(in *ConfigRawInput) { in.Formula = "quadratic" },
			expectError: true,
		},
		{
			name:        "negative base amount",
			mutate:      func(in *ConfigRawInput) { in.Base = -1 },
			expectError: true,
		},
		{
			name:        "infinite my tech",
			mutate:      func(in *ConfigRawInput) { in.MyTech = math.Inf(1) },
			expectError: true,
		},
		{
			name:        "NaN competitor discount std",
			mutate:      func(in *ConfigRawInput) { in.CompDiscountStd = math.NaN() },
			expectError: true,
		},
		{
			name:        "negative infinite market best",
			mutate:      func(in *ConfigRawInput) { in.MarketBest = math.Inf(-1) },
			expectError: true,
		},
		{
			name:        "infinite best discount",
			mutate:      func(in *ConfigRawInput) { in.BestDiscount = math.Inf(1) },
			expectError: true,
		},
		{
			name:        "infinite base amount",
			mutate:      func(in *ConfigRawInput) { in.Base = math.Inf(1) },
			expectError: true,
		},
		{
			name:        "NaN alpha",
			mutate:      func(in *ConfigRawInput) { in.Alpha = math.NaN() },
			expectError: true,
		},
		{
			name:        "invalid log format",
			mutate:      func(in *ConfigRawInput) { in.LogFormat = "xml" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			err := ProcessAndValidate(&Config{}, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestRequireFinite tests that the first non-finite flag is named.
func TestRequireFinite(t *testing.T) {
	assert.NoError(t, requireFinite(map[string]float64{"a": 1, "b": -2}))

	err := requireFinite(map[string]float64{"step": math.Inf(1), "discount": math.NaN()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discount must be a finite number")
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	input := validInput()
	input.LotID = "  lotto-1 "
	input.MyDiscount = 25
	input.MyTech = 50
	input.CompDiscountMean = 20
	input.CompDiscountStd = 5
	input.Discount = 140
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, "lotto-1", cfg.LotID)
	assert.Equal(t, montecarlo.DefaultIterations, cfg.Simulation.Iterations)
	assert.Equal(t, schema.NormalDist{Mean: 20, Std: 5}, cfg.Simulation.CompetitorDiscount)
	assert.Equal(t, 50.0, cfg.Optimize.MyTechScore)
	assert.Equal(t, optimizer.DefaultStep, cfg.Step)
	assert.Equal(t, optimizer.DefaultMaxDiscount, cfg.MaxDiscount)
	assert.Equal(t, 100.0, cfg.Discount)
	assert.Equal(t, -1.0, cfg.BestDiscount)
	assert.Equal(t, schema.NoneBackend, cfg.RunsBackend)
	assert.Equal(t, DefaultListenAddr, cfg.Listen)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, schema.InterpolationFormula, cfg.Economic.Formula)
	assert.True(t, cfg.UseColors)
}

func TestValidateBackendConfigsSameSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	input := validInput()
	input.StoreDBConnect = path
	input.RunsBackend = "sqlite"
	input.RunsDBConnect = path

	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different SQLite database files")
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite ignores connection", schema.SQLiteBackend, "", false},
		{"none ignores connection", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/bidsim", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/bidsim", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=bidsim", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{LotID: "a", Workers: 2}
	clone := cfg.Clone()
	clone.LotID = "b"
	assert.Equal(t, "a", cfg.LotID)
	assert.Equal(t, 2, clone.Workers)
}
