package algo

import (
	"math"
	"testing"

	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/assert"
)

// TestScoreEconomicBoundaries tests the zero and ceiling edges of the curve.
func TestScoreEconomicBoundaries(t *testing.T) {
	const base, maxEcon = 1_000_000.0, 40.0

	tests := []struct {
		name     string
		offered  float64
		best     float64
		expected float64
	}{
		{"offer at base", base, 700_000, 0},
		{"offer above base", base + 1, 700_000, 0},
		{"free offer", 0, 0, maxEcon},
		{"best bidder gets the ceiling", 600_000, 700_000, maxEcon},
		{"everyone at base", base, base, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreEconomic(base, tt.offered, tt.best, 0.3, maxEcon, schema.InterpolationFormula)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

// TestScoreEconomicFormulas tests each registered curve on the same prices.
func TestScoreEconomicFormulas(t *testing.T) {
	tests := []struct {
		formula  schema.FormulaID
		expected float64
	}{
		{schema.InterpolationFormula, 40 * math.Pow(0.5, 0.3)},
		{schema.LinearFormula, 20},
		{schema.MinPriceRatioFormula, 30},
		{"does-not-exist", 40 * math.Pow(0.5, 0.3)},
		{"", 40 * math.Pow(0.5, 0.3)},
	}
	for _, tt := range tests {
		t.Run(string(tt.formula), func(t *testing.T) {
			got := ScoreEconomic(100, 80, 60, 0.3, 40, tt.formula)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

// TestScoreEconomicMonotonic tests that a deeper discount never scores lower.
func TestScoreEconomicMonotonic(t *testing.T) {
	const base = 1_000_000.0
	for _, formula := range FormulaIDs() {
		t.Run(string(formula), func(t *testing.T) {
			prev := -1.0
			for d := 0.0; d <= 100; d += 0.5 {
				offered := PriceAt(base, d)
				got := ScoreEconomic(base, offered, 750_000, 0.3, 40, formula)
				assert.GreaterOrEqual(t, got, prev, "discount %.1f", d)
				prev = got
			}
		})
	}
}

// TestScoreEconomicInvalidInputs tests clamping of NaN and out-of-range numbers.
func TestScoreEconomicInvalidInputs(t *testing.T) {
	reference := ScoreEconomic(100, 80, 60, 0.3, 40, schema.InterpolationFormula)

	assert.InDelta(t, reference, ScoreEconomic(100, 80, 60, 0, 40, schema.InterpolationFormula), 1e-9, "alpha 0 uses default")
	assert.InDelta(t, reference, ScoreEconomic(100, 80, 60, -2, 40, schema.InterpolationFormula), 1e-9, "negative alpha uses default")
	assert.InDelta(t, reference, ScoreEconomic(100, 80, 60, math.NaN(), 40, schema.InterpolationFormula), 1e-9, "NaN alpha uses default")
	assert.InDelta(t, 20.0, ScoreEconomic(100, 80, 60, 5, 40, schema.InterpolationFormula), 1e-9, "alpha above one is linear")

	// NaN best falls back to the offered price, which is then the best on the table.
	assert.InDelta(t, 40.0, ScoreEconomic(100, 80, math.NaN(), 0.3, 40, schema.InterpolationFormula), 1e-9)

	for _, v := range []float64{
		ScoreEconomic(math.NaN(), 80, 60, 0.3, 40, schema.InterpolationFormula),
		ScoreEconomic(100, math.NaN(), 60, 0.3, 40, schema.InterpolationFormula),
		ScoreEconomic(100, 80, 60, 0.3, math.NaN(), schema.InterpolationFormula),
		ScoreEconomic(-100, -80, -60, 0.3, -40, schema.InterpolationFormula),
	} {
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 40.0)
	}
}

// TestRegisterFormula tests that new curves are additive.
func TestRegisterFormula(t *testing.T) {
	const id schema.FormulaID = "flat_test"
	assert.False(t, KnownFormula(id))

	RegisterFormula(id, func(_, _, _, _, maxEcon float64) float64 { return maxEcon / 2 })
	t.Cleanup(func() {
		formulasMu.Lock()
		delete(formulas, id)
		formulasMu.Unlock()
	})

	assert.True(t, KnownFormula(id))
	assert.Contains(t, FormulaIDs(), id)
	assert.Equal(t, 20.0, ScoreEconomic(100, 80, 60, 0.3, 40, id))

	_, used := LookupFormula("nope")
	assert.Equal(t, schema.InterpolationFormula, used)
}

// BenchmarkScoreEconomic benchmarks the default formula.
func BenchmarkScoreEconomic(b *testing.B) {
	for b.Loop() {
		ScoreEconomic(1_000_000, 700_000, 650_000, 0.3, 40, schema.InterpolationFormula)
	}
}
