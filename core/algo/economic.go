package algo

import (
	"math"
	"slices"
	"sync"

	"github.com/huangsam/bidsim/schema"
)

// EconomicFormula maps prices to an economic score. Inputs are already
// sanitized: prices and maxEcon are non-negative and alpha is in (0, 1].
type EconomicFormula func(base, offered, best, alpha, maxEcon float64) float64

var (
	formulasMu sync.RWMutex
	formulas   = map[schema.FormulaID]EconomicFormula{
		schema.InterpolationFormula: interpolationFormula,
		schema.LinearFormula:        linearFormula,
		schema.MinPriceRatioFormula: minPriceRatioFormula,
	}
)

// RegisterFormula adds or replaces a formula in the registry.
func RegisterFormula(id schema.FormulaID, f EconomicFormula) {
	formulasMu.Lock()
	defer formulasMu.Unlock()
	formulas[id] = f
}

// LookupFormula returns the formula for id and the id actually used.
// Unknown or empty ids fall back to interpolation.
func LookupFormula(id schema.FormulaID) (EconomicFormula, schema.FormulaID) {
	formulasMu.RLock()
	defer formulasMu.RUnlock()
	if f, ok := formulas[id]; ok {
		return f, id
	}
	return formulas[schema.InterpolationFormula], schema.InterpolationFormula
}

// KnownFormula reports whether id is registered.
func KnownFormula(id schema.FormulaID) bool {
	formulasMu.RLock()
	defer formulasMu.RUnlock()
	_, ok := formulas[id]
	return ok
}

// FormulaIDs returns all registered ids in sorted order.
func FormulaIDs() []schema.FormulaID {
	formulasMu.RLock()
	defer formulasMu.RUnlock()
	ids := make([]schema.FormulaID, 0, len(formulas))
	for id := range formulas {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ScoreEconomic scores an offered price against the base amount and the best
// known competitor price. Invalid numbers are clamped, never propagated.
func ScoreEconomic(base, offered, best, alpha, maxEcon float64, id schema.FormulaID) float64 {
	f, _ := LookupFormula(id)
	base, offered, best, alpha, maxEcon = sanitizeEconomic(base, offered, best, alpha, maxEcon)
	return f(base, offered, best, alpha, maxEcon)
}

// sanitizeEconomic clamps NaN and out-of-range inputs. A NaN best price
// falls back to the offered price.
func sanitizeEconomic(base, offered, best, alpha, maxEcon float64) (float64, float64, float64, float64, float64) {
	if math.IsNaN(best) {
		best = offered
	}
	if math.IsNaN(alpha) || alpha <= 0 {
		alpha = schema.DefaultAlpha
	}
	return nonNegative(base), nonNegative(offered), nonNegative(best), min(alpha, 1), nonNegative(maxEcon)
}

// interpolationFormula is maxEcon * ratio^alpha where ratio is the offered
// discount relative to the cheapest price on the table, own price included.
func interpolationFormula(base, offered, best, alpha, maxEcon float64) float64 {
	if offered > base {
		return 0
	}
	actualBest := min(offered, best)
	denom := base - actualBest
	if denom <= 0 {
		return 0
	}
	ratio := clamp((base-offered)/denom, 0, 1)
	return maxEcon * math.Pow(ratio, alpha)
}

// linearFormula is interpolation with the exponent fixed at 1.
func linearFormula(base, offered, best, _, maxEcon float64) float64 {
	return interpolationFormula(base, offered, best, 1, maxEcon)
}

// minPriceRatioFormula is maxEcon * best / offered with the same zero rules.
func minPriceRatioFormula(base, offered, best, _, maxEcon float64) float64 {
	if offered >= base {
		return 0
	}
	actualBest := min(offered, best)
	if base-actualBest <= 0 {
		return 0
	}
	if offered <= 0 {
		return maxEcon
	}
	return maxEcon * clamp(actualBest/offered, 0, 1)
}
