package algo

import (
	"errors"
	"math"

	"github.com/huangsam/bidsim/schema"
	"github.com/shopspring/decimal"
)

// ErrNegativeBase is returned when a caller passes a negative or non-finite
// base amount.
var ErrNegativeBase = errors.New("base amount must be a finite non-negative number")

// Total is technical plus economic, with no clamping.
func Total(technical, economic float64) float64 {
	return technical + economic
}

// Compare returns the outcome of mine against theirs for the evaluated bidder.
func Compare(mine, theirs float64) schema.Outcome {
	switch {
	case mine > theirs:
		return schema.OutcomeWin
	case mine < theirs:
		return schema.OutcomeLoss
	default:
		return schema.OutcomeTie
	}
}

// Beats reports a strict win. A tie is a loss.
func Beats(mine, theirs float64) bool {
	return Compare(mine, theirs) == schema.OutcomeWin
}

// ClampDiscount bounds a percentage discount to [0, 100]; NaN becomes 0.
func ClampDiscount(discount float64) float64 {
	return clamp(discount, 0, 100)
}

// PriceAt returns base reduced by a percentage discount. The price is not
// rounded, so a zero discount returns base unchanged.
func PriceAt(base, discount float64) float64 {
	b := decimal.NewFromFloat(nonNegative(base))
	d := decimal.NewFromFloat(ClampDiscount(discount))
	return b.Sub(b.Mul(d).Shift(-2)).InexactFloat64()
}

// RevenueDelta is the revenue given up by moving from one discount to another.
func RevenueDelta(base, fromDiscount, toDiscount float64) float64 {
	b := decimal.NewFromFloat(nonNegative(base))
	delta := decimal.NewFromFloat(ClampDiscount(toDiscount)).Sub(decimal.NewFromFloat(ClampDiscount(fromDiscount)))
	return b.Mul(delta).Shift(-2).InexactFloat64()
}

// EconomicTerms is the slice of a lot the economic scorer needs, with
// defaults resolved once so hot loops avoid repeating it.
type EconomicTerms struct {
	Base    float64
	Alpha   float64
	MaxEcon float64
	Formula schema.FormulaID
}

// TermsOf resolves the economic terms of a lot.
func TermsOf(lot schema.LotConfig) EconomicTerms {
	lot = lot.WithDefaults()
	return EconomicTerms{
		Base:    lot.BaseAmount,
		Alpha:   lot.Alpha,
		MaxEcon: lot.MaxEconScore,
		Formula: lot.EconomicFormula,
	}
}

// Validate rejects terms that signal a caller bug rather than user input.
func (t EconomicTerms) Validate() error {
	if math.IsNaN(t.Base) || math.IsInf(t.Base, 0) || t.Base < 0 {
		return ErrNegativeBase
	}
	return nil
}

// ScoreAtDiscount scores one side of a round against a shared best price.
func (t EconomicTerms) ScoreAtDiscount(discount, technical, bestPrice float64) schema.BidScore {
	discount = ClampDiscount(discount)
	price := PriceAt(t.Base, discount)
	econ := ScoreEconomic(t.Base, price, bestPrice, t.Alpha, t.MaxEcon, t.Formula)
	return schema.BidScore{
		Discount:  discount,
		Price:     price,
		Technical: technical,
		Economic:  econ,
		Total:     Total(technical, econ),
	}
}

// Round scores both sides symmetrically. The best price is the cheaper of the
// two offers and any extra market price supplied by the caller.
func (t EconomicTerms) Round(mine, theirs schema.CompetitorProfile, marketPrices ...float64) (schema.BidScore, schema.BidScore) {
	pMine := PriceAt(t.Base, mine.Discount)
	pTheirs := PriceAt(t.Base, theirs.Discount)
	best := min(pMine, pTheirs)
	for _, p := range marketPrices {
		best = min(best, nonNegative(p))
	}
	return t.ScoreAtDiscount(mine.Discount, mine.TechnicalScore, best),
		t.ScoreAtDiscount(theirs.Discount, theirs.TechnicalScore, best)
}
