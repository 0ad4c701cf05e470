// Package optimizer scans a discount grid for the cheapest bid that beats one
// fixed competitor, then proposes graduated scenarios around it.
package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/core/montecarlo"
	"github.com/huangsam/bidsim/schema"
)

// Search defaults.
const (
	DefaultStep                 = 1.0
	DefaultMaxDiscount          = 70.0
	DefaultValidationIterations = 200
	DefaultDiscountStd          = 3.0
	DefaultTechStd              = 2.0
)

// maxGridPoints bounds the scan regardless of how small the step is.
const maxGridPoints = 100_001

// scenarioOffsets are the graduated steps, in percentage points, above the
// anchor discount.
var scenarioOffsets = []struct {
	name   string
	offset float64
}{
	{"minimum", 0},
	{"+5", 5},
	{"+10", 10},
	{"+15", 15},
}

// Options tunes the grid and the optional Monte Carlo validation.
type Options struct {
	Step        float64
	MaxDiscount float64

	// Validate attaches a win probability to every scenario.
	Validate             bool
	ValidationIterations int
	DiscountStd          float64
	TechStd              float64
	Seed                 uint64
	Workers              int
}

func (o Options) withDefaults() Options {
	if unset(o.Step) {
		o.Step = DefaultStep
	}
	if unset(o.MaxDiscount) {
		o.MaxDiscount = DefaultMaxDiscount
	}
	o.MaxDiscount = algo.ClampDiscount(o.MaxDiscount)
	if o.ValidationIterations <= 0 {
		o.ValidationIterations = DefaultValidationIterations
	}
	if unset(o.DiscountStd) {
		o.DiscountStd = DefaultDiscountStd
	}
	if unset(o.TechStd) {
		o.TechStd = DefaultTechStd
	}
	return o
}

// unset reports values that cannot size a grid or a distribution.
func unset(v float64) bool {
	return !(v > 0) || math.IsInf(v, 1)
}

// OptimizeDiscount finds the lowest grid discount whose total strictly beats
// the competitor. An empty search is a normal result with Achievable false.
func OptimizeDiscount(ctx context.Context, lot schema.LotConfig, p schema.OptimizeParams, opts Options) (schema.OptimizationResult, error) {
	terms := algo.TermsOf(lot)
	if err := terms.Validate(); err != nil {
		return schema.OptimizationResult{}, err
	}
	opts = opts.withDefaults()
	p = sanitizeParams(p)

	competitor := schema.CompetitorProfile{Discount: p.CompetitorDiscount, TechnicalScore: p.CompetitorTechScore}
	market := algo.PriceAt(terms.Base, p.MarketBestDiscount)

	points := min(int(math.Floor(opts.MaxDiscount/opts.Step+1e-9))+1, maxGridPoints)
	result := schema.OptimizationResult{
		LotName:    lot.Name,
		Params:     p,
		Step:       opts.Step,
		GridPoints: points,
	}

	for i := range points {
		if err := ctx.Err(); err != nil {
			return schema.OptimizationResult{}, err
		}
		// integer index avoids float drift across the grid
		candidate := float64(i) * opts.Step
		mine := schema.CompetitorProfile{Discount: candidate, TechnicalScore: p.MyTechScore}
		my, their := terms.Round(mine, competitor, market)
		if algo.Beats(my.Total, their.Total) {
			result.Achievable = true
			result.MinDiscount = &candidate
			break
		}
	}

	anchor := max(p.MarketBestDiscount, p.CompetitorDiscount)
	if result.Achievable {
		anchor = *result.MinDiscount
	}
	result.BestOfferDiscount = anchor

	scenarios, err := buildScenarios(ctx, lot, terms, p, anchor, market, opts)
	if err != nil {
		return schema.OptimizationResult{}, err
	}
	result.Scenarios = scenarios
	return result, nil
}

// ScenarioDiscounts returns the graduated discounts derived from anchor.
func ScenarioDiscounts(anchor float64) []float64 {
	out := make([]float64, len(scenarioOffsets))
	for i, s := range scenarioOffsets {
		out[i] = algo.ClampDiscount(anchor + s.offset)
	}
	return out
}

func buildScenarios(ctx context.Context, lot schema.LotConfig, terms algo.EconomicTerms, p schema.OptimizeParams, anchor, market float64, opts Options) ([]schema.Scenario, error) {
	competitor := schema.CompetitorProfile{Discount: p.CompetitorDiscount, TechnicalScore: p.CompetitorTechScore}
	discounts := ScenarioDiscounts(anchor)

	scenarios := make([]schema.Scenario, 0, len(discounts))
	for i, d := range discounts {
		mine := schema.CompetitorProfile{Discount: d, TechnicalScore: p.MyTechScore}
		my, their := terms.Round(mine, competitor, market)
		sc := schema.Scenario{
			Name:         scenarioOffsets[i].name,
			Discount:     d,
			Price:        my.Price,
			My:           my,
			Competitor:   their,
			Margin:       my.Total - their.Total,
			Beats:        algo.Beats(my.Total, their.Total),
			RevenueDelta: algo.RevenueDelta(terms.Base, discounts[0], d),
		}
		if opts.Validate {
			prob, err := validateScenario(ctx, lot, p, d, market, opts, i)
			if err != nil {
				return nil, fmt.Errorf("validating scenario %s: %w", sc.Name, err)
			}
			sc.WinProbability = &prob
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// validateScenario runs a reduced Monte Carlo with the fixed competitor as the
// mean of narrow normal distributions. The market price joins the best price
// of every trial, as it does in the grid scan.
func validateScenario(ctx context.Context, lot schema.LotConfig, p schema.OptimizeParams, discount, market float64, opts Options, index int) (float64, error) {
	params := schema.SimulationParams{
		MyDiscount:         discount,
		MyTechScore:        p.MyTechScore,
		CompetitorDiscount: schema.NormalDist{Mean: p.CompetitorDiscount, Std: opts.DiscountStd},
		CompetitorTech:     schema.NormalDist{Mean: p.CompetitorTechScore, Std: opts.TechStd},
		Iterations:         opts.ValidationIterations,
	}
	seed := opts.Seed
	if seed != 0 {
		// distinct stream per scenario, still reproducible
		seed += uint64(index)
	}
	res, err := montecarlo.Simulate(ctx, lot, params, montecarlo.Options{
		Workers:      opts.Workers,
		Seed:         seed,
		MarketPrices: []float64{market},
	})
	if err != nil {
		return 0, err
	}
	return res.WinProbability, nil
}

func sanitizeParams(p schema.OptimizeParams) schema.OptimizeParams {
	p.MyTechScore = nonNegative(p.MyTechScore)
	p.CompetitorTechScore = nonNegative(p.CompetitorTechScore)
	p.CompetitorDiscount = algo.ClampDiscount(p.CompetitorDiscount)
	p.MarketBestDiscount = algo.ClampDiscount(p.MarketBestDiscount)
	return p
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
