// Package core has the execution entry points that tie the scoring engine to
// lots, run tracking and output.
package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/core/montecarlo"
	"github.com/huangsam/bidsim/core/optimizer"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/lotfile"
	"github.com/huangsam/bidsim/internal/metrics"
	"github.com/huangsam/bidsim/internal/outwriter"
	"github.com/huangsam/bidsim/schema"
)

// Operation names used for metrics and run tracking.
const (
	opMaxPoints = "max_points"
	opScore     = "score"
	opEconomic  = "economic"
	opSimulate  = "simulate"
	opOptimize  = "optimize"
)

// ExecutorFunc defines the function signature shared by the CLI entry points.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// GetMaxPointsResults derives every requirement ceiling of the resolved lot.
func GetMaxPointsResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (result schema.MaxPointsResult, duration time.Duration, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opMaxPoints, start, err) }()

	resolved, err := ResolveLot(cfg, mgr)
	if err != nil {
		return schema.MaxPointsResult{}, 0, err
	}
	if !shouldSuppressHeader(ctx) {
		logLotHeader(cfg, resolved)
	}

	result = algo.MaxPoints(resolved.Lot)
	result.Warnings = slices.Concat(resolved.Warnings, result.Warnings)
	return result, time.Since(start), nil
}

// ExecuteMaxPoints prints the requirement ceilings of a lot.
func ExecuteMaxPoints(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, _, err := GetMaxPointsResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteMaxPoints(result, cfg)
}

// GetScoreResults scores the bidder's technical inputs and prices the bid at
// cfg.Discount against the best known price.
func GetScoreResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (report schema.ScoreReport, duration time.Duration, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opScore, start, err) }()

	inputs, inputWarnings, err := loadInputs(cfg.InputsFile)
	if err != nil {
		return schema.ScoreReport{}, 0, err
	}
	report, err = scoreInputs(ctx, cfg, mgr, inputs, inputWarnings)
	return report, time.Since(start), err
}

// GetScoreResultsWithInputs is GetScoreResults for evaluator inputs that
// arrive inline instead of through cfg.InputsFile.
func GetScoreResultsWithInputs(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, inputs schema.ScoreInputs) (report schema.ScoreReport, duration time.Duration, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opScore, start, err) }()

	report, err = scoreInputs(ctx, cfg, mgr, inputs, nil)
	return report, time.Since(start), err
}

func scoreInputs(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, inputs schema.ScoreInputs, inputWarnings []string) (schema.ScoreReport, error) {
	resolved, err := ResolveLot(cfg, mgr)
	if err != nil {
		return schema.ScoreReport{}, err
	}
	if err := algo.TermsOf(resolved.Lot).Validate(); err != nil {
		return schema.ScoreReport{}, fmt.Errorf("lot %s: %w", resolved.ID, err)
	}
	if !shouldSuppressHeader(ctx) {
		logLotHeader(cfg, resolved)
	}

	tracker := beginRun(mgr, schema.ScoreRun, resolved.ID, map[string]any{
		"inputs_file":   cfg.InputsFile,
		"discount":      cfg.Discount,
		"best_discount": cfg.BestDiscount,
	})

	tech := algo.ScoreTechnical(resolved.Lot, inputs)
	tech.Warnings = slices.Concat(resolved.Warnings, inputWarnings, tech.Warnings)
	bid := ScoreBid(resolved.Lot, tech.Total, cfg.Discount, cfg.BestDiscount)

	tracker.finish(map[string]float64{
		"technical_total": tech.Total,
		"technical_raw":   tech.RawTotal,
		"economic":        bid.Economic,
		"total":           bid.Total,
	})

	return schema.ScoreReport{LotName: resolved.Lot.Name, Technical: tech, Bid: &bid}, nil
}

// ExecuteScore prints the technical breakdown and bid total.
func ExecuteScore(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	report, _, err := GetScoreResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteScore(report, cfg)
}

// ScoreBid prices a bid at discount. A negative bestDiscount means the
// bidder's own price is the best known one; otherwise the cheaper of the two wins.
func ScoreBid(lot schema.LotConfig, technical, discount, bestDiscount float64) schema.BidScore {
	terms := algo.TermsOf(lot)
	price := algo.PriceAt(terms.Base, discount)
	best := price
	if bestDiscount >= 0 {
		best = min(price, algo.PriceAt(terms.Base, bestDiscount))
	}
	return terms.ScoreAtDiscount(discount, technical, best)
}

// GetEconomicResults scores a single offer with the configured formula.
func GetEconomicResults(_ context.Context, cfg *contract.Config) (result schema.EconomicResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opEconomic, start, err) }()

	in := cfg.Economic
	_, id := algo.LookupFormula(in.Formula)
	return schema.EconomicResult{
		Formula:      id,
		BaseAmount:   in.Base,
		OfferedPrice: in.Offered,
		BestPrice:    in.Best,
		Alpha:        in.Alpha,
		MaxEconScore: in.MaxEcon,
		Score:        algo.ScoreEconomic(in.Base, in.Offered, in.Best, in.Alpha, in.MaxEcon, id),
	}, nil
}

// ExecuteEconomic prints a standalone economic score.
func ExecuteEconomic(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	result, err := GetEconomicResults(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteEconomic(result, cfg)
}

// GetSimulationResults runs the Monte Carlo simulator on the resolved lot.
func GetSimulationResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (result schema.SimulationResult, duration time.Duration, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opSimulate, start, err) }()

	resolved, err := ResolveLot(cfg, mgr)
	if err != nil {
		return schema.SimulationResult{}, 0, err
	}
	if !shouldSuppressHeader(ctx) {
		logLotHeader(cfg, resolved)
		logSimulationHeader(cfg)
	}

	p := cfg.Simulation
	tracker := beginRun(mgr, schema.SimulateRun, resolved.ID, map[string]any{
		"my_discount":         p.MyDiscount,
		"my_tech_score":       p.MyTechScore,
		"competitor_discount": p.CompetitorDiscount,
		"competitor_tech":     p.CompetitorTech,
		"iterations":          p.Iterations,
		"workers":             cfg.Workers,
		"seed":                cfg.Seed,
	})

	opts := montecarlo.Options{
		Workers:    cfg.Workers,
		Seed:       cfg.Seed,
		KeepTrials: cfg.KeepTrials || cfg.Output == schema.ParquetOut,
	}
	result, err = montecarlo.Simulate(ctx, resolved.Lot, p, opts)
	if err != nil {
		tracker.finish(nil)
		return schema.SimulationResult{}, 0, err
	}
	metrics.ObserveSimulation(result.Iterations, result.WinProbability)

	tracker.finish(map[string]float64{
		"win_probability":      result.WinProbability,
		"wins":                 float64(result.Wins),
		"iterations":           float64(result.Iterations),
		"my_total":             result.MyScore.Total,
		"competitor_mean":      result.Competitor.Mean,
		"competitor_threshold": result.CompetitorThreshold,
	})
	return result, time.Since(start), nil
}

// ExecuteSimulate prints the Monte Carlo results.
func ExecuteSimulate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, duration, err := GetSimulationResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSimulation(result, cfg, duration)
}

// GetOptimizationResults searches the discount grid on the resolved lot.
func GetOptimizationResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (result schema.OptimizationResult, duration time.Duration, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opOptimize, start, err) }()

	resolved, err := ResolveLot(cfg, mgr)
	if err != nil {
		return schema.OptimizationResult{}, 0, err
	}
	if !shouldSuppressHeader(ctx) {
		logLotHeader(cfg, resolved)
	}

	p := cfg.Optimize
	tracker := beginRun(mgr, schema.OptimizeRun, resolved.ID, map[string]any{
		"my_tech_score":         p.MyTechScore,
		"competitor_tech_score": p.CompetitorTechScore,
		"competitor_discount":   p.CompetitorDiscount,
		"market_best_discount":  p.MarketBestDiscount,
		"step":                  cfg.Step,
		"max_discount":          cfg.MaxDiscount,
		"validate":              cfg.Validate,
	})

	opts := optimizer.Options{
		Step:                 cfg.Step,
		MaxDiscount:          cfg.MaxDiscount,
		Validate:             cfg.Validate,
		ValidationIterations: cfg.ValidationIterations,
		DiscountStd:          cfg.DiscountStd,
		TechStd:              cfg.TechStd,
		Seed:                 cfg.Seed,
		Workers:              cfg.Workers,
	}
	result, err = optimizer.OptimizeDiscount(ctx, resolved.Lot, p, opts)
	if err != nil {
		tracker.finish(nil)
		return schema.OptimizationResult{}, 0, err
	}
	metrics.ObserveOptimization(result.Achievable)

	runMetrics := map[string]float64{
		"achievable":          boolMetric(result.Achievable),
		"best_offer_discount": result.BestOfferDiscount,
		"grid_points":         float64(result.GridPoints),
	}
	if result.MinDiscount != nil {
		runMetrics["min_discount"] = *result.MinDiscount
	}
	tracker.finish(runMetrics)
	return result, time.Since(start), nil
}

// ExecuteOptimize prints the optimizer scenarios.
func ExecuteOptimize(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, duration, err := GetOptimizationResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteOptimization(result, cfg, duration)
}

// loadInputs reads the evaluator inputs document. No file means no claims.
func loadInputs(path string) (schema.ScoreInputs, []string, error) {
	if path == "" {
		return schema.ScoreInputs{}, nil, nil
	}
	return lotfile.LoadInputs(path)
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
