// Package montecarlo estimates win probability against a competitor whose
// discount and technical score are only known as normal distributions.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/schema"
	"golang.org/x/sync/errgroup"
)

// Iteration bounds for a single run.
const (
	DefaultIterations = 500
	MaxIterations     = 10_000
)

// cancelCheckEvery is how many trials a worker runs between context checks.
const cancelCheckEvery = 256

// ErrInvalidIterations is returned when a caller asks for no trials at all.
var ErrInvalidIterations = errors.New("iterations must be positive")

// RandSource provides standard normal draws. Tests substitute a fixed-seed
// or recorded-sequence source.
type RandSource interface {
	NormFloat64() float64
}

// SourceFactory returns the source used by one worker. Each worker gets its
// own stream so no synchronization is needed between trials.
type SourceFactory func(worker int) RandSource

// SeededSources partitions one seed into independent PCG streams per worker.
func SeededSources(seed uint64) SourceFactory {
	return func(worker int) RandSource {
		return rand.New(rand.NewPCG(seed, uint64(worker)))
	}
}

// Options tunes how a run executes. None of them change the model.
type Options struct {
	// Workers splits the trials; values below 1 mean one worker.
	Workers int
	// Seed feeds SeededSources; zero picks a random seed, reported back.
	Seed uint64
	// Source overrides Seed when set.
	Source SourceFactory
	// KeepTrials retains every trial record in the result.
	KeepTrials bool
	// MarketPrices are extra offers on the table that join the best price of
	// every trial without competing for the win.
	MarketPrices []float64
}

// Simulate runs p.Iterations independent trials. Iterations above
// MaxIterations are capped; iterations <= 0 or a negative base amount fail.
func Simulate(ctx context.Context, lot schema.LotConfig, p schema.SimulationParams, opts Options) (schema.SimulationResult, error) {
	terms := algo.TermsOf(lot)
	if err := terms.Validate(); err != nil {
		return schema.SimulationResult{}, err
	}
	if p.Iterations <= 0 {
		return schema.SimulationResult{}, fmt.Errorf("%w: got %d", ErrInvalidIterations, p.Iterations)
	}
	n := min(p.Iterations, MaxIterations)
	maxTech := lot.WithDefaults().MaxTechScore

	p = sanitizeParams(p)
	p.Iterations = n

	workers := min(max(opts.Workers, 1), n)
	seed := opts.Seed
	source := opts.Source
	if source == nil {
		if seed == 0 {
			seed = rand.Uint64()
		}
		source = SeededSources(seed)
	}

	mine := schema.CompetitorProfile{Discount: p.MyDiscount, TechnicalScore: p.MyTechScore}
	trials := make([]schema.TrialRecord, n)
	chunk := (n + workers - 1) / workers

	g, gCtx := errgroup.WithContext(ctx)
	for w := range workers {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		src := source(w)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%cancelCheckEvery == 0 {
					if err := gCtx.Err(); err != nil {
						return err
					}
				}
				trials[i] = runTrial(i, terms, mine, p, maxTech, src, opts.MarketPrices)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schema.SimulationResult{}, err
	}

	result := aggregate(trials)
	result.LotName = lot.Name
	result.Params = p
	result.Seed = seed
	result.Workers = workers
	meanCompetitor := schema.CompetitorProfile{
		Discount:       algo.ClampDiscount(p.CompetitorDiscount.Mean),
		TechnicalScore: clamp(p.CompetitorTech.Mean, 0, maxTech),
	}
	result.MyScore, _ = terms.Round(mine, meanCompetitor, opts.MarketPrices...)
	if opts.KeepTrials {
		result.Trials = trials
	}
	return result, nil
}

// runTrial samples one competitor and scores both sides against the best
// price of that trial.
func runTrial(i int, terms algo.EconomicTerms, mine schema.CompetitorProfile, p schema.SimulationParams, maxTech float64, src RandSource, market []float64) schema.TrialRecord {
	competitor := schema.CompetitorProfile{
		Discount:       algo.ClampDiscount(p.CompetitorDiscount.Mean + p.CompetitorDiscount.Std*src.NormFloat64()),
		TechnicalScore: clamp(p.CompetitorTech.Mean+p.CompetitorTech.Std*src.NormFloat64(), 0, maxTech),
	}
	my, their := terms.Round(mine, competitor, market...)
	best := min(my.Price, their.Price)
	for _, m := range market {
		best = min(best, nonNegative(m))
	}
	return schema.TrialRecord{
		Trial:              i,
		CompetitorDiscount: competitor.Discount,
		CompetitorTech:     competitor.TechnicalScore,
		BestPrice:          best,
		MyEconomic:         my.Economic,
		CompetitorEconomic: their.Economic,
		MyTotal:            my.Total,
		CompetitorTotal:    their.Total,
		Win:                algo.Beats(my.Total, their.Total),
	}
}

// sanitizeParams clamps user-editable values so NaN and infinities never
// reach a score.
func sanitizeParams(p schema.SimulationParams) schema.SimulationParams {
	p.MyDiscount = algo.ClampDiscount(p.MyDiscount)
	p.MyTechScore = nonNegative(p.MyTechScore)
	p.CompetitorDiscount = sanitizeDist(p.CompetitorDiscount)
	p.CompetitorTech = sanitizeDist(p.CompetitorTech)
	return p
}

func sanitizeDist(d schema.NormalDist) schema.NormalDist {
	if math.IsNaN(d.Mean) || math.IsInf(d.Mean, 0) {
		d.Mean = 0
	}
	d.Std = nonNegative(d.Std)
	return d
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
