package montecarlo

import (
	"context"
	"math"
	"testing"

	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceSource replays recorded draws in order, wrapping around.
type sequenceSource struct {
	draws []float64
	next  int
}

func (s *sequenceSource) NormFloat64() float64 {
	v := s.draws[s.next%len(s.draws)]
	s.next++
	return v
}

func testLot() schema.LotConfig {
	return schema.LotConfig{
		Name:         "Lotto MC",
		BaseAmount:   1_000_000,
		MaxTechScore: 60,
		MaxEconScore: 40,
		Alpha:        0.3,
	}
}

func testParams(iterations int) schema.SimulationParams {
	return schema.SimulationParams{
		MyDiscount:         25,
		MyTechScore:        50,
		CompetitorDiscount: schema.NormalDist{Mean: 20, Std: 5},
		CompetitorTech:     schema.NormalDist{Mean: 50, Std: 5},
		Iterations:         iterations,
	}
}

// TestSimulateRecordedSequence checks each trial against hand-computed outcomes.
func TestSimulateRecordedSequence(t *testing.T) {
	// trial 0: competitor at the means, loses on price
	// trial 1: competitor at 40% and 60 points, wins
	// trial 2: draws far out of range, clamped to 0% and 60 points, loses
	src := &sequenceSource{draws: []float64{0, 0, 4, 2, -10, 10}}
	opts := Options{Workers: 1, Source: func(int) RandSource { return src }, KeepTrials: true}

	res, err := Simulate(context.Background(), testLot(), testParams(3), opts)
	require.NoError(t, err)
	require.Len(t, res.Trials, 3)

	assert.True(t, res.Trials[0].Win)
	assert.InDelta(t, 90.0, res.Trials[0].MyTotal, 1e-9)
	assert.InDelta(t, 50+40*math.Pow(0.8, 0.3), res.Trials[0].CompetitorTotal, 1e-9)
	assert.Equal(t, 750_000.0, res.Trials[0].BestPrice)

	assert.False(t, res.Trials[1].Win)
	assert.InDelta(t, 100.0, res.Trials[1].CompetitorTotal, 1e-9)
	assert.InDelta(t, 50+40*math.Pow(0.625, 0.3), res.Trials[1].MyTotal, 1e-9)

	assert.True(t, res.Trials[2].Win)
	assert.Equal(t, 0.0, res.Trials[2].CompetitorDiscount)
	assert.Equal(t, 60.0, res.Trials[2].CompetitorTech)
	assert.Equal(t, 0.0, res.Trials[2].CompetitorEconomic)

	assert.Equal(t, 2, res.Wins)
	assert.InDelta(t, 200.0/3.0, res.WinProbability, 1e-9)
	assert.Equal(t, 60.0, res.Competitor.Min)
	assert.Equal(t, 100.0, res.Competitor.Max)
}

// TestSimulateMarketPrices checks that an extra market offer lowers the best
// price of every trial.
func TestSimulateMarketPrices(t *testing.T) {
	src := &sequenceSource{draws: []float64{0, 0}}
	opts := Options{
		Workers:      1,
		Source:       func(int) RandSource { return src },
		KeepTrials:   true,
		MarketPrices: []float64{500_000},
	}

	res, err := Simulate(context.Background(), testLot(), testParams(1), opts)
	require.NoError(t, err)
	require.Len(t, res.Trials, 1)

	trial := res.Trials[0]
	assert.Equal(t, 500_000.0, trial.BestPrice)
	assert.InDelta(t, 40*math.Pow(0.5, 0.3), trial.MyEconomic, 1e-9)
	assert.InDelta(t, 40*math.Pow(0.4, 0.3), trial.CompetitorEconomic, 1e-9)
	assert.True(t, trial.Win)
	assert.InDelta(t, 50+40*math.Pow(0.5, 0.3), res.MyScore.Total, 1e-9)
}

// TestSimulateTieIsLoss checks that identical bids never count as a win.
func TestSimulateTieIsLoss(t *testing.T) {
	p := schema.SimulationParams{
		MyDiscount:         20,
		MyTechScore:        50,
		CompetitorDiscount: schema.NormalDist{Mean: 20},
		CompetitorTech:     schema.NormalDist{Mean: 50},
		Iterations:         100,
	}
	res, err := Simulate(context.Background(), testLot(), p, Options{Workers: 4, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Wins)
	assert.Equal(t, 0.0, res.WinProbability)
	assert.Equal(t, res.My.Mean, res.Competitor.Mean)
}

// TestSimulateConvergence compares the empirical win rate with numeric integration.
func TestSimulateConvergence(t *testing.T) {
	lot := testLot()
	p := testParams(5000)

	res, err := Simulate(context.Background(), lot, p, Options{Workers: 4, Seed: 20240601})
	require.NoError(t, err)
	assert.Equal(t, 5000, res.Iterations)

	expected := integrateWinProbability(lot, p)
	assert.InDelta(t, expected, res.WinProbability, 3.0, "expected %.2f%%, got %.2f%%", expected, res.WinProbability)
}

// integrateWinProbability integrates P(win | discount) over the discount density.
// Given a competitor discount, the competitor wins iff its technical score
// reaches the gap left by the economic scores, which is a normal CDF.
func integrateWinProbability(lot schema.LotConfig, p schema.SimulationParams) float64 {
	terms := algo.TermsOf(lot)
	mine := schema.CompetitorProfile{Discount: p.MyDiscount, TechnicalScore: p.MyTechScore}
	phi := func(z float64) float64 { return 0.5 * (1 + math.Erf(z/math.Sqrt2)) }

	const steps = 4000
	mu, sigma := p.CompetitorDiscount.Mean, p.CompetitorDiscount.Std
	lo, hi := mu-8*sigma, mu+8*sigma
	h := (hi - lo) / steps

	var total float64
	for i := range steps {
		d := lo + (float64(i)+0.5)*h
		density := math.Exp(-0.5*math.Pow((d-mu)/sigma, 2)) / (sigma * math.Sqrt(2*math.Pi))

		my, their := terms.Round(mine, schema.CompetitorProfile{Discount: algo.ClampDiscount(d)})
		threshold := my.Total - their.Economic // competitor tech must stay strictly below this
		var pWin float64
		switch {
		case threshold > lot.MaxTechScore:
			pWin = 1
		case threshold <= 0:
			pWin = 0
		default:
			pWin = phi((threshold - p.CompetitorTech.Mean) / p.CompetitorTech.Std)
		}
		total += density * pWin * h
	}
	return total * 100
}

// TestSimulateMonotonicInDiscount checks that a deeper discount never lowers the win rate.
func TestSimulateMonotonicInDiscount(t *testing.T) {
	prev := -1.0
	for d := 0.0; d <= 60; d += 5 {
		p := testParams(2000)
		p.MyDiscount = d
		res, err := Simulate(context.Background(), testLot(), p, Options{Workers: 1, Seed: 99})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.WinProbability, prev, "discount %.0f", d)
		prev = res.WinProbability
	}
	assert.Greater(t, prev, 99.0)
}

// TestSimulateDeterministicWithSeed checks that a seed and worker count pin the result.
func TestSimulateDeterministicWithSeed(t *testing.T) {
	opts := Options{Workers: 3, Seed: 1234}
	a, err := Simulate(context.Background(), testLot(), testParams(1000), opts)
	require.NoError(t, err)
	b, err := Simulate(context.Background(), testLot(), testParams(1000), opts)
	require.NoError(t, err)

	assert.Equal(t, a.Wins, b.Wins)
	assert.Equal(t, a.Competitor, b.Competitor)
	assert.Equal(t, uint64(1234), a.Seed)
	assert.Equal(t, 3, a.Workers)
	assert.Empty(t, a.Trials)
}

// TestSimulateSummary checks aggregate fields for internal consistency.
func TestSimulateSummary(t *testing.T) {
	res, err := Simulate(context.Background(), testLot(), testParams(3000), Options{Workers: 2, Seed: 5})
	require.NoError(t, err)

	for _, s := range []schema.SummaryStats{res.My, res.Competitor} {
		assert.LessOrEqual(t, s.Min, s.P5)
		assert.LessOrEqual(t, s.P5, s.Median)
		assert.LessOrEqual(t, s.Median, s.P95)
		assert.LessOrEqual(t, s.P95, s.Max)
		assert.GreaterOrEqual(t, s.Mean, s.Min)
		assert.LessOrEqual(t, s.Mean, s.Max)
	}
	assert.Equal(t, res.Competitor.P95, res.CompetitorThreshold)

	require.Len(t, res.Histogram, histogramBins)
	var mine, theirs int
	for _, b := range res.Histogram {
		mine += b.Mine
		theirs += b.Competitor
	}
	assert.Equal(t, 3000, mine)
	assert.Equal(t, 3000, theirs)
	assert.NotZero(t, res.Seed)
}

// TestSimulateContractErrors checks caller bugs fail fast and limits are applied.
func TestSimulateContractErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Simulate(ctx, testLot(), testParams(0), Options{})
	assert.ErrorIs(t, err, ErrInvalidIterations)

	_, err = Simulate(ctx, testLot(), testParams(-5), Options{})
	assert.ErrorIs(t, err, ErrInvalidIterations)

	lot := testLot()
	lot.BaseAmount = -1
	_, err = Simulate(ctx, lot, testParams(10), Options{})
	assert.ErrorIs(t, err, algo.ErrNegativeBase)

	res, err := Simulate(ctx, testLot(), testParams(MaxIterations*3), Options{Workers: 8, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, MaxIterations, res.Iterations)

	p := testParams(50)
	p.CompetitorDiscount.Std = -4
	p.CompetitorTech.Mean = math.NaN()
	res, err = Simulate(ctx, testLot(), p, Options{Workers: 1, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Params.CompetitorDiscount.Std)
	assert.False(t, math.IsNaN(res.Competitor.Mean))
}

// TestSimulateNonFiniteInputs checks that infinities are clamped instead of
// reaching the scores or the histogram.
func TestSimulateNonFiniteInputs(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		mutate func(*schema.SimulationParams)
	}{
		{"my tech +Inf", func(p *schema.SimulationParams) { p.MyTechScore = math.Inf(1) }},
		{"my discount -Inf", func(p *schema.SimulationParams) { p.MyDiscount = math.Inf(-1) }},
		{"competitor means", func(p *schema.SimulationParams) {
			p.CompetitorDiscount.Mean = math.Inf(1)
			p.CompetitorTech.Mean = math.Inf(-1)
		}},
		{"competitor stds", func(p *schema.SimulationParams) {
			p.CompetitorDiscount.Std = math.Inf(1)
			p.CompetitorTech.Std = math.Inf(1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(100)
			tt.mutate(&p)

			res, err := Simulate(ctx, testLot(), p, Options{Workers: 2, Seed: 8})
			require.NoError(t, err)
			for _, v := range []float64{res.My.Mean, res.My.Max, res.Competitor.Mean, res.Competitor.Max, res.WinProbability} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "got %v", v)
			}
			var mine int
			for _, b := range res.Histogram {
				mine += b.Mine
			}
			assert.Equal(t, 100, mine)
		})
	}

	lot := testLot()
	lot.BaseAmount = math.Inf(1)
	_, err := Simulate(ctx, lot, testParams(10), Options{})
	assert.ErrorIs(t, err, algo.ErrNegativeBase)
}

// TestHistogramDegenerateRange checks ranges too narrow or too wide to split.
func TestHistogramDegenerateRange(t *testing.T) {
	bins := histogram([]float64{5, 5}, []float64{5}, 4)
	require.Len(t, bins, 1)
	assert.Equal(t, 2, bins[0].Mine)
	assert.Equal(t, 1, bins[0].Competitor)

	bins = histogram([]float64{-math.MaxFloat64, math.MaxFloat64}, []float64{0}, 4)
	require.Len(t, bins, 1)
	assert.Equal(t, 2, bins[0].Mine)

	bins = histogram([]float64{0, 10}, []float64{10}, 2)
	require.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].Mine)
	assert.Equal(t, 1, bins[1].Mine)
	assert.Equal(t, 1, bins[1].Competitor)
}

// TestSimulateCancelled checks that a cancelled context stops the run.
func TestSimulateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simulate(ctx, testLot(), testParams(1000), Options{Workers: 2, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

// BenchmarkSimulate benchmarks a default-sized run.
func BenchmarkSimulate(b *testing.B) {
	lot, p := testLot(), testParams(DefaultIterations)
	for b.Loop() {
		_, _ = Simulate(context.Background(), lot, p, Options{Workers: 4, Seed: 1})
	}
}
