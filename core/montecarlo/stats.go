package montecarlo

import (
	"math"
	"slices"

	"github.com/huangsam/bidsim/schema"
)

// histogramBins is the number of equal-width bins over the combined range.
const histogramBins = 20

// aggregate reduces trial records to win counts, per-side stats and a histogram.
func aggregate(trials []schema.TrialRecord) schema.SimulationResult {
	n := len(trials)
	mine := make([]float64, n)
	theirs := make([]float64, n)
	wins := 0
	for i, tr := range trials {
		mine[i] = tr.MyTotal
		theirs[i] = tr.CompetitorTotal
		if tr.Win {
			wins++
		}
	}

	competitor := summarize(theirs)
	return schema.SimulationResult{
		Iterations:          n,
		Wins:                wins,
		WinProbability:      float64(wins) / float64(n) * 100,
		My:                  summarize(mine),
		Competitor:          competitor,
		CompetitorThreshold: competitor.P95,
		Histogram:           histogram(mine, theirs, histogramBins),
	}
}

// summarize computes order statistics on a copy of values.
func summarize(values []float64) schema.SummaryStats {
	if len(values) == 0 {
		return schema.SummaryStats{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sq float64
	for _, v := range sorted {
		sq += (v - mean) * (v - mean)
	}

	return schema.SummaryStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Std:    math.Sqrt(sq / float64(len(sorted))),
		P5:     percentile(sorted, 5),
		P95:    percentile(sorted, 95),
		Median: percentile(sorted, 50),
	}
}

// percentile interpolates linearly between closest ranks of sorted values.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// histogram bins both sides over their shared range. The last bin is closed.
func histogram(mine, theirs []float64, bins int) []schema.HistogramBin {
	if len(mine) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range slices.Concat(mine, theirs) {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	width := (hi - lo) / float64(bins)
	if hi == lo || math.IsNaN(width) || math.IsInf(width, 0) || width == 0 {
		return []schema.HistogramBin{{Lower: lo, Upper: hi, Mine: len(mine), Competitor: len(theirs)}}
	}

	out := make([]schema.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	index := func(v float64) int {
		pos := (v - lo) / width
		if !(pos > 0) {
			return 0
		}
		return int(min(pos, float64(bins-1)))
	}
	for _, v := range mine {
		out[index(v)].Mine++
	}
	for _, v := range theirs {
		out[index(v)].Competitor++
	}
	return out
}
