package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/parquet"
	"github.com/huangsam/bidsim/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ErrNoTrials is returned when parquet output is requested for a run that kept no trials.
var ErrNoTrials = errors.New("no trial records to export")

// WriteSimulationResults outputs a Monte Carlo run, dispatching on the configured format.
func WriteSimulationResults(result schema.SimulationResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSimulationCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if len(result.Trials) == 0 {
			return ErrNoTrials
		}
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires an output file")
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteTrials(w, parquet.ConvertTrialRecords(result.Trials))
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSimulationTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

func writeSimulationTable(w io.Writer, result schema.SimulationResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	label := contract.GetPlainLabel(result.WinProbability)
	if cfg.UseColors {
		label = contract.GetColorLabel(result.WinProbability)
	}
	if _, err := fmt.Fprintf(w, "Lot: %s\nWin probability: %s (%s), %d of %d trials\n",
		result.LotName, fmtPercent(fmtFloat, result.WinProbability), label, result.Wins, result.Iterations); err != nil {
		return err
	}

	stats := tablewriter.NewWriter(w)
	stats.Header([]string{"Bidder", "Min", "P5", "Median", "Mean", "P95", "Max", "Std"})
	stats.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	row := func(name string, s schema.SummaryStats) []string {
		return []string{name, fmtFloat(s.Min), fmtFloat(s.P5), fmtFloat(s.Median), fmtFloat(s.Mean), fmtFloat(s.P95), fmtFloat(s.Max), fmtFloat(s.Std)}
	}
	if err := stats.Bulk([][]string{row("Mine", result.My), row("Competitor", result.Competitor)}); err != nil {
		return err
	}
	if err := stats.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Competitor threshold (P95): %s\n", fmtFloat(result.CompetitorThreshold)); err != nil {
		return err
	}

	if len(result.Histogram) > 0 {
		hist := tablewriter.NewWriter(w)
		hist.Header([]string{"Range", "Mine", "Competitor"})
		hist.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for _, b := range result.Histogram {
			data = append(data, []string{
				fmt.Sprintf("%s-%s", fmtFloat(b.Lower), fmtFloat(b.Upper)),
				fmt.Sprintf("%d", b.Mine),
				fmt.Sprintf("%d", b.Competitor),
			})
		}
		if err := hist.Bulk(data); err != nil {
			return err
		}
		if err := hist.Render(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Simulated in %v with %d workers (seed %d)\n", duration.Round(time.Millisecond), result.Workers, result.Seed)
	return err
}

func writeSimulationCSV(w io.Writer, result schema.SimulationResult, fmtFloat func(float64) string) error {
	header := []string{"bidder", "min", "p5", "median", "mean", "p95", "max", "std", "win_probability", "iterations"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		sides := []struct {
			name  string
			stats schema.SummaryStats
		}{
			{"mine", result.My},
			{"competitor", result.Competitor},
		}
		for _, side := range sides {
			s := side.stats
			rec := []string{
				side.name, fmtFloat(s.Min), fmtFloat(s.P5), fmtFloat(s.Median), fmtFloat(s.Mean),
				fmtFloat(s.P95), fmtFloat(s.Max), fmtFloat(s.Std),
				fmtFloat(result.WinProbability), fmt.Sprintf("%d", result.Iterations),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
