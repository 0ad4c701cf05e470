package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteOptimizationResults outputs optimizer scenarios, dispatching on the configured format.
func WriteOptimizationResults(result schema.OptimizationResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOptimizationCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported("optimize")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOptimizationTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

func writeOptimizationTable(w io.Writer, result schema.OptimizationResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Lot: %s\n", result.LotName); err != nil {
		return err
	}
	var headline string
	if result.Achievable {
		headline = fmt.Sprintf("Minimum winning discount: %s", fmtPercent(fmtFloat, *result.MinDiscount))
	} else {
		headline = fmt.Sprintf("No winning discount up to the grid limit; scenarios start from %s", fmtPercent(fmtFloat, result.BestOfferDiscount))
	}
	if _, err := fmt.Fprintln(w, headline); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Scenario", "Discount", "Price", "My Total", "Comp Total", "Margin", "Outcome", "Win %", "Revenue Δ"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, sc := range result.Scenarios {
		data = append(data, []string{
			sc.Name,
			fmtPercent(fmtFloat, sc.Discount),
			fmtFloat(sc.Price),
			fmtFloat(sc.My.Total),
			fmtFloat(sc.Competitor.Total),
			fmtFloat(sc.Margin),
			contract.GetOutcomeLabel(sc.Beats, cfg.UseColors),
			fmtOptional(fmtFloat, sc.WinProbability),
			fmtFloat(sc.RevenueDelta),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Scanned %d grid points at step %s in %v\n", result.GridPoints, fmtFloat(result.Step), duration.Round(time.Millisecond))
	return err
}

func writeOptimizationCSV(w io.Writer, result schema.OptimizationResult, fmtFloat func(float64) string) error {
	header := []string{"scenario", "discount", "price", "my_total", "competitor_total", "margin", "beats", "win_probability", "revenue_delta"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, sc := range result.Scenarios {
			win := ""
			if sc.WinProbability != nil {
				win = fmtFloat(*sc.WinProbability)
			}
			rec := []string{
				sc.Name, fmtFloat(sc.Discount), fmtFloat(sc.Price), fmtFloat(sc.My.Total),
				fmtFloat(sc.Competitor.Total), fmtFloat(sc.Margin), boolString(sc.Beats), win, fmtFloat(sc.RevenueDelta),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
