package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteScoreResults outputs a technical breakdown, dispatching on the configured format.
func WriteScoreResults(report schema.ScoreReport, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreCSV(w, report, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported("score")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreTable(w, report, cfg, fmtFloat)
		}, "Wrote table")
	}
}

func writeScoreTable(w io.Writer, report schema.ScoreReport, cfg *contract.Config, fmtFloat func(float64) string) error {
	tech := report.Technical
	if _, err := fmt.Fprintf(w, "Lot: %s\n", report.LotName); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Category", "Label", "Raw", "Max", "Weighted"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxLabelWidth(cfg, 5)
	var data [][]string
	for _, b := range tech.Breakdown {
		raw := fmtFloat(b.Raw)
		if b.Missing {
			raw = "-"
		}
		data = append(data, []string{
			b.ID,
			b.Category,
			truncateLabel(b.Label, labelWidth),
			raw,
			fmtFloat(b.MaxPoints),
			fmtFloat(b.Weighted),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Technical score: %s / %s (raw %s)\n", fmtFloat(tech.Total), fmtFloat(tech.MaxTechScore), fmtFloat(tech.RawTotal)); err != nil {
		return err
	}
	if bid := report.Bid; bid != nil {
		if _, err := fmt.Fprintf(w, "Discount %s, price %s: economic %s, total %s\n",
			fmtPercent(fmtFloat, bid.Discount), fmtFloat(bid.Price), fmtFloat(bid.Economic), fmtFloat(bid.Total)); err != nil {
			return err
		}
	}
	return writeWarnings(w, tech.Warnings)
}

func writeScoreCSV(w io.Writer, report schema.ScoreReport, fmtFloat func(float64) string) error {
	header := []string{"id", "category", "label", "raw", "max_points", "weighted", "missing"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, b := range report.Technical.Breakdown {
			rec := []string{b.ID, b.Category, b.Label, fmtFloat(b.Raw), fmtFloat(b.MaxPoints), fmtFloat(b.Weighted), boolString(b.Missing)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		summary := [][]string{{"technical_total", "summary", "", fmtFloat(report.Technical.RawTotal), "", fmtFloat(report.Technical.Total), "false"}}
		if bid := report.Bid; bid != nil {
			summary = append(summary,
				[]string{"economic", "summary", "", "", "", fmtFloat(bid.Economic), "false"},
				[]string{"total", "summary", "", "", "", fmtFloat(bid.Total), "false"},
			)
		}
		for _, rec := range summary {
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteEconomicResults outputs a standalone economic score.
func WriteEconomicResults(result schema.EconomicResult, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"formula", "base_amount", "offered_price", "best_price", "alpha", "max_econ_score", "score"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				return cw.Write([]string{
					string(result.Formula), fmtFloat(result.BaseAmount), fmtFloat(result.OfferedPrice),
					fmtFloat(result.BestPrice), fmtFloat(result.Alpha), fmtFloat(result.MaxEconScore), fmtFloat(result.Score),
				})
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported("economic")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Field", "Value"})
			rows := [][]string{
				{"Formula", string(result.Formula)},
				{"Base amount", fmtFloat(result.BaseAmount)},
				{"Offered price", fmtFloat(result.OfferedPrice)},
				{"Best price", fmtFloat(result.BestPrice)},
				{"Alpha", fmtFloat(result.Alpha)},
				{"Max economic score", fmtFloat(result.MaxEconScore)},
				{"Economic score", fmtFloat(result.Score)},
			}
			if err := table.Bulk(rows); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}
