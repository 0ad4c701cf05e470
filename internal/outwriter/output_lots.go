package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteLotList outputs the stored lots.
func WriteLotList(lots []schema.LotSummary, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, lots)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"lot_id", "name", "base_amount", "requirements", "updated_at"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, l := range lots {
					rec := []string{l.LotID, l.Name, fmtFloat(l.BaseAmount), fmt.Sprintf(intFmt, l.Requirements), l.UpdatedAt.Format(time.RFC3339)}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported("lot list")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if len(lots) == 0 {
				_, err := fmt.Fprintln(w, "No lots stored.")
				return err
			}
			table := tablewriter.NewWriter(w)
			table.Header([]string{"ID", "Name", "Base Amount", "Reqs", "Updated"})
			table.Configure(func(cfg *tablewriter.Config) {
				cfg.Row.Alignment.Global = tw.AlignRight
			})
			nameWidth := GetMaxLabelWidth(cfg, 4)
			var data [][]string
			for _, l := range lots {
				data = append(data, []string{
					l.LotID,
					truncateLabel(l.Name, nameWidth),
					fmtFloat(l.BaseAmount),
					fmt.Sprintf(intFmt, l.Requirements),
					l.UpdatedAt.Local().Format(contract.DateTimeFormat),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

// WriteLotDetail outputs one stored lot. Text mode shows its derived ceilings.
func WriteLotDetail(lotID string, lot schema.LotConfig, updatedAt time.Time, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, lot)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMaxPointsCSV(w, algo.MaxPoints(lot), fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported("lot show")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			withDefaults := lot.WithDefaults()
			if _, err := fmt.Fprintf(w, "ID: %s (updated %s)\nBase amount: %s, max tech %s, max econ %s, alpha %s, formula %s\n",
				lotID, updatedAt.Local().Format(contract.DateTimeFormat),
				fmtFloat(withDefaults.BaseAmount), fmtFloat(withDefaults.MaxTechScore), fmtFloat(withDefaults.MaxEconScore),
				fmtFloat(withDefaults.Alpha), withDefaults.EconomicFormula); err != nil {
				return err
			}
			return writeMaxPointsTable(w, algo.MaxPoints(lot), cfg, fmtFloat)
		}, "Wrote table")
	}
}
