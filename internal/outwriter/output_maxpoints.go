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

// WriteMaxPointsResults outputs requirement ceilings, dispatching on the configured format.
func WriteMaxPointsResults(result schema.MaxPointsResult, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMaxPointsCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errParquetUnsupported("maxpoints")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMaxPointsTable(w, result, cfg, fmtFloat)
		}, "Wrote table")
	}
}

func writeMaxPointsTable(w io.Writer, result schema.MaxPointsResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "Lot: %s\n", result.LotName); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Type", "Label", "Max Points", "Override", "Gara Weight"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxLabelWidth(cfg, 5)
	var data [][]string
	for _, r := range result.Requirements {
		override := ""
		if r.Overridden {
			override = "manual"
		}
		data = append(data, []string{
			r.ID,
			string(r.Type),
			truncateLabel(r.Label, labelWidth),
			fmtFloat(r.MaxPoints),
			override,
			fmtFloat(r.GaraWeight),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Certification points: %s, max raw score: %s\n", fmtFloat(result.CertPoints), fmtFloat(result.MaxRawScore)); err != nil {
		return err
	}
	return writeWarnings(w, result.Warnings)
}

func writeMaxPointsCSV(w io.Writer, result schema.MaxPointsResult, fmtFloat func(float64) string) error {
	header := []string{"id", "type", "label", "max_points", "overridden", "gara_weight"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range result.Requirements {
			rec := []string{r.ID, string(r.Type), r.Label, fmtFloat(r.MaxPoints), boolString(r.Overridden), fmtFloat(r.GaraWeight)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeWarnings prints configuration warnings below a table.
func writeWarnings(w io.Writer, warnings []string) error {
	for _, msg := range warnings {
		if _, err := fmt.Fprintf(w, "⚠️  %s\n", msg); err != nil {
			return err
		}
	}
	return nil
}

// errParquetUnsupported reports an output mode a command cannot honour.
func errParquetUnsupported(command string) error {
	return fmt.Errorf("parquet output is not supported for %s (use it with simulate)", command)
}
