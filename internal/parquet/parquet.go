// Package parquet provides data structures and functions for exporting bidsim
// run history and Monte Carlo trials to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/bidsim/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single engine run with metadata.
// This struct maps to the bidsim_runs database table.
type Run struct {
	// RunID is the UUID of this run
	RunID string `parquet:"run_id,snappy"`

	// RunKind is the engine operation (score, simulate, optimize)
	RunKind string `parquet:"run_kind,snappy"`

	// LotID identifies the lot the run was computed for
	LotID string `parquet:"lot_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// RunParams contains the JSON-encoded run parameters (nullable)
	RunParams *string `parquet:"run_params,optional,snappy"`
}

// RunMetric is one named metric of a run.
// This struct maps to the bidsim_run_metrics database table.
type RunMetric struct {
	RunID       string  `parquet:"run_id,snappy"`
	MetricName  string  `parquet:"metric_name,snappy"`
	MetricValue float64 `parquet:"metric_value,snappy"`
}

// Trial is one Monte Carlo trial, suitable for offline distribution analysis.
type Trial struct {
	Trial              int32   `parquet:"trial,snappy"`
	CompetitorDiscount float64 `parquet:"competitor_discount,snappy"`
	CompetitorTech     float64 `parquet:"competitor_tech,snappy"`
	BestPrice          float64 `parquet:"best_price,snappy"`
	MyEconomic         float64 `parquet:"my_economic,snappy"`
	CompetitorEconomic float64 `parquet:"competitor_economic,snappy"`
	MyTotal            float64 `parquet:"my_total,snappy"`
	CompetitorTotal    float64 `parquet:"competitor_total,snappy"`
	Win                bool    `parquet:"win,snappy"`
}

// writeParquet writes rows of T to w, inferring the schema from struct tags.
func writeParquet[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeParquetFile creates outputPath and writes rows of T to it.
func writeParquetFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return writeParquet(file, data)
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteRunMetricsParquet writes a slice of RunMetric structs to a Parquet file.
func WriteRunMetricsParquet(data []RunMetric, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteTrials writes Monte Carlo trials to w.
func WriteTrials(w io.Writer, data []Trial) error {
	return writeParquet(w, data)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RunKind:       string(record.Kind),
			LotID:         record.LotID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.DurationMs,
			RunParams:     record.Params,
		}
	}
	return result
}

// ConvertRunMetricRecords converts schema.RunMetricRecord to RunMetric for Parquet export.
func ConvertRunMetricRecords(records []schema.RunMetricRecord) []RunMetric {
	result := make([]RunMetric, len(records))
	for i, record := range records {
		result[i] = RunMetric(record)
	}
	return result
}

// ConvertTrialRecords converts schema.TrialRecord to Trial for Parquet export.
func ConvertTrialRecords(records []schema.TrialRecord) []Trial {
	result := make([]Trial, len(records))
	for i, r := range records {
		result[i] = Trial{
			Trial:              int32(r.Trial),
			CompetitorDiscount: r.CompetitorDiscount,
			CompetitorTech:     r.CompetitorTech,
			BestPrice:          r.BestPrice,
			MyEconomic:         r.MyEconomic,
			CompetitorEconomic: r.CompetitorEconomic,
			MyTotal:            r.MyTotal,
			CompetitorTotal:    r.CompetitorTotal,
			Win:                r.Win,
		}
	}
	return result
}
