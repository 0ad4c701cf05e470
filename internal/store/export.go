package store

import (
	"errors"
	"fmt"

	"github.com/huangsam/bidsim/internal/parquet"
)

// ExecuteRunsExport exports run history to Parquet files.
func ExecuteRunsExport(outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	runs := Manager.GetRunStore()
	if runs == nil {
		return errors.New("run store is not initialized")
	}

	status, err := runs.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total metric records: %d\n", status.TableSizes[runMetricsTable])

	runRecords, err := runs.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	metricRecords, err := runs.GetAllRunMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve run metrics: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runRecords)
	parquetMetrics := parquet.ConvertRunMetricRecords(metricRecords)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	metricsFile := outputFile + ".run_metrics.parquet"
	if err := parquet.WriteRunMetricsParquet(parquetMetrics, metricsFile); err != nil {
		return fmt.Errorf("failed to write run metrics: %w", err)
	}
	fmt.Printf("Exported %d metric records to: %s\n", len(parquetMetrics), metricsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
