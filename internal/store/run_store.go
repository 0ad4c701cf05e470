package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
)

// Table names for run tracking.
const (
	runsTable       = "bidsim_runs"
	runMetricsTable = "bidsim_run_metrics"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runMetricsTable, getCreateRunMetricsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for bidsim_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id CHAR(36) PRIMARY KEY,
				run_kind VARCHAR(32) NOT NULL,
				lot_id VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				run_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				run_kind TEXT NOT NULL,
				lot_id TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				run_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				run_kind TEXT NOT NULL,
				lot_id TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				run_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRunMetricsQuery returns the CREATE TABLE query for bidsim_run_metrics.
func getCreateRunMetricsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runMetricsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id CHAR(36) NOT NULL,
				metric_name VARCHAR(128) NOT NULL,
				metric_value DOUBLE NOT NULL,
				PRIMARY KEY (run_id, metric_name)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				metric_name TEXT NOT NULL,
				metric_value DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, metric_name)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				metric_name TEXT NOT NULL,
				metric_value REAL NOT NULL,
				PRIMARY KEY (run_id, metric_name)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(kind schema.RunKind, lotID string, startTime time.Time, params map[string]any) (string, error) {
	// Skip for NoneBackend
	if rs.db == nil {
		return "", nil
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run params: %w", err)
	}

	runID := uuid.NewString()
	query := rebind(rs.backend, fmt.Sprintf(`INSERT INTO %s (run_id, run_kind, lot_id, start_time, run_params) VALUES (?, ?, ?, ?, ?)`,
		quoteTableName(runsTable, rs.backend)))
	if _, err := rs.db.Exec(query, runID, string(kind), lotID, formatTime(startTime, rs.backend), string(paramsJSON)); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with its end time and duration.
func (rs *RunStoreImpl) EndRun(runID string, endTime time.Time) error {
	// Skip for NoneBackend
	if rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	start := timeScanner{backend: rs.backend}
	query := rebind(rs.backend, fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName))
	if err := rs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	if startTime == nil {
		return fmt.Errorf("run %s has no start_time", runID)
	}

	durationMs := endTime.Sub(*startTime).Milliseconds()
	update := rebind(rs.backend, fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ? WHERE run_id = ?`, quotedTableName))
	if _, err := rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordMetrics stores named metrics for a run in one transaction.
func (rs *RunStoreImpl) RecordMetrics(runID string, metrics map[string]float64) error {
	// Skip for NoneBackend
	if rs.db == nil || len(metrics) == 0 {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := rebind(rs.backend, fmt.Sprintf(`INSERT INTO %s (run_id, metric_name, metric_value) VALUES (?, ?, ?)`,
		quoteTableName(runMetricsTable, rs.backend)))
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		if _, err := tx.Exec(query, runID, name, metrics[name]); err != nil {
			return fmt.Errorf("failed to insert metric %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStoreStatus, error) {
	status := schema.RunStoreStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		RunsByKind: make(map[schema.RunKind]int),
		TableSizes: make(map[string]int64),
	}

	if rs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: rs.backend}
		lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY start_time DESC LIMIT 1", quotedRuns)
		if err := rs.db.QueryRow(lastQuery).Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldest := timeScanner{backend: rs.backend}
		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY start_time ASC LIMIT 1", quotedRuns)
		if err := rs.db.QueryRow(oldestQuery).Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}

		rows, err := rs.db.Query(fmt.Sprintf("SELECT run_kind, COUNT(*) FROM %s GROUP BY run_kind", quotedRuns))
		if err != nil {
			return status, fmt.Errorf("failed to count runs by kind: %w", err)
		}
		for rows.Next() {
			var kind string
			var count int
			if err := rows.Scan(&kind, &count); err != nil {
				_ = rows.Close()
				return status, fmt.Errorf("failed to scan run kind: %w", err)
			}
			status.RunsByKind[schema.RunKind(kind)] = count
		}
		_ = rows.Close()
	}

	for _, table := range []string{runsTable, runMetricsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))
		if err := rs.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs ordered by start time.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_kind, lot_id, start_time, end_time, run_duration_ms, run_params FROM %s ORDER BY start_time, run_id`,
		quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var kind string
		start := timeScanner{backend: rs.backend}
		end := timeScanner{backend: rs.backend}
		if err := rows.Scan(&record.RunID, &kind, &record.LotID, start.dest(), end.dest(), &record.DurationMs, &record.Params); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.Kind = schema.RunKind(kind)

		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRunMetrics retrieves all run metrics ordered by run and name.
func (rs *RunStoreImpl) GetAllRunMetrics() ([]schema.RunMetricRecord, error) {
	// Skip for NoneBackend
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, metric_name, metric_value FROM %s ORDER BY run_id, metric_name`,
		quoteTableName(runMetricsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunMetricRecord
	for rows.Next() {
		var record schema.RunMetricRecord
		if err := rows.Scan(&record.RunID, &record.MetricName, &record.MetricValue); err != nil {
			return nil, fmt.Errorf("failed to scan run metric: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run metrics: %w", err)
	}
	return results, nil
}
