package schema

import "time"

// LotStoreStatus represents the status of the lot store.
type LotStoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalLots       int       `json:"total_lots"`
	LastUpdateTime  time.Time `json:"last_update_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStoreStatus represents the status of the run history store.
type RunStoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	RunsByKind    map[RunKind]int  `json:"runs_by_kind"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// LotSummary is a listing entry for a stored lot.
type LotSummary struct {
	LotID        string    `json:"lot_id"`
	Name         string    `json:"name"`
	BaseAmount   float64   `json:"base_amount"`
	Requirements int       `json:"requirements"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunRecord represents a row from the bidsim_runs table.
type RunRecord struct {
	RunID      string
	Kind       RunKind
	LotID      string
	StartTime  time.Time
	EndTime    *time.Time
	DurationMs *int64
	Params     *string
}

// RunMetricRecord represents a row from the bidsim_run_metrics table.
type RunMetricRecord struct {
	RunID       string
	MetricName  string
	MetricValue float64
}
