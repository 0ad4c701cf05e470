// Package contract provides interfaces and shared utilities for the bidsim internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/bidsim/schema"
)

// StoreManager defines the interface for reaching the persistence stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetLotStore() LotStore
	GetRunStore() RunStore
}

// LotStore is the key-value store of lot configurations keyed by lot id.
type LotStore interface {
	// Get returns the lot and the time it was last written.
	Get(lotID string) (schema.LotConfig, time.Time, error)

	// Put inserts or replaces a lot.
	Put(lotID string, lot schema.LotConfig, updatedAt time.Time) error

	// Delete removes a lot. Deleting a missing lot is an error.
	Delete(lotID string) error

	// List returns a summary of every stored lot, ordered by id.
	List() ([]schema.LotSummary, error)

	// GetStatus returns status information about the lot store.
	GetStatus() (schema.LotStoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// RunStore defines the interface for tracking engine runs and their headline metrics.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(kind schema.RunKind, lotID string, startTime time.Time, params map[string]any) (string, error)

	// EndRun updates the run with completion data
	EndRun(runID string, endTime time.Time) error

	// RecordMetrics stores named metrics for a run
	RecordMetrics(runID string, metrics map[string]float64) error

	// GetAllRuns returns every recorded run ordered by start time
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllRunMetrics returns every recorded metric ordered by run
	GetAllRunMetrics() ([]schema.RunMetricRecord, error)

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStoreStatus, error)

	// Close closes the underlying connection
	Close() error
}
