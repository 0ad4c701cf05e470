package core

import (
	"time"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
)

// runTracker records one engine run in the run store. A nil tracker or one
// without a run id does nothing, so callers never branch on tracking.
type runTracker struct {
	store contract.RunStore
	runID string
}

// beginRun starts tracking a run when a run store is configured. Tracking
// failures are warnings and never stop the run.
func beginRun(mgr contract.StoreManager, kind schema.RunKind, lotID string, params map[string]any) *runTracker {
	if mgr == nil {
		return nil
	}
	runs := mgr.GetRunStore()
	if runs == nil {
		return nil
	}
	runID, err := runs.BeginRun(kind, lotID, time.Now(), params)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return nil
	}
	if runID == "" {
		return nil
	}
	return &runTracker{store: runs, runID: runID}
}

// finish records the headline metrics and closes the run.
func (t *runTracker) finish(values map[string]float64) {
	if t == nil {
		return
	}
	if len(values) > 0 {
		if err := t.store.RecordMetrics(t.runID, values); err != nil {
			contract.LogWarn("Failed to record run metrics", err)
		}
	}
	if err := t.store.EndRun(t.runID, time.Now()); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
