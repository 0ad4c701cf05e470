// Package store persists lot configurations and run history behind one of
// several SQL backends.
package store

import (
	"errors"
	"sync"

	"github.com/huangsam/bidsim/internal/contract"
)

// ErrLotNotFound is returned when a lot id has no stored configuration.
var ErrLotNotFound = errors.New("lot not found")

// StoreManager manages the lot and run store instances.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	lots         contract.LotStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetLotStore returns the LotStore.
func (mgr *StoreManager) GetLotStore() contract.LotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.lots
}

// GetRunStore returns the RunStore.
func (mgr *StoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}

// NewStoreManager wires already-open stores, mainly for tests and embedding.
func NewStoreManager(lots contract.LotStore, runs contract.RunStore) *StoreManager {
	return &StoreManager{lots: lots, runs: runs}
}
