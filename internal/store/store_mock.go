package store

import (
	"time"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetLotStore implements the StoreManager interface.
func (m *MockStoreManager) GetLotStore() contract.LotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.LotStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockLotStore is a mock implementation of LotStore for testing.
type MockLotStore struct {
	mock.Mock
}

var _ contract.LotStore = &MockLotStore{} // Compile-time check

// Get implements the LotStore interface.
func (m *MockLotStore) Get(lotID string) (schema.LotConfig, time.Time, error) {
	args := m.Called(lotID)
	return args.Get(0).(schema.LotConfig), args.Get(1).(time.Time), args.Error(2)
}

// Put implements the LotStore interface.
func (m *MockLotStore) Put(lotID string, lot schema.LotConfig, updatedAt time.Time) error {
	args := m.Called(lotID, lot, updatedAt)
	return args.Error(0)
}

// Delete implements the LotStore interface.
func (m *MockLotStore) Delete(lotID string) error {
	args := m.Called(lotID)
	return args.Error(0)
}

// List implements the LotStore interface.
func (m *MockLotStore) List() ([]schema.LotSummary, error) {
	args := m.Called()
	lots, _ := args.Get(0).([]schema.LotSummary)
	return lots, args.Error(1)
}

// GetStatus implements the LotStore interface.
func (m *MockLotStore) GetStatus() (schema.LotStoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.LotStoreStatus), args.Error(1)
}

// Close implements the LotStore interface.
func (m *MockLotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(kind schema.RunKind, lotID string, startTime time.Time, params map[string]any) (string, error) {
	args := m.Called(kind, lotID, startTime, params)
	return args.String(0), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID string, endTime time.Time) error {
	args := m.Called(runID, endTime)
	return args.Error(0)
}

// RecordMetrics implements the RunStore interface.
func (m *MockRunStore) RecordMetrics(runID string, metrics map[string]float64) error {
	args := m.Called(runID, metrics)
	return args.Error(0)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllRunMetrics implements the RunStore interface.
func (m *MockRunStore) GetAllRunMetrics() ([]schema.RunMetricRecord, error) {
	args := m.Called()
	metrics, _ := args.Get(0).([]schema.RunMetricRecord)
	return metrics, args.Error(1)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStoreStatus), args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
