package iocache

import (
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetSnapshotStore implements the CacheManager interface.
func (m *MockCacheManager) GetSnapshotStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetHistoryStore implements the CacheManager interface.
func (m *MockCacheManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	ts, _ := args.Get(2).(int64)
	return data, args.Int(1), ts, args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	return m.Called(key, data, version, ts).Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	return m.Called().Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.CacheStatus)
	return status, args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(runID string, url string, startTime time.Time, configParams map[string]any) error {
	return m.Called(runID, url, startTime, configParams).Error(0)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID string, endTime time.Time, report *schema.Report) error {
	return m.Called(runID, endTime, report).Error(0)
}

// RecordMetric implements the HistoryStore interface.
func (m *MockHistoryStore) RecordMetric(runID string, result schema.MetricResult) error {
	return m.Called(runID, result).Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.HistoryStatus)
	return status, args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllMetrics implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllMetrics() ([]schema.MetricRecord, error) {
	args := m.Called()
	metrics, _ := args.Get(0).([]schema.MetricRecord)
	return metrics, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	return m.Called().Error(0)
}
