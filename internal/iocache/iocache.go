// Package iocache is for caching I/O calls and tracking scoring runs.
package iocache

import (
	"sync"

	"github.com/huangsam/trustscore/internal/contract"
)

// CacheStoreManager holds the snapshot cache and the run history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	snapshot     contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// NewCacheStoreManager wraps already opened stores. Either may be nil.
func NewCacheStoreManager(snapshot contract.CacheStore, history contract.HistoryStore) *CacheStoreManager {
	return &CacheStoreManager{snapshot: snapshot, history: history}
}

// GetSnapshotStore returns the snapshot CacheStore.
func (mgr *CacheStoreManager) GetSnapshotStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshot
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
