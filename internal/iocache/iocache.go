// Package iocache persists run history across SQL backends.
package iocache

import (
	"sync"

	"github.com/huangsam/pagegate/internal/contract"
)

// HistoryStoreManager holds the configured history store.
type HistoryStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	history      contract.HistoryStore
}

var _ contract.HistoryManager = &HistoryStoreManager{} // Compile-time check

// GetHistoryStore returns the history store, or nil before InitHistory.
func (mgr *HistoryStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
