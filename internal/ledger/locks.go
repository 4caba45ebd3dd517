package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// sellerLocks serializes in-process balance writes per seller. The row lock
// and version column cover writers in other processes.
type sellerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sellerLock
}

type sellerLock struct {
	mu   sync.Mutex
	refs int
}

func newSellerLocks() *sellerLocks {
	return &sellerLocks{locks: make(map[uuid.UUID]*sellerLock)}
}

func (l *sellerLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &sellerLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
