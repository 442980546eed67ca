package application

import "sync"

// ResourceLocks serialises mutations per resource id so a conflict check and
// the status write that depends on it form one critical section. The registry
// and reservation services share a single instance.
type ResourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResourceLocks constructs an empty lock set.
func NewResourceLocks() *ResourceLocks {
	return &ResourceLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the mutex for the resource id and returns its release
// function. Locks are never removed; the pool is small and stable.
func (l *ResourceLocks) Acquire(resourceID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[resourceID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[resourceID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
