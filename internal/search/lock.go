package search

import "sync/atomic"

// sessionLock provides non-blocking lock semantics for project searches.
type sessionLock struct {
	state atomic.Int32 // 0 = idle, 1 = searching
}

// TryAcquire attempts to take the lock without blocking.
func (l *sessionLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *sessionLock) Release() {
	l.state.Store(0)
}

// Held reports whether a project search is running.
func (l *sessionLock) Held() bool {
	return l.state.Load() == 1
}
