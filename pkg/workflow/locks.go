package workflow

import "sync"

// ownerLocks serializes turns per owner+kind. A second turn for the same
// session waits for the one in flight; distinct owners run concurrently.
// Entries are reference-counted and dropped once the last holder releases,
// so the map does not grow with every owner ever seen.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{
		locks: make(map[string]*ownerLock),
	}
}

func (l *ownerLocks) acquire(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &ownerLock{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
