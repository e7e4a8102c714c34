package store

import "sync"

// objectLocks hands out one RWMutex per object name. Entries are reference
// counted and dropped once no caller holds or waits on them.
type objectLocks struct {
	mu    sync.Mutex
	locks map[string]*objectLock
}

type objectLock struct {
	sync.RWMutex
	refs int
}

func newObjectLocks() *objectLocks {
	return &objectLocks{locks: make(map[string]*objectLock)}
}

func (l *objectLocks) acquire(name string) *objectLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk, ok := l.locks[name]
	if !ok {
		lk = &objectLock{}
		l.locks[name] = lk
	}
	lk.refs++
	return lk
}

func (l *objectLocks) release(name string, lk *objectLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, name)
	}
}

// Lock takes the exclusive lock for name and returns its unlock func
func (l *objectLocks) Lock(name string) func() {
	lk := l.acquire(name)
	lk.Lock()
	return func() {
		lk.Unlock()
		l.release(name, lk)
	}
}

// RLock takes the shared lock for name and returns its unlock func
func (l *objectLocks) RLock(name string) func() {
	lk := l.acquire(name)
	lk.RLock()
	return func() {
		lk.RUnlock()
		l.release(name, lk)
	}
}

func (l *objectLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
