package service

import "sync"

// documentLocks serialises work on the same document. Entries are dropped
// once no goroutine holds or waits for them.
type documentLocks struct {
	mu    sync.Mutex
	locks map[string]*documentLock
}

type documentLock struct {
	mu   sync.Mutex
	refs int
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[string]*documentLock)}
}

// lock blocks until key is free and returns the matching unlock.
func (l *documentLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &documentLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *documentLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
