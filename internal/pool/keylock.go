package pool

import (
	"sync"

	"github.com/p-arndt/driverpool/internal/capabilities"
)

// keyedMutex hands out one mutex per fingerprint. Mutexes are reference
// counted and dropped when no goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[capabilities.Fingerprint]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key capabilities.Fingerprint) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[capabilities.Fingerprint]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
