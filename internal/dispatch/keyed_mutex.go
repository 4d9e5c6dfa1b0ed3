// ABOUTME: Per-key mutual exclusion with reference-counted entries
// ABOUTME: Serializes turns on one thread id while other threads run in parallel

package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type keyedEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// keyedMutex hands out one single-slot semaphore per key. Entries are removed
// once no goroutine holds or waits on them, so idle threads cost nothing.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*keyedEntry)}
}

// Lock blocks until key is held or ctx is done. On success it returns the
// matching unlock func; on cancellation it returns ctx's error.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{sem: semaphore.NewWeighted(1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.release(key, e)
		return nil, err
	}

	return func() {
		e.sem.Release(1)
		k.release(key, e)
	}, nil
}

func (k *keyedMutex) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// size reports how many keys are currently held or awaited.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
