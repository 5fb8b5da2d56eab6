// Package lock serializes deduplication passes per (record type, attribute)
// pair. The core itself does no locking; the Runner uses a PassLock so two
// workers never run the same pair against the same data concurrently.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrHeld is returned when the pair is already locked by another pass.
var ErrHeld = fmt.Errorf("pass lock already held")

// PassLock guards one (record type, attribute) pair. Acquire returns a
// release func that must be called on every exit path.
type PassLock interface {
	Acquire(ctx context.Context, recordType, attribute string, ttl time.Duration) (release func(), err error)
}

// InMemory serializes passes within a single process.
type InMemory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{held: make(map[string]struct{})}
}

func (l *InMemory) Acquire(_ context.Context, recordType, attribute string, _ time.Duration) (func(), error) {
	key := recordType + "/" + attribute
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, fmt.Errorf("acquire %s: %w", key, ErrHeld)
	}
	l.held[key] = struct{}{}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
