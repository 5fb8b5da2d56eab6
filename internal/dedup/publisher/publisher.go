// Package publisher emits merge events so downstream systems can remap
// identifiers after a deduplication pass folds losers into winners.
package publisher

import (
	"context"
	"sync"

	"convergo/internal/dedup/models"
)

// Publisher delivers merge events. Delivery is best effort from the pass's
// point of view: a failed publish is logged by the service, never fatal.
type Publisher interface {
	Publish(ctx context.Context, event models.MergeEvent) error
	Close() error
}

// InMemory collects events for tests and embedded use.
type InMemory struct {
	mu     sync.Mutex
	events []models.MergeEvent
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (p *InMemory) Publish(_ context.Context, event models.MergeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *InMemory) Events() []models.MergeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MergeEvent{}, p.events...)
}

func (p *InMemory) Close() error { return nil }
