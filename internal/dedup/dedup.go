package dedup

import (
	"convergo/internal/dedup/service"
	"convergo/internal/dedup/store"
)

// Service runs deduplication passes.
type Service = service.Service

// Runner executes multiple passes concurrently under pass locks.
type Runner = service.Runner

// NewService constructs the deduplication service over a store.
func NewService(st store.Store, opts ...service.Option) (*Service, error) {
	return service.New(st, opts...)
}

// NewRunner constructs a pass runner.
func NewRunner(l service.Lock, opts ...service.RunnerOption) *Runner {
	return service.NewRunner(l, opts...)
}
