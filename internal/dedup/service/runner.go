package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"convergo/internal/dedup/lock"
	"convergo/internal/dedup/models"
)

const defaultLockTTL = 5 * time.Minute

// Lock aliases the pass lock interface for wiring packages.
type Lock = lock.PassLock

// Pass names one (service, record type, attribute) unit of work. Passes in
// one Run must target independent stores; the store contract is exclusive
// single-pass access.
type Pass struct {
	Service    *Service
	RecordType string
	Attribute  string
}

// Runner executes passes concurrently, one goroutine per pass, each guarded
// by a PassLock. A pair whose lock is already held is skipped, on the
// assumption another worker is deduplicating it right now.
type Runner struct {
	lock    lock.PassLock
	logger  *slog.Logger
	lockTTL time.Duration
}

type RunnerOption func(*Runner)

func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLockTTL bounds how long a crashed worker can hold a pair's lock.
func WithLockTTL(ttl time.Duration) RunnerOption {
	return func(r *Runner) {
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

func NewRunner(l lock.PassLock, opts ...RunnerOption) *Runner {
	r := &Runner{
		lock:    l,
		lockTTL: defaultLockTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes all passes and returns their reports, indexed like passes.
// A skipped pass leaves a nil report. The first pass error cancels the
// remaining passes and is returned.
func (r *Runner) Run(ctx context.Context, passes []Pass) ([]*models.PassReport, error) {
	g, ctx := errgroup.WithContext(ctx)
	reports := make([]*models.PassReport, len(passes))

	for i, p := range passes {
		g.Go(func() error {
			release, err := r.lock.Acquire(ctx, p.RecordType, p.Attribute, r.lockTTL)
			if err != nil {
				if errors.Is(err, lock.ErrHeld) {
					r.logger.Info("pass already running elsewhere, skipping",
						"record_type", p.RecordType,
						"attribute", p.Attribute,
					)
					return nil
				}
				return err
			}
			defer release()

			report, err := p.Service.DeduplicateBy(ctx, p.RecordType, p.Attribute)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}
