// Package convergo deduplicates persisted records that share a grouping
// attribute value: it finds duplicated values with a grouped count, keeps
// the record with the smallest identifier in each group, migrates the
// losers' relationships to the survivor, deletes the losers, and commits
// once. Identifier-ordered winner selection makes independent runs over
// replicated data converge on the same survivors.
package convergo

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"convergo/internal/dedup"
	"convergo/internal/dedup/lock"
	"convergo/internal/dedup/metrics"
	"convergo/internal/dedup/models"
	"convergo/internal/dedup/publisher"
	"convergo/internal/dedup/service"
	"convergo/internal/dedup/store"
	"convergo/internal/platform/config"
	plog "convergo/internal/platform/logger"
	redisclient "convergo/internal/platform/redis"
)

// Core types re-exported for callers.
type (
	Record          = models.Record
	NoRelationships = models.NoRelationships
	Descriptor      = models.Descriptor
	AttributeKind   = models.AttributeKind
	PassReport      = models.PassReport
	MergeEvent      = models.MergeEvent

	Service = dedup.Service
	Runner  = dedup.Runner
	Pass    = service.Pass

	Store        = store.Store
	Table        = store.Table
	Relationship = store.Relationship

	Config = config.Config
)

const (
	KindString = models.KindString
	KindInt    = models.KindInt
	KindFloat  = models.KindFloat
	KindBool   = models.KindBool
	KindTime   = models.KindTime
)

// NewInMemoryStore returns the in-memory store implementation.
func NewInMemoryStore() *store.InMemory { return store.NewInMemory() }

// NewService constructs a deduplication service over any store.
func NewService(st Store, opts ...service.Option) (*Service, error) {
	return dedup.NewService(st, opts...)
}

// FromEnv reads configuration from CONVERGO_* environment variables.
func FromEnv() Config { return config.FromEnv() }

// Platform is the production wiring: Postgres store, deduplication service,
// and a runner whose pass lock is Redis-backed when configured. The Kafka
// merge-event publisher is attached when brokers are configured.
type Platform struct {
	Service *Service
	Runner  *Runner
	Store   *store.Postgres
	DB      *sql.DB

	redis *redisclient.Client
	pub   publisher.Publisher
}

// Connect opens the configured backends and assembles the platform.
func Connect(cfg Config, tables []Table, logger *slog.Logger) (*Platform, error) {
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("postgres URL is required")
	}
	if logger == nil {
		logger = plog.New()
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	p := &Platform{DB: db}
	p.Store = store.NewPostgres(db, tables, store.WithBatchSize(cfg.BatchSize))

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(metrics.New()),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := publisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect kafka publisher: %w", err)
		}
		p.pub = pub
		opts = append(opts, service.WithPublisher(pub))
	}

	svc, err := dedup.NewService(p.Store, opts...)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Service = svc

	var passLock lock.PassLock = lock.NewInMemory()
	rc, err := redisclient.New(cfg.Redis)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		p.redis = rc
		passLock = lock.NewRedisLock(rc.Client)
	}
	p.Runner = dedup.NewRunner(passLock,
		service.WithRunnerLogger(logger),
		service.WithLockTTL(cfg.LockTTL),
	)

	return p, nil
}

// Health pings every backend the platform opened. Suitable for readiness
// probes.
func (p *Platform) Health(ctx context.Context) error {
	if p.DB != nil {
		if err := p.DB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres health: %w", err)
		}
	}
	if p.redis != nil {
		if err := p.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis health: %w", err)
		}
	}
	return nil
}

// Close releases every backend the platform opened.
func (p *Platform) Close() error {
	var firstErr error
	if p.pub != nil {
		if err := p.pub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.redis != nil {
		if err := p.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.DB != nil {
		if err := p.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
