// Package service implements duplicate discovery, group resolution, and
// pass orchestration against a single store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"convergo/internal/dedup/metrics"
	"convergo/internal/dedup/models"
	"convergo/internal/dedup/publisher"
	"convergo/internal/dedup/store"
	dErrors "convergo/pkg/domain-errors"
	"convergo/pkg/platform/sentinel"
)

// Type aliases for shared interfaces.
type (
	Store     = store.Store
	Publisher = publisher.Publisher
)

// Service runs deduplication passes. One pass owns its store exclusively
// for the duration of the call; the caller serializes access.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublisher emits one merge event per deleted loser. Publishing is best
// effort; failures are logged and never abort the pass.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(st Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("dedup store is required")
	}

	svc := &Service{
		store:  st,
		tracer: otel.Tracer("convergo/dedup"),
	}

	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	return svc, nil
}

// DeduplicateBy removes duplicate records of recordType sharing a value of
// attribute. For each duplicated value the group is fetched sorted
// ascending by identifier, the first record survives, and every loser has
// its relationships migrated to the survivor before deletion. The store is
// committed exactly once, after all groups resolve; any earlier failure
// aborts the pass with staged deletions left uncommitted.
func (s *Service) DeduplicateBy(ctx context.Context, recordType, attribute string) (*models.PassReport, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "dedup.pass", trace.WithAttributes(
		otelattr.String("record_type", recordType),
		otelattr.String("attribute", attribute),
	))
	defer span.End()

	values, err := s.store.DuplicatedValues(ctx, recordType, attribute)
	if err != nil {
		return nil, s.fail(span, recordType, start, classify(err))
	}

	report := &models.PassReport{
		RecordType:       recordType,
		Attribute:        attribute,
		DuplicatedValues: len(values),
	}

	for _, value := range values {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(span, recordType, start, dErrors.Wrap(err, dErrors.CodeInternal, "deduplication pass cancelled"))
		}
		survivor, deleted, err := s.resolveGroup(ctx, recordType, attribute, value)
		if err != nil {
			return nil, s.fail(span, recordType, start, classify(err))
		}
		report.GroupsResolved++
		report.RecordsDeleted += deleted
		if survivor != nil {
			s.logger.Debug("duplicate group resolved",
				"record_type", recordType,
				"attribute", attribute,
				"value", value,
				"survivor", survivor.Identifier(),
				"deleted", deleted,
			)
		}
	}

	// Commit runs on the zero-duplicates path too; with nothing staged it
	// is a no-op save.
	if err := s.store.Commit(ctx); err != nil {
		return nil, s.fail(span, recordType, start, dErrors.Wrap(err, dErrors.CodeCommitFailure, "commit deduplication pass"))
	}

	report.Duration = time.Since(start)
	s.metrics.RecordPass(recordType, "ok", report.Duration)
	s.logger.Info("deduplication pass complete",
		"record_type", recordType,
		"attribute", attribute,
		"duplicated_values", report.DuplicatedValues,
		"records_deleted", report.RecordsDeleted,
		"duration", report.Duration,
	)
	return report, nil
}

// resolveGroup folds one duplicate group into its survivor and returns the
// survivor and the number of deletions staged.
func (s *Service) resolveGroup(ctx context.Context, recordType, attribute, value string) (models.Record, int, error) {
	ctx, span := s.tracer.Start(ctx, "dedup.resolve_group")
	defer span.End()

	group, err := s.store.FetchGroup(ctx, recordType, attribute, value)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("fetch group %q=%q: %w", attribute, value, err)
	}
	if len(group) < 2 {
		// The group shrank since discovery; nothing left to resolve.
		return nil, 0, nil
	}

	winner := group[0]
	deleted := 0
	for _, loser := range group[1:] {
		if err := loser.MoveRelationships(ctx, winner); err != nil {
			span.RecordError(err)
			return nil, deleted, fmt.Errorf("move relationships %q -> %q: %w", loser.Identifier(), winner.Identifier(), err)
		}
		if err := s.store.Delete(ctx, recordType, loser); err != nil {
			span.RecordError(err)
			return nil, deleted, fmt.Errorf("delete loser %q: %w", loser.Identifier(), err)
		}
		deleted++
		s.publish(ctx, models.MergeEvent{
			RecordType: recordType,
			Attribute:  attribute,
			Value:      value,
			WinnerID:   winner.Identifier(),
			LoserID:    loser.Identifier(),
			OccurredAt: time.Now().UTC(),
		})
	}

	span.SetAttributes(otelattr.Int("group_size", len(group)), otelattr.Int("deleted", deleted))
	s.metrics.RecordGroup(len(group), deleted)
	return winner, deleted, nil
}

func (s *Service) publish(ctx context.Context, event models.MergeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("merge event publish failed",
			"record_type", event.RecordType,
			"winner_id", event.WinnerID,
			"loser_id", event.LoserID,
			"error", err,
		)
	}
}

func (s *Service) fail(span trace.Span, recordType string, start time.Time, err *dErrors.Error) error {
	span.RecordError(err)
	s.metrics.RecordPass(recordType, "error", time.Since(start))
	return err
}

// classify translates store sentinels into coded errors for callers.
func classify(err error) *dErrors.Error {
	switch {
	case errors.Is(err, sentinel.ErrUnknownRecordType),
		errors.Is(err, sentinel.ErrUnknownAttribute),
		errors.Is(err, sentinel.ErrNilIdentifier):
		return dErrors.Wrap(err, dErrors.CodeConfiguration, "deduplication misconfigured")
	case errors.Is(err, sentinel.ErrTypeMismatch):
		return dErrors.Wrap(err, dErrors.CodeTypeMismatch, "grouping attribute is not groupable")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "record vanished during deduplication")
	default:
		return dErrors.Wrap(err, dErrors.CodeStoreFailure, "store failure during deduplication")
	}
}
