// Package store defines the persistence-context surface a deduplication
// pass consumes, with in-memory and PostgreSQL implementations.
//
// A Store stages deletions; nothing is durable until Commit. The calling
// convention is single-pass exclusive access: one pass per store at a time,
// serialized by the caller. Stores do no internal locking beyond what they
// need to stay memory-safe.
package store

import (
	"context"

	"convergo/internal/dedup/models"
)

// Store is the persistence context a pass runs against.
type Store interface {
	// DuplicatedValues groups records of recordType by attribute and
	// returns the values that occur on more than one record. The count
	// reflects durable state only: deletions staged but not yet committed
	// are excluded. Null-valued records never group. The returned set is
	// unordered.
	DuplicatedValues(ctx context.Context, recordType, attribute string) ([]string, error)

	// FetchGroup returns every record of recordType whose attribute equals
	// value, sorted ascending by identifier, reflecting staged changes.
	// A record with a null identifier is a configuration violation and
	// surfaces as sentinel.ErrNilIdentifier.
	FetchGroup(ctx context.Context, recordType, attribute, value string) ([]models.Record, error)

	// Delete stages rec for deletion. The deletion becomes durable on
	// Commit.
	Delete(ctx context.Context, recordType string, rec models.Record) error

	// Commit makes all staged changes durable. With nothing staged it
	// succeeds as a no-op.
	Commit(ctx context.Context) error
}
