package models

import "context"

// Record is the capability every deduplicable type implements.
//
// Invariants:
//   - Identifier is globally unique, stable, and populated identically on
//     every replica that may run a pass independently. That is what lets
//     independent runs over synced data converge on the same survivor.
//   - GroupingValue reports ok=false when the attribute is null/unset;
//     such records are excluded from grouping entirely.
//   - MoveRelationships is called exactly once per loser, strictly before
//     that loser is deleted, with losers in ascending identifier order.
//     Since every loser maps to the same winner, the hook must not depend
//     on cross-loser ordering for correctness of its side effects.
type Record interface {
	// Identifier returns the record's stable unique id. An empty string is
	// treated as a null identifier, which is a configuration violation.
	Identifier() string

	// GroupingValue returns the value of the named attribute and whether
	// it is set.
	GroupingValue(attribute string) (string, bool)

	// MoveRelationships re-points any relationships this record holds to
	// the winner so no orphaned references remain after deletion.
	MoveRelationships(ctx context.Context, winner Record) error
}

// NoRelationships is the default hook for types with nothing to migrate.
// Embed it to satisfy the Record interface.
type NoRelationships struct{}

func (NoRelationships) MoveRelationships(context.Context, Record) error { return nil }
