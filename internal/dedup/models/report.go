package models

import "time"

// PassReport summarizes one completed deduplication pass.
type PassReport struct {
	RecordType       string        `json:"record_type"`
	Attribute        string        `json:"attribute"`
	DuplicatedValues int           `json:"duplicated_values"`
	GroupsResolved   int           `json:"groups_resolved"`
	RecordsDeleted   int           `json:"records_deleted"`
	Duration         time.Duration `json:"duration"`
}

// MergeEvent records one loser being folded into a winner. Published after
// the loser's relationships have been migrated and its deletion staged, so
// downstream consumers can remap identifiers they hold.
type MergeEvent struct {
	RecordType string    `json:"record_type"`
	Attribute  string    `json:"attribute"`
	Value      string    `json:"value"`
	WinnerID   string    `json:"winner_id"`
	LoserID    string    `json:"loser_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
