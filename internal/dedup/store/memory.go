package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"convergo/internal/dedup/models"
	"convergo/pkg/platform/sentinel"
)

// InMemory keeps registered record types and their records in maps. It is
// the reference implementation for unit tests and small tools.
type InMemory struct {
	mu      sync.RWMutex
	schemas map[string]models.Descriptor
	records map[string]map[string]models.Record
	staged  map[string]map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		schemas: make(map[string]models.Descriptor),
		records: make(map[string]map[string]models.Record),
		staged:  make(map[string]map[string]struct{}),
	}
}

// Register declares a record type. Records of unregistered types are
// rejected everywhere else.
func (s *InMemory) Register(desc models.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[desc.Name] = desc
	if s.records[desc.Name] == nil {
		s.records[desc.Name] = make(map[string]models.Record)
		s.staged[desc.Name] = make(map[string]struct{})
	}
}

// Put inserts or replaces a record as durable state.
func (s *InMemory) Put(recordType string, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schemas[recordType]; !ok {
		return fmt.Errorf("put %q: %w", recordType, sentinel.ErrUnknownRecordType)
	}
	if rec.Identifier() == "" {
		return fmt.Errorf("put %q: %w", recordType, sentinel.ErrNilIdentifier)
	}
	s.records[recordType][rec.Identifier()] = rec
	return nil
}

// Records returns the durable records of a type sorted by identifier.
func (s *InMemory) Records(recordType string) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, 0, len(s.records[recordType]))
	for _, rec := range s.records[recordType] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier() < out[j].Identifier() })
	return out
}

func (s *InMemory) descriptor(recordType string) (models.Descriptor, error) {
	desc, ok := s.schemas[recordType]
	if !ok {
		return models.Descriptor{}, fmt.Errorf("record type %q: %w", recordType, sentinel.ErrUnknownRecordType)
	}
	return desc, nil
}

func (s *InMemory) DuplicatedValues(_ context.Context, recordType, attribute string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	desc, err := s.descriptor(recordType)
	if err != nil {
		return nil, err
	}
	if err := desc.ValidateGrouping(attribute); err != nil {
		return nil, err
	}

	// Counts run over durable state: staged deletions are pending changes
	// and must not influence duplicate discovery.
	counts := make(map[string]int)
	for _, rec := range s.records[recordType] {
		value, ok := rec.GroupingValue(attribute)
		if !ok {
			continue
		}
		counts[value]++
	}

	var values []string
	for value, n := range counts {
		if n > 1 {
			values = append(values, value)
		}
	}
	return values, nil
}

func (s *InMemory) FetchGroup(_ context.Context, recordType, attribute, value string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	desc, err := s.descriptor(recordType)
	if err != nil {
		return nil, err
	}
	if err := desc.ValidateGrouping(attribute); err != nil {
		return nil, err
	}

	// Unlike DuplicatedValues, fetches reflect staged deletions so a pass
	// never hands out a record it already removed.
	var group []models.Record
	for id, rec := range s.records[recordType] {
		if _, gone := s.staged[recordType][id]; gone {
			continue
		}
		v, ok := rec.GroupingValue(attribute)
		if !ok || v != value {
			continue
		}
		if rec.Identifier() == "" {
			return nil, fmt.Errorf("fetch group %q=%q: %w", attribute, value, sentinel.ErrNilIdentifier)
		}
		group = append(group, rec)
	}
	sort.Slice(group, func(i, j int) bool { return group[i].Identifier() < group[j].Identifier() })
	return group, nil
}

func (s *InMemory) Delete(_ context.Context, recordType string, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.descriptor(recordType); err != nil {
		return err
	}
	if _, ok := s.records[recordType][rec.Identifier()]; !ok {
		return fmt.Errorf("delete %q/%q: %w", recordType, rec.Identifier(), sentinel.ErrNotFound)
	}
	s.staged[recordType][rec.Identifier()] = struct{}{}
	return nil
}

func (s *InMemory) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for recordType, ids := range s.staged {
		for id := range ids {
			delete(s.records[recordType], id)
		}
		s.staged[recordType] = make(map[string]struct{})
	}
	return nil
}

// Discard drops all staged deletions without applying them.
func (s *InMemory) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for recordType := range s.staged {
		s.staged[recordType] = make(map[string]struct{})
	}
}
