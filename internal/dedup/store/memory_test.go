package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"convergo/internal/dedup/models"
	"convergo/pkg/platform/sentinel"
)

type memRecord struct {
	models.NoRelationships
	id   string
	name string
}

func (r *memRecord) Identifier() string { return r.id }

func (r *memRecord) GroupingValue(attribute string) (string, bool) {
	if attribute != "name" || r.name == "" {
		return "", false
	}
	return r.name, true
}

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.store.Register(models.Descriptor{
		Name: "item",
		Attributes: map[string]models.AttributeKind{
			"name":  models.KindString,
			"count": models.KindInt,
		},
	})
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) put(id, name string) *memRecord {
	rec := &memRecord{id: id, name: name}
	s.Require().NoError(s.store.Put("item", rec))
	return rec
}

func (s *InMemoryStoreSuite) TestDuplicatedValues() {
	s.Run("returns only values with count above one", func() {
		s.put("1", "x")
		s.put("2", "x")
		s.put("3", "y")

		values, err := s.store.DuplicatedValues(s.ctx, "item", "name")
		s.Require().NoError(err)
		s.Equal([]string{"x"}, values)
	})

	s.Run("null values never count", func() {
		s.put("4", "")
		s.put("5", "")

		values, err := s.store.DuplicatedValues(s.ctx, "item", "name")
		s.Require().NoError(err)
		s.Equal([]string{"x"}, values)
	})

	s.Run("staged deletions stay in the count until commit", func() {
		rec := s.put("6", "z")
		s.put("7", "z")
		s.Require().NoError(s.store.Delete(s.ctx, "item", rec))

		values, err := s.store.DuplicatedValues(s.ctx, "item", "name")
		s.Require().NoError(err)
		s.ElementsMatch([]string{"x", "z"}, values)

		s.Require().NoError(s.store.Commit(s.ctx))
		values, err = s.store.DuplicatedValues(s.ctx, "item", "name")
		s.Require().NoError(err)
		s.ElementsMatch([]string{"x"}, values)
	})
}

func (s *InMemoryStoreSuite) TestFetchGroup() {
	s.Run("sorted ascending by identifier", func() {
		s.put("c", "x")
		s.put("a", "x")
		s.put("b", "x")

		group, err := s.store.FetchGroup(s.ctx, "item", "name", "x")
		s.Require().NoError(err)
		s.Require().Len(group, 3)
		s.Equal("a", group[0].Identifier())
		s.Equal("b", group[1].Identifier())
		s.Equal("c", group[2].Identifier())
	})

	s.Run("staged deletions are invisible to fetches", func() {
		group, err := s.store.FetchGroup(s.ctx, "item", "name", "x")
		s.Require().NoError(err)
		s.Require().NoError(s.store.Delete(s.ctx, "item", group[2]))

		group, err = s.store.FetchGroup(s.ctx, "item", "name", "x")
		s.Require().NoError(err)
		s.Len(group, 2)
	})
}

func (s *InMemoryStoreSuite) TestValidation() {
	s.Run("unknown record type", func() {
		_, err := s.store.DuplicatedValues(s.ctx, "order", "name")
		s.Require().ErrorIs(err, sentinel.ErrUnknownRecordType)
	})

	s.Run("unknown attribute", func() {
		_, err := s.store.FetchGroup(s.ctx, "item", "color", "x")
		s.Require().ErrorIs(err, sentinel.ErrUnknownAttribute)
	})

	s.Run("non-string attribute", func() {
		_, err := s.store.DuplicatedValues(s.ctx, "item", "count")
		s.Require().ErrorIs(err, sentinel.ErrTypeMismatch)
	})

	s.Run("empty identifier rejected at insert", func() {
		err := s.store.Put("item", &memRecord{id: "", name: "x"})
		s.Require().ErrorIs(err, sentinel.ErrNilIdentifier)
	})
}

func (s *InMemoryStoreSuite) TestDiscard() {
	rec := s.put("1", "x")
	s.put("2", "x")
	s.Require().NoError(s.store.Delete(s.ctx, "item", rec))

	s.store.Discard()
	s.Require().NoError(s.store.Commit(s.ctx))
	s.Len(s.store.Records("item"), 2, "discarded deletions never apply")
}

func (s *InMemoryStoreSuite) TestDeleteUnknownRecord() {
	err := s.store.Delete(s.ctx, "item", &memRecord{id: "ghost", name: "x"})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
