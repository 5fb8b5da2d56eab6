package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"convergo/internal/dedup/lock"
	"convergo/internal/dedup/models"
	"convergo/internal/dedup/store"
)

func newContactStore(t *testing.T, contacts ...*contact) *store.InMemory {
	t.Helper()
	mem := store.NewInMemory()
	mem.Register(contactsDescriptor())
	for _, c := range contacts {
		require.NoError(t, mem.Put("contact", c))
	}
	return mem
}

func TestRunnerRunsPassesConcurrently(t *testing.T) {
	memA := newContactStore(t,
		&contact{id: "a1", email: "x"},
		&contact{id: "a2", email: "x"},
	)
	memB := newContactStore(t,
		&contact{id: "b1", email: "y"},
		&contact{id: "b2", email: "y"},
		&contact{id: "b3", email: "y"},
	)

	svcA, err := New(memA)
	require.NoError(t, err)
	svcB, err := New(memB)
	require.NoError(t, err)

	runner := NewRunner(lock.NewInMemory())
	reports, err := runner.Run(context.Background(), []Pass{
		{Service: svcA, RecordType: "contact", Attribute: "email"},
		{Service: svcB, RecordType: "contact", Attribute: "email"},
	})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	require.Equal(t, 1, reports[0].RecordsDeleted)
	require.Equal(t, 2, reports[1].RecordsDeleted)
	require.Len(t, memA.Records("contact"), 1)
	require.Len(t, memB.Records("contact"), 1)
}

func TestRunnerSkipsHeldPair(t *testing.T) {
	mem := newContactStore(t,
		&contact{id: "a1", email: "x"},
		&contact{id: "a2", email: "x"},
	)
	svc, err := New(mem)
	require.NoError(t, err)

	l := lock.NewInMemory()
	release, err := l.Acquire(context.Background(), "contact", "email", time.Minute)
	require.NoError(t, err)
	defer release()

	runner := NewRunner(l)
	reports, err := runner.Run(context.Background(), []Pass{
		{Service: svc, RecordType: "contact", Attribute: "email"},
	})
	require.NoError(t, err)
	require.Nil(t, reports[0], "held pair is skipped, not failed")
	require.Len(t, mem.Records("contact"), 2, "skipped pass deletes nothing")
}

func TestRunnerPropagatesPassError(t *testing.T) {
	mem := newContactStore(t, &contact{id: "a1", email: "x"})
	svc, err := New(mem)
	require.NoError(t, err)

	runner := NewRunner(lock.NewInMemory())
	_, err = runner.Run(context.Background(), []Pass{
		{Service: svc, RecordType: "contact", Attribute: "missing"},
	})
	require.Error(t, err)
}

var _ models.Record = (*contact)(nil)
