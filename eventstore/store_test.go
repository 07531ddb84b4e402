package eventstore

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/eventscape/errors"
)

func makeEvent(id string, receivedAt time.Time) Event {
	return Event{
		EventID:       id,
		Timestamp:     receivedAt,
		Domain:        "orders",
		AggregateType: "order",
		EventType:     "order.created",
		ReceivedAt:    receivedAt,
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{MaxEvents: 0, Retention: time.Minute}.Validate())
	assert.Error(t, Config{MaxEvents: 10, Retention: 0}.Validate())
}

func TestStoreIngestAndGet(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)

	now := time.Now()
	evicted, err := s.Ingest(makeEvent("a", now))
	require.NoError(t, err)
	assert.Empty(t, evicted)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.EventID)
	assert.True(t, s.Contains("a"))

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStoreRejectsDuplicates(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)

	now := time.Now()
	_, err = s.Ingest(makeEvent("a", now))
	require.NoError(t, err)

	_, err = s.Ingest(makeEvent("a", now.Add(time.Second)))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, cerrors.ErrDuplicateEvent))
	assert.Equal(t, 1, s.Len())
}

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	s, err := New(Config{MaxEvents: 3, Retention: time.Hour})
	require.NoError(t, err)

	now := time.Now()
	for i := 0; i < 3; i++ {
		_, err := s.Ingest(makeEvent(fmt.Sprintf("e%d", i), now.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	evicted, err := s.Ingest(makeEvent("e3", now.Add(3*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, []string{"e0"}, evicted)
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Contains("e0"))
	assert.True(t, s.Contains("e3"))
}

func TestStoreEvictExpired(t *testing.T) {
	s, err := New(Config{MaxEvents: 10, Retention: time.Minute})
	require.NoError(t, err)

	now := time.Now()
	_, err = s.Ingest(makeEvent("old", now.Add(-2*time.Minute)))
	require.NoError(t, err)
	_, err = s.Ingest(makeEvent("older", now.Add(-3*time.Minute)))
	require.NoError(t, err)
	_, err = s.Ingest(makeEvent("fresh", now))
	require.NoError(t, err)

	// Order matters: ingest order is old before older here, so the
	// expiry scan stops at the first unexpired event; out-of-order
	// receipt keeps the insertion ordering.
	evicted := s.EvictExpired(now)
	assert.Equal(t, []string{"old", "older"}, evicted)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains("fresh"))
}

func TestStoreRemove(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)

	now := time.Now()
	_, err = s.Ingest(makeEvent("a", now))
	require.NoError(t, err)

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 0, s.Len())
}

func TestStoreSnapshotOrdering(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)

	now := time.Now()
	for i := 0; i < 5; i++ {
		_, err := s.Ingest(makeEvent(fmt.Sprintf("e%d", i), now.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	snap := s.Snapshot()
	require.Len(t, snap, 5)
	for i, ev := range snap {
		assert.Equal(t, fmt.Sprintf("e%d", i), ev.EventID, "snapshot is oldest first")
	}

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "e4", recent[0].EventID, "recent is newest first")
	assert.Equal(t, "e3", recent[1].EventID)

	all := s.Recent(100)
	assert.Len(t, all, 5)

	assert.Empty(t, s.Recent(0))
	assert.Empty(t, s.Recent(-1), "negative counts return nothing")
}

func TestStoreByCorrelation(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)

	now := time.Now()
	a := makeEvent("a", now)
	a.CorrelationID = "corr-1"
	b := makeEvent("b", now.Add(time.Second))
	b.CorrelationID = "corr-1"
	c := makeEvent("c", now.Add(2*time.Second))
	c.CorrelationID = "corr-2"

	for _, ev := range []Event{a, b, c} {
		_, err := s.Ingest(ev)
		require.NoError(t, err)
	}

	chain := s.ByCorrelation("corr-1")
	require.Len(t, chain, 2)
	assert.Equal(t, "a", chain[0].EventID)
	assert.Equal(t, "b", chain[1].EventID)

	assert.Nil(t, s.ByCorrelation(""))
	assert.Empty(t, s.ByCorrelation("corr-none"))
}
