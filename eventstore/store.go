package eventstore

import (
	"slices"
	"sync"
	"time"

	"github.com/c360/eventscape/errors"
)

// Default window bounds. These match the defaults exposed through the
// engine component's config schema.
const (
	DefaultMaxEvents = 100
	DefaultRetention = 300 * time.Second
)

// Config bounds the event window.
type Config struct {
	// MaxEvents caps the number of events held at once. When a new
	// event arrives at capacity the oldest event is evicted.
	MaxEvents int

	// Retention is the maximum age of an event, measured from
	// ReceivedAt. EvictExpired drops anything older.
	Retention time.Duration
}

// DefaultConfig returns the standard window bounds.
func DefaultConfig() Config {
	return Config{MaxEvents: DefaultMaxEvents, Retention: DefaultRetention}
}

// Validate checks the window bounds.
func (c Config) Validate() error {
	if c.MaxEvents <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "eventstore", "Validate", "max_events must be positive")
	}
	if c.Retention <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "eventstore", "Validate", "retention must be positive")
	}
	return nil
}

// Store is the bounded window of recent events. All methods are safe
// for concurrent use, though in practice the engine owns the store and
// only read paths race with the admin API.
type Store struct {
	mu     sync.RWMutex
	cfg    Config
	events map[string]*Event
	// order holds event IDs oldest-first by ReceivedAt. Ingest appends,
	// eviction pops from the front.
	order []string
}

// New creates an empty store with the given bounds.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		cfg:    cfg,
		events: make(map[string]*Event, cfg.MaxEvents),
		order:  make([]string, 0, cfg.MaxEvents),
	}, nil
}

// Ingest adds an event to the window. If the store is at capacity the
// oldest events are evicted to make room and their IDs are returned so
// the caller can cascade the removal into derived structures. A
// duplicate EventID is rejected with errors.ErrDuplicateEvent and
// leaves the window unchanged.
func (s *Store) Ingest(e Event) (evicted []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[e.EventID]; exists {
		return nil, errors.WrapInvalid(errors.ErrDuplicateEvent, "eventstore", "Ingest", "insert event "+e.EventID)
	}

	for len(s.order) >= s.cfg.MaxEvents {
		evicted = append(evicted, s.evictOldestLocked())
	}

	stored := e
	s.events[stored.EventID] = &stored
	s.order = append(s.order, stored.EventID)
	return evicted, nil
}

// EvictExpired removes every event older than the retention period and
// returns the evicted IDs, oldest first.
func (s *Store) EvictExpired(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.cfg.Retention)
	var evicted []string
	for len(s.order) > 0 {
		oldest := s.events[s.order[0]]
		if !oldest.ReceivedAt.Before(cutoff) {
			break
		}
		evicted = append(evicted, s.evictOldestLocked())
	}
	return evicted
}

// Remove deletes a single event by ID. It reports whether the event
// was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return false
	}
	delete(s.events, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

// Get returns a copy of the event with the given ID.
func (s *Store) Get(id string) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return Event{}, false
	}
	return *e, true
}

// Contains reports whether an event with the given ID is in the window.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[id]
	return ok
}

// Len returns the number of events currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Snapshot returns copies of every event in the window, oldest first.
func (s *Store) Snapshot() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.events[id])
	}
	return out
}

// SnapshotFiltered returns copies of the events matching the filter,
// oldest first.
func (s *Store) SnapshotFiltered(f Filter, now time.Time) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, id := range s.order {
		if f.Match(s.events[id], now) {
			out = append(out, *s.events[id])
		}
	}
	return out
}

// Recent returns copies of the n most recently received events, newest
// first. It returns the whole window when n exceeds the window size,
// and nothing when n is not positive.
func (s *Store) Recent(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(s.order) {
		n = len(s.order)
	}
	out := make([]Event, 0, n)
	for i := len(s.order) - 1; i >= len(s.order)-n; i-- {
		out = append(out, *s.events[s.order[i]])
	}
	return out
}

// ByCorrelation returns copies of every event in the window sharing the
// given correlation ID, oldest first. An empty ID matches nothing.
func (s *Store) ByCorrelation(correlationID string) []Event {
	if correlationID == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, id := range s.order {
		if s.events[id].CorrelationID == correlationID {
			out = append(out, *s.events[id])
		}
	}
	return out
}

// evictOldestLocked removes the oldest event and returns its ID. The
// caller must hold the write lock and ensure the window is non-empty.
func (s *Store) evictOldestLocked() string {
	id := s.order[0]
	s.order = s.order[1:]
	delete(s.events, id)
	return id
}
