package eventstore

import (
	"sort"
	"sync"
	"time"
)

// rateHistorySize is the number of rate samples retained, one per
// sampling interval.
const rateHistorySize = 60

// Stats accumulates running statistics over everything ingested, not
// just the events still in the window. Counts only ever grow; the rate
// history is a fixed ring of the most recent samples.
type Stats struct {
	mu sync.RWMutex

	total          uint64
	byDomain       map[string]uint64
	byEventType    map[string]uint64
	byAggregate    map[string]uint64
	correlationIDs map[string]struct{}

	payloadBytes uint64 // running sum for the average

	rates       []float64
	peakRate    float64
	lastSample  time.Time
	lastCounted uint64
}

// NewStats returns an empty statistics accumulator.
func NewStats() *Stats {
	return &Stats{
		byDomain:       make(map[string]uint64),
		byEventType:    make(map[string]uint64),
		byAggregate:    make(map[string]uint64),
		correlationIDs: make(map[string]struct{}),
	}
}

// Record counts one ingested event.
func (s *Stats) Record(e *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byDomain[e.Domain]++
	s.byEventType[e.EventType]++
	s.byAggregate[e.AggregateType]++
	s.payloadBytes += uint64(len(e.Payload))
	if e.CorrelationID != "" {
		s.correlationIDs[e.CorrelationID] = struct{}{}
	}
}

// Sample closes the current rate interval, appending events-per-second
// since the previous sample to the history. Call it on a steady
// cadence; the first call only establishes the baseline.
func (s *Stats) Sample(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSample.IsZero() {
		s.lastSample = now
		s.lastCounted = s.total
		return
	}

	elapsed := now.Sub(s.lastSample).Seconds()
	if elapsed <= 0 {
		return
	}
	rate := float64(s.total-s.lastCounted) / elapsed
	s.lastSample = now
	s.lastCounted = s.total

	s.rates = append(s.rates, rate)
	if len(s.rates) > rateHistorySize {
		s.rates = s.rates[1:]
	}
	if rate > s.peakRate {
		s.peakRate = rate
	}
}

// CountItem is a name with how many times it was seen.
type CountItem struct {
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}

// Snapshot is a point-in-time copy of the statistics, shaped for JSON.
type Snapshot struct {
	TotalEvents       uint64            `json:"total_events"`
	ByDomain          map[string]uint64 `json:"by_domain"`
	ByEventType       map[string]uint64 `json:"by_event_type"`
	ByAggregateType   map[string]uint64 `json:"by_aggregate_type"`
	CorrelationChains int               `json:"correlation_chains"`
	AvgPayloadBytes   float64           `json:"avg_payload_bytes"`
	CurrentRate       float64           `json:"current_rate"`
	PeakRate          float64           `json:"peak_rate"`
	RateHistory       []float64         `json:"rate_history"`
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TotalEvents:       s.total,
		ByDomain:          copyCounts(s.byDomain),
		ByEventType:       copyCounts(s.byEventType),
		ByAggregateType:   copyCounts(s.byAggregate),
		CorrelationChains: len(s.correlationIDs),
		PeakRate:          s.peakRate,
		RateHistory:       append([]float64(nil), s.rates...),
	}
	if s.total > 0 {
		snap.AvgPayloadBytes = float64(s.payloadBytes) / float64(s.total)
	}
	if len(s.rates) > 0 {
		snap.CurrentRate = s.rates[len(s.rates)-1]
	}
	return snap
}

// TopDomains returns the n most frequent domains, descending by count.
func (s *Stats) TopDomains(n int) []CountItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return topN(s.byDomain, n)
}

// TopEventTypes returns the n most frequent event types, descending by
// count.
func (s *Stats) TopEventTypes(n int) []CountItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return topN(s.byEventType, n)
}

func copyCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func topN(m map[string]uint64, n int) []CountItem {
	items := make([]CountItem, 0, len(m))
	for name, count := range m {
		items = append(items, CountItem{Name: name, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
	if n < len(items) {
		items = items[:n]
	}
	return items
}
