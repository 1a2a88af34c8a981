package cache

import (
	"sync/atomic"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/metrics"
)

// Outcome labels reported to stats sinks.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeWrite    = "write"
	OutcomeEviction = "eviction"
)

// Sink receives every stats mutation, typically to persist or export it.
type Sink interface {
	Record(outcome string, delta int64)
}

// Stats tracks process-wide cache counters. Counters only reset through an
// explicit Reset call.
type Stats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	writes    atomic.Int64
	evictions atomic.Int64
	sink      Sink
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Writes    int64 `json:"writes"`
	Evictions int64 `json:"evictions"`
}

// NewStats builds a counter set. The sink may be nil.
func NewStats(sink Sink) *Stats {
	return &Stats{sink: sink}
}

func (s *Stats) hit() {
	s.hits.Add(1)
	s.record(OutcomeHit, 1)
}

func (s *Stats) miss() {
	s.misses.Add(1)
	s.record(OutcomeMiss, 1)
}

func (s *Stats) write() {
	s.writes.Add(1)
	s.record(OutcomeWrite, 1)
}

func (s *Stats) evict(count int64) {
	if count <= 0 {
		return
	}
	s.evictions.Add(count)
	s.record(OutcomeEviction, count)
}

func (s *Stats) record(outcome string, delta int64) {
	if s.sink != nil {
		s.sink.Record(outcome, delta)
	}
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Writes:    s.writes.Load(),
		Evictions: s.evictions.Load(),
	}
}

// HitRate returns hits / (hits + misses), or zero before any reads.
func (s *Stats) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.writes.Store(0)
	s.evictions.Store(0)
}

// MetricsSink exports stats mutations as Prometheus counters.
type MetricsSink struct{}

// Record implements Sink.
func (MetricsSink) Record(outcome string, delta int64) {
	metrics.CacheOperations.WithLabelValues(outcome).Add(float64(delta))
}
