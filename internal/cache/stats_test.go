package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	records map[string]int64
}

func (s *recordingSink) Record(outcome string, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]int64)
	}
	s.records[outcome] += delta
}

func TestStatsSinkReceivesEveryMutation(t *testing.T) {
	sink := &recordingSink{}
	stats := NewStats(sink)

	stats.hit()
	stats.hit()
	stats.miss()
	stats.write()
	stats.evict(3)
	stats.evict(0) // no-op

	require.EqualValues(t, 2, sink.records[OutcomeHit])
	require.EqualValues(t, 1, sink.records[OutcomeMiss])
	require.EqualValues(t, 1, sink.records[OutcomeWrite])
	require.EqualValues(t, 3, sink.records[OutcomeEviction])
}

func TestStatsHitRate(t *testing.T) {
	stats := NewStats(nil)
	require.Zero(t, stats.HitRate())

	stats.hit()
	stats.hit()
	stats.hit()
	stats.miss()

	require.InDelta(t, 0.75, stats.HitRate(), 0.0001)
}

func TestStatsResetZeroesCounters(t *testing.T) {
	stats := NewStats(nil)
	stats.hit()
	stats.miss()
	stats.write()
	stats.evict(5)

	stats.Reset()
	require.Equal(t, Snapshot{}, stats.Snapshot())
}
