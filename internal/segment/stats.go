package segment

import (
	"context"
	"slices"
	"sync"
	"time"
)

// call is one timed Segment invocation.
type call struct {
	at     time.Time
	ms     int64
	chars  int
	failed bool
}

// StatsSnapshot aggregates the calls inside the rolling window. Latency
// figures cover failed calls too.
type StatsSnapshot struct {
	Calls    int     `json:"calls"`
	Failures int     `json:"failures"`
	Chars    int     `json:"chars"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// LatencyStats keeps segmentation calls younger than window.
type LatencyStats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
}

func NewLatencyStats(window time.Duration) *LatencyStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LatencyStats{window: window}
}

// Record adds one call that took d on a buffer of chars bytes.
func (s *LatencyStats) Record(d time.Duration, chars int, failed bool) {
	now := time.Now()
	c := call{at: now, ms: max(d.Milliseconds(), 0), chars: chars, failed: failed}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now)
	s.calls = append(s.calls, c)
}

func (s *LatencyStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	s.expire(now)
	calls := slices.Clone(s.calls)
	s.mu.Unlock()

	if len(calls) == 0 {
		return StatsSnapshot{}
	}

	var snap StatsSnapshot
	ms := make([]int64, len(calls))
	var total int64
	for i, c := range calls {
		ms[i] = c.ms
		total += c.ms
		snap.Chars += c.chars
		if c.failed {
			snap.Failures++
		}
	}
	slices.Sort(ms)

	snap.Calls = len(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(total) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	return snap
}

// expire drops calls older than the window. Calls are appended in time
// order, so the expired ones form a prefix.
func (s *LatencyStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	n := 0
	for n < len(s.calls) && s.calls[n].at.Before(cutoff) {
		n++
	}
	if n > 0 {
		s.calls = slices.Delete(s.calls, 0, n)
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}

// Instrumented wraps a Segmenter and records every call in Stats.
type Instrumented struct {
	Segmenter
	Stats *LatencyStats
}

func Instrument(seg Segmenter, stats *LatencyStats) *Instrumented {
	return &Instrumented{Segmenter: seg, Stats: stats}
}

func (i *Instrumented) Segment(ctx context.Context, text string) ([]string, error) {
	start := time.Now()
	sents, err := i.Segmenter.Segment(ctx, text)
	i.Stats.Record(time.Since(start), len(text), err != nil)
	return sents, err
}
