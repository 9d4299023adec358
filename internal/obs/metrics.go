// Package obs holds lightweight, allocation-free counters and latency
// stats for the ingest pipelines, plus a monotonic trace-id generator for
// correlating log lines from a single pipeline instance.
package obs

import (
	"sync/atomic"
	"time"
)

// Stats collects the counters spec.md §9 asks every pipeline to expose:
// pushed, popped, dropped-on-full, parse-failed, and gap-recoveries, plus a
// latency histogram-lite for parse-to-publish timing.
type Stats struct {
	pushed        atomic.Uint64
	popped        atomic.Uint64
	droppedFull   atomic.Uint64
	parseFailed   atomic.Uint64
	gapRecoveries atomic.Uint64
	handlerPanics atomic.Uint64

	publishLatency LatencyStats
}

// NewStats allocates a Stats container.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) IncPushed()        { s.pushed.Add(1) }
func (s *Stats) IncPopped()        { s.popped.Add(1) }
func (s *Stats) IncDroppedFull()   { s.droppedFull.Add(1) }
func (s *Stats) IncParseFailed()   { s.parseFailed.Add(1) }
func (s *Stats) IncGapRecovery()   { s.gapRecoveries.Add(1) }
func (s *Stats) IncHandlerPanic()  { s.handlerPanics.Add(1) }

// ObservePublishLatency records the time between a frame's parse-observed
// timestamp and the moment it was published on the bus.
func (s *Stats) ObservePublishLatency(d time.Duration) {
	s.publishLatency.Observe(d)
}

// Snapshot is a point-in-time view of Stats.
type Snapshot struct {
	Pushed         uint64
	Popped         uint64
	DroppedFull    uint64
	ParseFailed    uint64
	GapRecoveries  uint64
	HandlerPanics  uint64
	PublishLatency LatencySnapshot
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		Pushed:         s.pushed.Load(),
		Popped:         s.popped.Load(),
		DroppedFull:    s.droppedFull.Load(),
		ParseFailed:    s.parseFailed.Load(),
		GapRecoveries:  s.gapRecoveries.Load(),
		HandlerPanics:  s.handlerPanics.Load(),
		PublishLatency: s.publishLatency.Snapshot(),
	}
}

// LatencyStats aggregates duration samples in nanoseconds, lock-free.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of LatencyStats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}
	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
