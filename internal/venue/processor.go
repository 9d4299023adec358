package venue

import (
	"time"

	"github.com/driftfeed/marketfeed/internal/obs"
	"github.com/driftfeed/marketfeed/internal/ring"
)

// popSleep is how long the processor cooperatively sleeps after an empty
// pop, avoiding a hot busy-wait while staying well under the latency a
// blocking channel receive would add.
const popSleep = 50 * time.Microsecond

// Processor pops frames from an SPSC ring, dispatches them to a venue
// dialect's normalizer, and publishes the resulting events to a
// Publisher (normally the Event Bus). It never panics out of its Run
// loop: a normalizer error is converted into a counter increment and
// the frame is dropped.
type Processor struct {
	in      *ring.SPSC
	dialect *Dialect
	pub     Publisher
	stats   *obs.Stats
	now     Clock
}

// NewProcessor builds a Processor. now defaults to WallClock if nil.
func NewProcessor(in *ring.SPSC, dialect *Dialect, pub Publisher, stats *obs.Stats, now Clock) *Processor {
	if now == nil {
		now = WallClock
	}
	return &Processor{in: in, dialect: dialect, pub: pub, stats: stats, now: now}
}

// Run pops and processes frames until stopCh is closed, then drains any
// frames still queued before returning.
func (p *Processor) Run(stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			p.drain()
			return
		default:
		}
		if !p.popOnce() {
			time.Sleep(popSleep)
		}
	}
}

func (p *Processor) drain() {
	for p.popOnce() {
	}
}

func (p *Processor) popOnce() bool {
	frame, ok := p.in.TryPop()
	if !ok {
		return false
	}
	p.process(frame)
	return true
}

func (p *Processor) process(frame []byte) {
	defer func() {
		if r := recover(); r != nil && p.stats != nil {
			p.stats.IncParseFailed()
		}
	}()

	if p.stats != nil {
		p.stats.IncPopped()
	}

	_, err := p.dialect.Normalize(frame, p.now, p.pub)
	if err != nil && p.stats != nil {
		p.stats.IncParseFailed()
	}
}
