package venue

import (
	"errors"
	"testing"
	"time"

	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/obs"
	"github.com/driftfeed/marketfeed/internal/ring"
)

type recordingPublisher struct {
	trades []model.Trade
}

func (p *recordingPublisher) PublishTrade(e model.Trade)                       { p.trades = append(p.trades, e) }
func (p *recordingPublisher) PublishTicker(model.Ticker)                       {}
func (p *recordingPublisher) PublishCandle(model.Candle)                       {}
func (p *recordingPublisher) PublishOrderBookDelta(model.OrderBookDelta)       {}
func (p *recordingPublisher) PublishOrderBookSnapshot(model.OrderBookSnapshot) {}

func TestProcessorDispatchesRecognizedFrames(t *testing.T) {
	r := ring.New(8)
	pub := &recordingPublisher{}
	stats := obs.NewStats()

	dialect := &Dialect{
		Source: model.SourceVenueB,
		Normalize: func(frame []byte, now Clock, p Publisher) (bool, error) {
			p.PublishTrade(model.Trade{Source: model.SourceVenueB, Symbol: "BTCUSDT"})
			return true, nil
		},
	}
	proc := NewProcessor(r, dialect, pub, stats, nil)

	r.TryPush([]byte(`{"e":"trade"}`))
	if !proc.popOnce() {
		t.Fatal("popOnce() = false, want true")
	}
	if len(pub.trades) != 1 {
		t.Fatalf("len(pub.trades) = %d, want 1", len(pub.trades))
	}
	if stats.Snapshot().ParseFailed != 0 {
		t.Fatalf("ParseFailed = %d, want 0", stats.Snapshot().ParseFailed)
	}
}

func TestProcessorCountsParseFailures(t *testing.T) {
	r := ring.New(8)
	pub := &recordingPublisher{}
	stats := obs.NewStats()

	dialect := &Dialect{
		Normalize: func(frame []byte, now Clock, p Publisher) (bool, error) {
			return true, errors.New("malformed")
		},
	}
	proc := NewProcessor(r, dialect, pub, stats, nil)
	r.TryPush([]byte("garbage"))
	proc.popOnce()

	if got := stats.Snapshot().ParseFailed; got != 1 {
		t.Fatalf("ParseFailed = %d, want 1", got)
	}
}

func TestProcessorRunDrainsOnStop(t *testing.T) {
	r := ring.New(8)
	pub := &recordingPublisher{}
	stats := obs.NewStats()
	dialect := &Dialect{
		Normalize: func(frame []byte, now Clock, p Publisher) (bool, error) {
			p.PublishTrade(model.Trade{})
			return true, nil
		},
	}
	proc := NewProcessor(r, dialect, pub, stats, nil)
	for i := 0; i < 5; i++ {
		r.TryPush([]byte("x"))
	}

	stopCh := make(chan struct{})
	close(stopCh)
	proc.Run(stopCh)

	if len(pub.trades) != 5 {
		t.Fatalf("len(pub.trades) = %d, want 5 (drained before exit)", len(pub.trades))
	}
}

func TestStateStringAndTerminal(t *testing.T) {
	if StateClosed.String() != "closed" {
		t.Fatalf("StateClosed.String() = %q", StateClosed.String())
	}
	if !StateFailed.Terminal() {
		t.Fatal("StateFailed.Terminal() = false, want true")
	}
	if StateStreaming.Terminal() {
		t.Fatal("StateStreaming.Terminal() = true, want false")
	}
}

func TestWallClockMonotonic(t *testing.T) {
	a := WallClock()
	time.Sleep(time.Millisecond)
	b := WallClock()
	if b <= a {
		t.Fatalf("WallClock() did not advance: %d -> %d", a, b)
	}
}
