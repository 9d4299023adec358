package consumer

import (
	"testing"

	"github.com/driftfeed/marketfeed/internal/bus"
	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/obs"
)

func TestLoggerSubscribeToDispatchesEveryEventType(t *testing.T) {
	b := bus.New(obs.NewStats())
	l := NewLogger()
	l.SubscribeTo(b)
	b.Freeze()

	b.PublishTrade(model.Trade{Source: model.SourceVenueB, Symbol: "BTCUSDT"})
	b.PublishTicker(model.Ticker{Source: model.SourceVenueB, Symbol: "BTCUSDT"})
	b.PublishCandle(model.Candle{Source: model.SourceVenueB, Symbol: "BTCUSDT"})
	b.PublishOrderBookDelta(model.OrderBookDelta{Source: model.SourceVenueB, Symbol: "BTCUSDT"})
	b.PublishOrderBookSnapshot(model.OrderBookSnapshot{Source: model.SourceVenueB, Symbol: "BTCUSDT"})

	l.mu.Lock()
	pending := l.pending
	l.mu.Unlock()
	if pending != 5 {
		t.Fatalf("pending = %d, want 5", pending)
	}
}

func TestLoggerStampsIncreasingTraceIDs(t *testing.T) {
	l := NewLogger()
	first := l.traceGen.Next()
	second := l.traceGen.Next()
	if second <= first {
		t.Fatalf("traceGen.Next() not increasing: %d then %d", first, second)
	}
}
