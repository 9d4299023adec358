// Package bus is the in-process typed publish/subscribe fabric that binds
// venue pipelines to consumers. Subscribe calls happen during startup only;
// Publish is synchronous, same-goroutine, and at-most-once per handler.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/obs"
)

type (
	TradeHandler             func(model.Trade)
	TickerHandler            func(model.Ticker)
	CandleHandler            func(model.Candle)
	OrderBookDeltaHandler    func(model.OrderBookDelta)
	OrderBookSnapshotHandler func(model.OrderBookSnapshot)
)

// Bus is a typed publish/subscribe table. The zero value is not usable;
// construct with New.
type Bus struct {
	mu sync.Mutex

	trades         []TradeHandler
	tickers        []TickerHandler
	candles        []CandleHandler
	bookDeltas     []OrderBookDeltaHandler
	bookSnapshots  []OrderBookSnapshotHandler

	frozen atomic.Bool
	stats  *obs.Stats
}

// New creates a Bus that records publish/panic counters on stats. stats may
// be nil to disable counting.
func New(stats *obs.Stats) *Bus {
	return &Bus{stats: stats}
}

// SubscribeTrade registers a handler for Trade events. Must be called
// before Freeze.
func (b *Bus) SubscribeTrade(h TradeHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen.Load() || h == nil {
		return
	}
	b.trades = append(b.trades, h)
}

// SubscribeTicker registers a handler for Ticker events.
func (b *Bus) SubscribeTicker(h TickerHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen.Load() || h == nil {
		return
	}
	b.tickers = append(b.tickers, h)
}

// SubscribeCandle registers a handler for Candle events.
func (b *Bus) SubscribeCandle(h CandleHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen.Load() || h == nil {
		return
	}
	b.candles = append(b.candles, h)
}

// SubscribeOrderBookDelta registers a handler for OrderBookDelta events.
func (b *Bus) SubscribeOrderBookDelta(h OrderBookDeltaHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen.Load() || h == nil {
		return
	}
	b.bookDeltas = append(b.bookDeltas, h)
}

// SubscribeOrderBookSnapshot registers a handler for OrderBookSnapshot events.
func (b *Bus) SubscribeOrderBookSnapshot(h OrderBookSnapshotHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen.Load() || h == nil {
		return
	}
	b.bookSnapshots = append(b.bookSnapshots, h)
}

// Freeze stops accepting new subscribers: later Subscribe calls are
// ignored. Publish never takes the mutex; it reads the handler lists
// directly, so every Subscribe call must finish before publishing starts.
func (b *Bus) Freeze() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen.Store(true)
}

// PublishTrade invokes every Trade handler, in registration order, catching
// panics so later handlers still run.
func (b *Bus) PublishTrade(e model.Trade) {
	for _, h := range b.trades {
		b.invoke(func() { h(e) })
	}
}

// PublishTicker invokes every Ticker handler.
func (b *Bus) PublishTicker(e model.Ticker) {
	for _, h := range b.tickers {
		b.invoke(func() { h(e) })
	}
}

// PublishCandle invokes every Candle handler.
func (b *Bus) PublishCandle(e model.Candle) {
	for _, h := range b.candles {
		b.invoke(func() { h(e) })
	}
}

// PublishOrderBookDelta invokes every OrderBookDelta handler.
func (b *Bus) PublishOrderBookDelta(e model.OrderBookDelta) {
	for _, h := range b.bookDeltas {
		b.invoke(func() { h(e) })
	}
}

// PublishOrderBookSnapshot invokes every OrderBookSnapshot handler.
func (b *Bus) PublishOrderBookSnapshot(e model.OrderBookSnapshot) {
	for _, h := range b.bookSnapshots {
		b.invoke(func() { h(e) })
	}
}

func (b *Bus) invoke(call func()) {
	defer func() {
		if r := recover(); r != nil && b.stats != nil {
			b.stats.IncHandlerPanic()
		}
	}()
	call()
}
