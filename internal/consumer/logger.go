// Package consumer holds the external collaborator contracts the ingest
// core hands normalized events to: a logging sink and an execution
// router. Both are call-contract interfaces; their concrete policy is
// out of scope.
package consumer

import (
	"sync"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/logs"

	"github.com/driftfeed/marketfeed/internal/bus"
	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/obs"
)

// Logger is a single unbounded sink subscribed to every normalized event
// type. It records structured log lines and flushes on shutdown. Each
// line carries a trace id from traceGen so independent log lines for
// the same causal chain of events can be correlated across a pipeline
// instance's lifetime.
type Logger struct {
	mu       sync.Mutex
	pending  int
	done     chan struct{}
	traceGen *obs.TraceGenerator
}

// NewLogger builds a Logger. Call SubscribeTo to wire it into a Bus.
func NewLogger() *Logger {
	return &Logger{done: make(chan struct{}), traceGen: obs.NewTraceGenerator(0)}
}

// SubscribeTo installs a handler for every normalized event type on b.
func (l *Logger) SubscribeTo(b *bus.Bus) {
	b.SubscribeTrade(l.onTrade)
	b.SubscribeTicker(l.onTicker)
	b.SubscribeCandle(l.onCandle)
	b.SubscribeOrderBookDelta(l.onOrderBookDelta)
	b.SubscribeOrderBookSnapshot(l.onOrderBookSnapshot)
}

func (l *Logger) onTrade(e model.Trade) {
	l.track()
	logs.Infof("trace=%d trade source=%s symbol=%s side=%s price=%s qty=%s",
		l.traceGen.Next(), e.Source, e.Symbol, e.Side, displayPrice(e.Price), displayPrice(e.Quantity))
}

func (l *Logger) onTicker(e model.Ticker) {
	l.track()
	logs.Infof("trace=%d ticker source=%s symbol=%s last=%s bid=%s ask=%s",
		l.traceGen.Next(), e.Source, e.Symbol, displayPrice(e.LastPrice), displayPrice(e.BestBid), displayPrice(e.BestAsk))
}

func (l *Logger) onCandle(e model.Candle) {
	l.track()
	logs.Infof("trace=%d candle source=%s symbol=%s interval=%s close=%s",
		l.traceGen.Next(), e.Source, e.Symbol, e.Interval, displayPrice(e.Close))
}

func (l *Logger) onOrderBookDelta(e model.OrderBookDelta) {
	l.track()
	logs.Infof("trace=%d book_delta source=%s symbol=%s seq=%d bids=%d asks=%d",
		l.traceGen.Next(), e.Source, e.Symbol, e.Sequence, len(e.Bids), len(e.Asks))
}

func (l *Logger) onOrderBookSnapshot(e model.OrderBookSnapshot) {
	l.track()
	logs.Infof("trace=%d book_snapshot source=%s symbol=%s seq=%d bids=%d asks=%d",
		l.traceGen.Next(), e.Source, e.Symbol, e.Sequence, len(e.Bids), len(e.Asks))
}

func (l *Logger) track() {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()
}

// Flush blocks until every record observed so far has been logged. The
// sink dispatches synchronously from the bus's publish call, so by the
// time Flush is invoked from the pipeline shutdown path there is
// nothing left in flight; it exists so shutdown order reads the same
// way across consumers.
func (l *Logger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
}

// displayPrice formats a float64 price/quantity for log lines using the
// venue decimal library rather than strconv, matching how the rest of
// the console output is rendered.
func displayPrice(v float64) string {
	return decimal.NewFromFloat(v).String()
}
