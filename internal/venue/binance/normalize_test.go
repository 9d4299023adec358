package binance

import (
	"testing"

	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/venue"
)

type recordingPublisher struct {
	trades []model.Trade
	deltas []model.OrderBookDelta
}

func (p *recordingPublisher) PublishTrade(e model.Trade)                 { p.trades = append(p.trades, e) }
func (p *recordingPublisher) PublishTicker(model.Ticker)                 {}
func (p *recordingPublisher) PublishCandle(model.Candle)                 {}
func (p *recordingPublisher) PublishOrderBookDelta(e model.OrderBookDelta) {
	p.deltas = append(p.deltas, e)
}
func (p *recordingPublisher) PublishOrderBookSnapshot(model.OrderBookSnapshot) {}

func fixedClock() int64 { return 42 }

func TestNormalizeTrade(t *testing.T) {
	frame := []byte(`{"stream":"btcusdt@trade","data":{"e":"trade","E":1700000000123,"s":"BTCUSDT","t":12345,"p":"65000.50","q":"0.10","T":1700000000100,"m":true}}`)
	pub := &recordingPublisher{}
	recognized, err := normalize(frame, fixedClock, pub)
	if err != nil {
		t.Fatalf("normalize() err = %v", err)
	}
	if !recognized {
		t.Fatal("normalize() recognized = false, want true")
	}
	if len(pub.trades) != 1 {
		t.Fatalf("len(trades) = %d, want 1", len(pub.trades))
	}
	trade := pub.trades[0]
	if trade.Symbol != "BTCUSDT" || trade.Price != 65000.5 || trade.Quantity != 0.1 {
		t.Fatalf("trade = %+v", trade)
	}
	if trade.Side != model.SideSell {
		t.Fatalf("trade.Side = %v, want sell (m=true means buyer is maker)", trade.Side)
	}
	if trade.TradeTimeNano != 1700000000100*1e6 {
		t.Fatalf("trade.TradeTimeNano = %d", trade.TradeTimeNano)
	}
}

func TestNormalizeDepthUpdate(t *testing.T) {
	frame := []byte(`{"stream":"btcusdt@depth","data":{"e":"depthUpdate","E":1700000000000,"s":"BTCUSDT","U":100,"u":105,"b":[["65000.00","1.5"],["64999.50","2.0"]],"a":[["65001.00","0.75"]]}}`)
	pub := &recordingPublisher{}
	recognized, err := normalize(frame, fixedClock, pub)
	if err != nil || !recognized {
		t.Fatalf("normalize() = %v, %v", recognized, err)
	}
	if len(pub.deltas) != 1 {
		t.Fatalf("len(deltas) = %d, want 1", len(pub.deltas))
	}
	delta := pub.deltas[0]
	if delta.Sequence != 105 {
		t.Fatalf("delta.Sequence = %d, want 105 (final update id)", delta.Sequence)
	}
	if len(delta.Bids) != 2 || len(delta.Asks) != 1 {
		t.Fatalf("delta = %+v", delta)
	}
	if delta.Bids[0].Price != 65000.0 || delta.Bids[0].Size != 1.5 {
		t.Fatalf("delta.Bids[0] = %+v", delta.Bids[0])
	}
}

func TestNormalizeUnknownDiscriminatorIgnored(t *testing.T) {
	frame := []byte(`{"stream":"btcusdt@foo","data":{"e":"somethingElse"}}`)
	pub := &recordingPublisher{}
	recognized, err := normalize(frame, fixedClock, pub)
	if err != nil {
		t.Fatalf("normalize() err = %v, want nil", err)
	}
	if recognized {
		t.Fatal("normalize() recognized = true, want false for unknown discriminator")
	}
}

func TestPathBuildsCombinedStreamURL(t *testing.T) {
	desc := venue.SubscriptionDescriptor{
		Symbols:  []string{"BTCUSDT", "ETHUSDT"},
		Channels: []string{"trade", "depth"},
	}
	got := path(desc)
	want := "/stream?streams=btcusdt@trade/btcusdt@depth/ethusdt@trade/ethusdt@depth"
	if got != want {
		t.Fatalf("path() = %q, want %q", got, want)
	}
}
