package kraken

import (
	"testing"

	"github.com/driftfeed/marketfeed/internal/model"
)

type recordingPublisher struct {
	trades []model.Trade
	deltas []model.OrderBookDelta
}

func (p *recordingPublisher) PublishTrade(e model.Trade) { p.trades = append(p.trades, e) }
func (p *recordingPublisher) PublishTicker(model.Ticker) {}
func (p *recordingPublisher) PublishCandle(model.Candle) {}
func (p *recordingPublisher) PublishOrderBookDelta(e model.OrderBookDelta) {
	p.deltas = append(p.deltas, e)
}
func (p *recordingPublisher) PublishOrderBookSnapshot(model.OrderBookSnapshot) {}

func fixedClock() int64 { return 99 }

func TestNormalizeTrade(t *testing.T) {
	frame := []byte(`{"channel":"trade","type":"update","data":[{"symbol":"BTC/USD","side":"buy","price":65000.1,"qty":0.2,"timestamp":"2022-01-01T00:00:00.250000000Z"}]}`)
	pub := &recordingPublisher{}
	recognized, err := normalize(frame, fixedClock, pub)
	if err != nil || !recognized {
		t.Fatalf("normalize() = %v, %v", recognized, err)
	}
	if len(pub.trades) != 1 {
		t.Fatalf("len(trades) = %d, want 1", len(pub.trades))
	}
	trade := pub.trades[0]
	if trade.Symbol != "BTC/USD" || trade.Price != 65000.1 || trade.Side != model.SideBuy {
		t.Fatalf("trade = %+v", trade)
	}
	want := int64(1640995200)*1e9 + 250000000
	if trade.TradeTimeNano != want {
		t.Fatalf("trade.TradeTimeNano = %d, want %d", trade.TradeTimeNano, want)
	}
}

func TestNormalizeBookUpdate(t *testing.T) {
	frame := []byte(`{"channel":"book","type":"update","data":[{"symbol":"BTC/USD","bids":[[65000.0,1.0]],"asks":[[65001.0,0.5]],"checksum":123456,"timestamp":"2022-01-01T00:00:01Z"}]}`)
	pub := &recordingPublisher{}
	recognized, err := normalize(frame, fixedClock, pub)
	if err != nil || !recognized {
		t.Fatalf("normalize() = %v, %v", recognized, err)
	}
	if len(pub.deltas) != 1 {
		t.Fatalf("len(deltas) = %d, want 1", len(pub.deltas))
	}
	if pub.deltas[0].Sequence != 123456 {
		t.Fatalf("Sequence = %d, want 123456", pub.deltas[0].Sequence)
	}
}

func TestNormalizeHeartbeatIgnored(t *testing.T) {
	frame := []byte(`{"channel":"heartbeat"}`)
	pub := &recordingPublisher{}
	recognized, err := normalize(frame, fixedClock, pub)
	if err != nil || !recognized {
		t.Fatalf("normalize() = %v, %v", recognized, err)
	}
	if len(pub.trades) != 0 {
		t.Fatal("heartbeat should not publish trades")
	}
}

func TestNormalizeUnknownChannelIgnored(t *testing.T) {
	frame := []byte(`{"channel":"somethingNew","type":"update","data":[{}]}`)
	pub := &recordingPublisher{}
	recognized, _ := normalize(frame, fixedClock, pub)
	if recognized {
		t.Fatal("normalize() recognized = true, want false")
	}
}

func TestSignIsDeterministic(t *testing.T) {
	sig1, err := sign("c2VjcmV0", "/0/private/GetWebSocketsToken", "123", "nonce=123")
	if err != nil {
		t.Fatalf("sign() err = %v", err)
	}
	sig2, _ := sign("c2VjcmV0", "/0/private/GetWebSocketsToken", "123", "nonce=123")
	if sig1 != sig2 {
		t.Fatal("sign() is not deterministic for identical inputs")
	}
}
