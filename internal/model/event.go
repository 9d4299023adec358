// Package model holds the normalized event types every venue dialect
// parses into and every consumer on the Event Bus receives.
package model

import "strconv"

// Source identifies which venue an event originated from.
type Source uint8

const (
	SourceUnknown Source = iota
	SourceVenueB
	SourceVenueC
	SourceVenueK
)

func (s Source) String() string {
	switch s {
	case SourceVenueB:
		return "B"
	case SourceVenueC:
		return "C"
	case SourceVenueK:
		return "K"
	default:
		return "unknown"
	}
}

// Side is the aggressor/book side of a trade.
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Trade is a single executed trade normalized from any venue dialect.
type Trade struct {
	Source        Source
	Symbol        string
	Side          Side
	Price         float64
	Quantity      float64
	TradeTimeNano int64
}

func (t Trade) Debug() string {
	buf := make([]byte, 0, 96)
	buf = append(buf, "Trade{source="...)
	buf = append(buf, t.Source.String()...)
	buf = append(buf, " symbol="...)
	buf = append(buf, t.Symbol...)
	buf = append(buf, " side="...)
	buf = append(buf, t.Side.String()...)
	buf = append(buf, " price="...)
	buf = strconv.AppendFloat(buf, t.Price, 'f', -1, 64)
	buf = append(buf, " qty="...)
	buf = strconv.AppendFloat(buf, t.Quantity, 'f', -1, 64)
	buf = append(buf, " trade_time_ns="...)
	buf = strconv.AppendInt(buf, t.TradeTimeNano, 10)
	buf = append(buf, '}')
	return string(buf)
}

// Ticker is a rolling 24h summary normalized from any venue dialect.
type Ticker struct {
	Source            Source
	Symbol            string
	TimestampNano     int64
	LastPrice         float64
	BestBid           float64
	BestBidSize       float64
	BestAsk           float64
	BestAskSize       float64
	Volume24h         float64
	PriceChange24h    float64
	PriceChangePct24h float64
	High24h           float64
	Low24h            float64
}

func (t Ticker) Debug() string {
	buf := make([]byte, 0, 192)
	buf = append(buf, "Ticker{source="...)
	buf = append(buf, t.Source.String()...)
	buf = append(buf, " symbol="...)
	buf = append(buf, t.Symbol...)
	buf = append(buf, " last="...)
	buf = strconv.AppendFloat(buf, t.LastPrice, 'f', -1, 64)
	buf = append(buf, " bid="...)
	buf = strconv.AppendFloat(buf, t.BestBid, 'f', -1, 64)
	buf = append(buf, '@')
	buf = strconv.AppendFloat(buf, t.BestBidSize, 'f', -1, 64)
	buf = append(buf, " ask="...)
	buf = strconv.AppendFloat(buf, t.BestAsk, 'f', -1, 64)
	buf = append(buf, '@')
	buf = strconv.AppendFloat(buf, t.BestAskSize, 'f', -1, 64)
	buf = append(buf, '}')
	return string(buf)
}

// Candle is an OHLCV bar normalized from any venue dialect.
type Candle struct {
	Source       Source
	Symbol       string
	Interval     string
	OpenTimeNano int64
	CloseTimeNano int64
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	TradeCount   int64
}

func (c Candle) Debug() string {
	buf := make([]byte, 0, 160)
	buf = append(buf, "Candle{source="...)
	buf = append(buf, c.Source.String()...)
	buf = append(buf, " symbol="...)
	buf = append(buf, c.Symbol...)
	buf = append(buf, " interval="...)
	buf = append(buf, c.Interval...)
	buf = append(buf, " o="...)
	buf = strconv.AppendFloat(buf, c.Open, 'f', -1, 64)
	buf = append(buf, " h="...)
	buf = strconv.AppendFloat(buf, c.High, 'f', -1, 64)
	buf = append(buf, " l="...)
	buf = strconv.AppendFloat(buf, c.Low, 'f', -1, 64)
	buf = append(buf, " c="...)
	buf = strconv.AppendFloat(buf, c.Close, 'f', -1, 64)
	buf = append(buf, '}')
	return string(buf)
}

// PriceLevel is one (price, size) level of an order book update. A size of
// zero means the level at that price is deleted.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderBookDelta is an incremental order-book change tied to a sequence
// number, as published by the streaming feed.
type OrderBookDelta struct {
	Source        Source
	Symbol        string
	TimestampNano int64
	Sequence      uint64
	Bids          []PriceLevel
	Asks          []PriceLevel
}

func (d OrderBookDelta) Debug() string {
	buf := make([]byte, 0, 128)
	buf = append(buf, "OrderBookDelta{source="...)
	buf = append(buf, d.Source.String()...)
	buf = append(buf, " symbol="...)
	buf = append(buf, d.Symbol...)
	buf = append(buf, " seq="...)
	buf = strconv.AppendUint(buf, d.Sequence, 10)
	buf = append(buf, " bids="...)
	buf = strconv.AppendInt(buf, int64(len(d.Bids)), 10)
	buf = append(buf, " asks="...)
	buf = strconv.AppendInt(buf, int64(len(d.Asks)), 10)
	buf = append(buf, '}')
	return string(buf)
}

// OrderBookSnapshot is a full order-book state used to (re)initialize a
// reconstructor, normally fetched over REST.
type OrderBookSnapshot struct {
	Source        Source
	Symbol        string
	TimestampNano int64
	Sequence      uint64
	Bids          []PriceLevel
	Asks          []PriceLevel
}

func (s OrderBookSnapshot) Debug() string {
	buf := make([]byte, 0, 128)
	buf = append(buf, "OrderBookSnapshot{source="...)
	buf = append(buf, s.Source.String()...)
	buf = append(buf, " symbol="...)
	buf = append(buf, s.Symbol...)
	buf = append(buf, " seq="...)
	buf = strconv.AppendUint(buf, s.Sequence, 10)
	buf = append(buf, " bids="...)
	buf = strconv.AppendInt(buf, int64(len(s.Bids)), 10)
	buf = append(buf, " asks="...)
	buf = strconv.AppendInt(buf, int64(len(s.Asks)), 10)
	buf = append(buf, '}')
	return string(buf)
}
