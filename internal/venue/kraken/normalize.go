package kraken

import (
	"strconv"

	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/scanner"
	"github.com/driftfeed/marketfeed/internal/venue"
)

const venueSource = model.SourceVenueK

// normalize dispatches a v2 data frame by its "channel" and "type"
// fields. Only "update" (and, for the book channel, "snapshot") frames
// carry data; everything else (subscription acks, heartbeats) is
// recognized and ignored.
func normalize(frame []byte, now venue.Clock, pub venue.Publisher) (bool, error) {
	channelStart, ok := scanner.FindValueAfterKey(frame, "channel")
	if !ok {
		return false, nil
	}
	channel, ok := scanner.ScanString(frame, channelStart)
	if !ok {
		return false, nil
	}

	typeStart, hasType := scanner.FindValueAfterKey(frame, "type")
	msgType := ""
	if hasType {
		if v, ok := scanner.ScanString(frame, typeStart); ok {
			msgType = string(v)
		}
	}

	switch string(channel) {
	case "trade":
		if msgType != "update" && msgType != "" {
			return true, nil
		}
		return true, normalizeTrades(frame, now, pub)
	case "ticker":
		if msgType != "update" && msgType != "" {
			return true, nil
		}
		return true, normalizeTicker(frame, now, pub)
	case "book":
		switch msgType {
		case "snapshot":
			return true, normalizeBookSnapshot(frame, now, pub)
		case "update":
			return true, normalizeBookUpdate(frame, now, pub)
		default:
			return true, nil
		}
	case "ohlc":
		if msgType != "update" && msgType != "" {
			return true, nil
		}
		return true, normalizeOHLC(frame, now, pub)
	case "heartbeat", "status":
		return true, nil
	default:
		return false, nil
	}
}

func stringField(data []byte, key string) (string, bool) {
	start, ok := scanner.FindValueAfterKey(data, key)
	if !ok {
		return "", false
	}
	v, ok := scanner.ScanString(data, start)
	if !ok {
		return "", false
	}
	return string(v), true
}

func doubleField(data []byte, key string) (float64, bool) {
	start, ok := scanner.FindValueAfterKey(data, key)
	if !ok {
		return 0, false
	}
	if start < len(data) && (data[start] == '-' || (data[start] >= '0' && data[start] <= '9')) {
		return scanner.ParseDouble(data, start), true
	}
	v, ok := scanner.ScanString(data, start)
	if !ok {
		return 0, false
	}
	return scanner.ParseDouble(v, 0), true
}

func timeField(data []byte, key string, now venue.Clock) int64 {
	start, ok := scanner.FindValueAfterKey(data, key)
	if !ok {
		return now()
	}
	v, ok := scanner.ScanString(data, start)
	if !ok || len(v) == 0 {
		return now()
	}
	ns := scanner.ParseISO8601ToNS(v, 0)
	if ns == 0 {
		return now()
	}
	return ns
}

// dataObject locates the first object in the "data" array, which every
// v2 payload wraps its records in.
func dataObject(frame []byte) ([]byte, bool) {
	arrStart, ok := scanner.FindValueAfterKey(frame, "data")
	if !ok {
		return nil, false
	}
	i := arrStart
	for i < len(frame) && scanner.IsSpace(frame[i]) {
		i++
	}
	if i >= len(frame) || frame[i] != '[' {
		return nil, false
	}
	i++
	for i < len(frame) && scanner.IsSpace(frame[i]) {
		i++
	}
	if i >= len(frame) || frame[i] != '{' {
		return nil, false
	}
	end := scanner.ObjectEnd(frame, i)
	if end < 0 {
		return nil, false
	}
	return frame[i:end], true
}

func normalizeTrades(frame []byte, now venue.Clock, pub venue.Publisher) error {
	data, ok := dataObject(frame)
	if !ok {
		return nil
	}
	symbol, _ := stringField(data, "symbol")
	price, _ := doubleField(data, "price")
	qty, _ := doubleField(data, "qty")
	side, _ := stringField(data, "side")
	timestampNano := timeField(data, "timestamp", now)

	modelSide := model.SideBuy
	if side == "sell" {
		modelSide = model.SideSell
	}

	pub.PublishTrade(model.Trade{
		Source:        venueSource,
		Symbol:        symbol,
		Side:          modelSide,
		Price:         price,
		Quantity:      qty,
		TradeTimeNano: timestampNano,
	})
	return nil
}

func normalizeTicker(frame []byte, now venue.Clock, pub venue.Publisher) error {
	data, ok := dataObject(frame)
	if !ok {
		return nil
	}
	symbol, _ := stringField(data, "symbol")
	last, _ := doubleField(data, "last")
	bestBid, _ := doubleField(data, "bid")
	bestBidSize, _ := doubleField(data, "bid_qty")
	bestAsk, _ := doubleField(data, "ask")
	bestAskSize, _ := doubleField(data, "ask_qty")
	volume, _ := doubleField(data, "volume")
	high, _ := doubleField(data, "high")
	low, _ := doubleField(data, "low")
	change, _ := doubleField(data, "change")
	changePct, _ := doubleField(data, "change_pct")

	pub.PublishTicker(model.Ticker{
		Source:            venueSource,
		Symbol:            symbol,
		TimestampNano:     now(),
		LastPrice:         last,
		BestBid:           bestBid,
		BestBidSize:       bestBidSize,
		BestAsk:           bestAsk,
		BestAskSize:       bestAskSize,
		Volume24h:         volume,
		PriceChange24h:    change,
		PriceChangePct24h: changePct,
		High24h:           high,
		Low24h:            low,
	})
	return nil
}

func normalizeBookSnapshot(frame []byte, now venue.Clock, pub venue.Publisher) error {
	data, ok := dataObject(frame)
	if !ok {
		return nil
	}
	symbol, _ := stringField(data, "symbol")

	var bids, asks []model.PriceLevel
	if start, ok := scanner.FindValueAfterKey(data, "bids"); ok {
		bids, _ = scanner.ParsePriceQtyArray(data, start)
	}
	if start, ok := scanner.FindValueAfterKey(data, "asks"); ok {
		asks, _ = scanner.ParsePriceQtyArray(data, start)
	}

	pub.PublishOrderBookSnapshot(model.OrderBookSnapshot{
		Source:        venueSource,
		Symbol:        symbol,
		TimestampNano: now(),
		Bids:          bids,
		Asks:          asks,
	})
	return nil
}

func normalizeBookUpdate(frame []byte, now venue.Clock, pub venue.Publisher) error {
	data, ok := dataObject(frame)
	if !ok {
		return nil
	}
	symbol, _ := stringField(data, "symbol")
	timestampNano := timeField(data, "timestamp", now)
	checksum, _ := int64Field(data, "checksum")

	var bids, asks []model.PriceLevel
	if start, ok := scanner.FindValueAfterKey(data, "bids"); ok {
		bids, _ = scanner.ParsePriceQtyArray(data, start)
	}
	if start, ok := scanner.FindValueAfterKey(data, "asks"); ok {
		asks, _ = scanner.ParsePriceQtyArray(data, start)
	}

	pub.PublishOrderBookDelta(model.OrderBookDelta{
		Source:        venueSource,
		Symbol:        symbol,
		TimestampNano: timestampNano,
		Sequence:      uint64(checksum),
		Bids:          bids,
		Asks:          asks,
	})
	return nil
}

func int64Field(data []byte, key string) (int64, bool) {
	start, ok := scanner.FindValueAfterKey(data, key)
	if !ok {
		return 0, false
	}
	return scanner.ParseInt64(data, start), true
}

func normalizeOHLC(frame []byte, now venue.Clock, pub venue.Publisher) error {
	data, ok := dataObject(frame)
	if !ok {
		return nil
	}
	symbol, _ := stringField(data, "symbol")
	intervalMinutes, _ := int64Field(data, "interval")
	open, _ := doubleField(data, "open")
	high, _ := doubleField(data, "high")
	low, _ := doubleField(data, "low")
	closePrice, _ := doubleField(data, "close")
	volume, _ := doubleField(data, "volume")
	tradeCount, _ := int64Field(data, "trades")

	openTimeNano := timeField(data, "interval_begin", now)

	pub.PublishCandle(model.Candle{
		Source:       venueSource,
		Symbol:       symbol,
		Interval:     strconv.FormatInt(intervalMinutes, 10) + "m",
		OpenTimeNano: openTimeNano,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closePrice,
		Volume:       volume,
		TradeCount:   tradeCount,
	})
	return nil
}
