package binance

import (
	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/scanner"
	"github.com/driftfeed/marketfeed/internal/venue"
)

const venueSource = model.SourceVenueB

// normalize dispatches one combined-stream envelope
// {"stream":"...","data":{...}} by data.e.
func normalize(frame []byte, now venue.Clock, pub venue.Publisher) (bool, error) {
	dataStart, ok := scanner.FindValueAfterKey(frame, "data")
	if !ok {
		return false, nil
	}
	dataEnd := scanner.ObjectEnd(frame, dataStart)
	if dataEnd < 0 {
		return false, nil
	}
	data := frame[dataStart:dataEnd]

	eventStart, ok := scanner.FindValueAfterKey(data, "e")
	if !ok {
		return false, nil
	}
	eventType, ok := scanner.ScanString(data, eventStart)
	if !ok {
		return false, nil
	}

	switch string(eventType) {
	case "trade":
		return true, normalizeTrade(data, now, pub)
	case "depthUpdate":
		return true, normalizeDepthUpdate(data, now, pub)
	case "24hrTicker":
		return true, normalizeTicker(data, now, pub)
	case "kline":
		return true, normalizeKline(data, now, pub)
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
	return scanner.ParseDouble(data, start), true
}

func doubleStringField(data []byte, key string) (float64, bool) {
	start, ok := scanner.FindValueAfterKey(data, key)
	if !ok {
		return 0, false
	}
	if start < len(data) && isDigitOrSign(data[start]) {
		return scanner.ParseDouble(data, start), true
	}
	v, ok := scanner.ScanString(data, start)
	if !ok {
		return 0, false
	}
	return scanner.ParseDouble(v, 0), true
}

func isDigitOrSign(b byte) bool {
	return (b >= '0' && b <= '9') || b == '-' || b == '+'
}

func int64Field(data []byte, key string) (int64, bool) {
	start, ok := scanner.FindValueAfterKey(data, key)
	if !ok {
		return 0, false
	}
	return scanner.ParseInt64(data, start), true
}

func normalizeTrade(data []byte, now venue.Clock, pub venue.Publisher) error {
	symbol, _ := stringField(data, "s")
	price, _ := doubleStringField(data, "p")
	qty, _ := doubleStringField(data, "q")
	tradeTimeMs, hasTime := int64Field(data, "T")

	side := model.SideBuy
	if isBuyerMaker(data) {
		side = model.SideSell
	}

	tradeTimeNano := int64(0)
	if hasTime && tradeTimeMs > 0 {
		tradeTimeNano = tradeTimeMs * 1e6
	} else {
		tradeTimeNano = now()
	}

	pub.PublishTrade(model.Trade{
		Source:        venueSource,
		Symbol:        symbol,
		Side:          side,
		Price:         price,
		Quantity:      qty,
		TradeTimeNano: tradeTimeNano,
	})
	return nil
}

func isBuyerMaker(data []byte) bool {
	start, ok := scanner.FindValueAfterKey(data, "m")
	if !ok || start >= len(data) {
		return false
	}
	return data[start] == 't'
}

func normalizeDepthUpdate(data []byte, now venue.Clock, pub venue.Publisher) error {
	symbol, _ := stringField(data, "s")
	finalUpdateID, _ := int64Field(data, "u")
	eventTimeMs, hasTime := int64Field(data, "E")

	var bids, asks []model.PriceLevel
	if start, ok := scanner.FindValueAfterKey(data, "b"); ok {
		bids, _ = scanner.ParsePriceQtyArray(data, start)
	}
	if start, ok := scanner.FindValueAfterKey(data, "a"); ok {
		asks, _ = scanner.ParsePriceQtyArray(data, start)
	}

	timestampNano := int64(0)
	if hasTime && eventTimeMs > 0 {
		timestampNano = eventTimeMs * 1e6
	} else {
		timestampNano = now()
	}

	pub.PublishOrderBookDelta(model.OrderBookDelta{
		Source:        venueSource,
		Symbol:        symbol,
		TimestampNano: timestampNano,
		Sequence:      uint64(finalUpdateID),
		Bids:          bids,
		Asks:          asks,
	})
	return nil
}

func normalizeTicker(data []byte, now venue.Clock, pub venue.Publisher) error {
	symbol, _ := stringField(data, "s")
	last, _ := doubleStringField(data, "c")
	bestBid, _ := doubleStringField(data, "b")
	bestBidSize, _ := doubleStringField(data, "B")
	bestAsk, _ := doubleStringField(data, "a")
	bestAskSize, _ := doubleStringField(data, "A")
	volume, _ := doubleStringField(data, "v")
	priceChange, _ := doubleStringField(data, "p")
	priceChangePct, _ := doubleStringField(data, "P")
	high, _ := doubleStringField(data, "h")
	low, _ := doubleStringField(data, "l")
	eventTimeMs, hasTime := int64Field(data, "E")

	timestampNano := int64(0)
	if hasTime && eventTimeMs > 0 {
		timestampNano = eventTimeMs * 1e6
	} else {
		timestampNano = now()
	}

	pub.PublishTicker(model.Ticker{
		Source:            venueSource,
		Symbol:            symbol,
		TimestampNano:     timestampNano,
		LastPrice:         last,
		BestBid:           bestBid,
		BestBidSize:       bestBidSize,
		BestAsk:           bestAsk,
		BestAskSize:       bestAskSize,
		Volume24h:         volume,
		PriceChange24h:    priceChange,
		PriceChangePct24h: priceChangePct,
		High24h:           high,
		Low24h:            low,
	})
	return nil
}

func normalizeKline(data []byte, now venue.Clock, pub venue.Publisher) error {
	kStart, ok := scanner.FindValueAfterKey(data, "k")
	if !ok {
		return nil
	}
	kEnd := scanner.ObjectEnd(data, kStart)
	if kEnd < 0 {
		return nil
	}
	k := data[kStart:kEnd]

	symbol, _ := stringField(k, "s")
	interval, _ := stringField(k, "i")
	openTimeMs, _ := int64Field(k, "t")
	closeTimeMs, _ := int64Field(k, "T")
	open, _ := doubleStringField(k, "o")
	high, _ := doubleStringField(k, "h")
	low, _ := doubleStringField(k, "l")
	closePrice, _ := doubleStringField(k, "c")
	volume, _ := doubleStringField(k, "v")
	tradeCount, _ := int64Field(k, "n")

	_ = now

	pub.PublishCandle(model.Candle{
		Source:        venueSource,
		Symbol:        symbol,
		Interval:      interval,
		OpenTimeNano:  openTimeMs * 1e6,
		CloseTimeNano: closeTimeMs * 1e6,
		Open:          open,
		High:          high,
		Low:           low,
		Close:         closePrice,
		Volume:        volume,
		TradeCount:    tradeCount,
	})
	return nil
}
