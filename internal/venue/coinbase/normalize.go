package coinbase

import (
	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/scanner"
	"github.com/driftfeed/marketfeed/internal/venue"
)

const venueSource = model.SourceVenueC

func normalize(frame []byte, now venue.Clock, pub venue.Publisher) (bool, error) {
	typeStart, ok := scanner.FindValueAfterKey(frame, "type")
	if !ok {
		return false, nil
	}
	msgType, ok := scanner.ScanString(frame, typeStart)
	if !ok {
		return false, nil
	}

	switch string(msgType) {
	case "snapshot":
		return true, normalizeSnapshot(frame, now, pub)
	case "l2update":
		return true, normalizeL2Update(frame, now, pub)
	case "ticker":
		return true, normalizeTicker(frame, now, pub)
	case "match":
		return true, normalizeMatch(frame, now, pub)
	case "heartbeat", "subscriptions", "open", "done", "change":
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
	if start < len(data) && (data[start] >= '0' && data[start] <= '9' || data[start] == '-') {
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

func normalizeSnapshot(frame []byte, now venue.Clock, pub venue.Publisher) error {
	symbol, _ := stringField(frame, "product_id")

	var bids, asks []model.PriceLevel
	if start, ok := scanner.FindValueAfterKey(frame, "bids"); ok {
		bids, _ = scanner.ParsePriceQtyArray(frame, start)
	}
	if start, ok := scanner.FindValueAfterKey(frame, "asks"); ok {
		asks, _ = scanner.ParsePriceQtyArray(frame, start)
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

func normalizeL2Update(frame []byte, now venue.Clock, pub venue.Publisher) error {
	symbol, _ := stringField(frame, "product_id")
	timestampNano := timeField(frame, "time", now)
	sequence, _ := int64Field(frame, "sequence")

	var bids, asks []model.PriceLevel
	if start, ok := scanner.FindValueAfterKey(frame, "changes"); ok {
		bids, asks = parseChanges(frame, start)
	}

	pub.PublishOrderBookDelta(model.OrderBookDelta{
		Source:        venueSource,
		Symbol:        symbol,
		Sequence:      uint64(sequence),
		TimestampNano: timestampNano,
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

// parseChanges parses the [["buy"|"sell", "price", "size"], ...] array
// Venue C's l2update carries instead of separate bid/ask arrays.
func parseChanges(frame []byte, start int) (bids, asks []model.PriceLevel) {
	i := start
	n := len(frame)
	for i < n && scanner.IsSpace(frame[i]) {
		i++
	}
	if i >= n || frame[i] != '[' {
		return nil, nil
	}
	i++
	for {
		for i < n && scanner.IsSpace(frame[i]) {
			i++
		}
		if i >= n || frame[i] == ']' {
			return bids, asks
		}
		if frame[i] != '[' {
			return bids, asks
		}
		i++
		for i < n && scanner.IsSpace(frame[i]) {
			i++
		}
		if i >= n || frame[i] != '"' {
			return bids, asks
		}
		i++
		sideStart := i
		for i < n && frame[i] != '"' {
			i++
		}
		side := string(frame[sideStart:i])
		i++
		for i < n && frame[i] != ',' {
			i++
		}
		i++
		for i < n && scanner.IsSpace(frame[i]) {
			i++
		}
		priceStart := i
		if i < n && frame[i] == '"' {
			priceStart++
		}
		price := scanner.ParseDouble(frame, priceStart)
		for i < n && frame[i] != ',' {
			i++
		}
		i++
		for i < n && scanner.IsSpace(frame[i]) {
			i++
		}
		sizeStart := i
		if i < n && frame[i] == '"' {
			sizeStart++
		}
		size := scanner.ParseDouble(frame, sizeStart)
		for i < n && frame[i] != ']' {
			i++
		}
		i++

		level := model.PriceLevel{Price: price, Size: size}
		if side == "buy" {
			bids = append(bids, level)
		} else if side == "sell" {
			asks = append(asks, level)
		}

		for i < n && scanner.IsSpace(frame[i]) {
			i++
		}
		if i < n && frame[i] == ',' {
			i++
		}
	}
}

func normalizeTicker(frame []byte, now venue.Clock, pub venue.Publisher) error {
	symbol, _ := stringField(frame, "product_id")
	last, _ := doubleField(frame, "price")
	bestBid, _ := doubleField(frame, "best_bid")
	bestBidSize, _ := doubleField(frame, "best_bid_size")
	bestAsk, _ := doubleField(frame, "best_ask")
	bestAskSize, _ := doubleField(frame, "best_ask_size")
	volume, _ := doubleField(frame, "volume_24h")
	high, _ := doubleField(frame, "high_24h")
	low, _ := doubleField(frame, "low_24h")
	open24h, hasOpen := doubleField(frame, "open_24h")

	var priceChange, priceChangePct float64
	if hasOpen && open24h != 0 {
		priceChange = last - open24h
		priceChangePct = priceChange / open24h * 100
	}

	timestampNano := timeField(frame, "time", now)

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

func normalizeMatch(frame []byte, now venue.Clock, pub venue.Publisher) error {
	symbol, _ := stringField(frame, "product_id")
	price, _ := doubleField(frame, "price")
	size, _ := doubleField(frame, "size")
	side, _ := stringField(frame, "side")
	timestampNano := timeField(frame, "time", now)

	modelSide := model.SideBuy
	if side == "sell" {
		modelSide = model.SideSell
	}

	pub.PublishTrade(model.Trade{
		Source:        venueSource,
		Symbol:        symbol,
		Side:          modelSide,
		Price:         price,
		Quantity:      size,
		TradeTimeNano: timestampNano,
	})
	return nil
}
