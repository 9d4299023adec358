// Package arb is the reference cross-venue arbitrage detector: it
// compares top-of-book between two named pipelines and emits an order
// intent when the net-of-fee spread is positive. It exists to exercise
// the Event Bus and ExecutionRouter contracts end-to-end, not as a
// trading policy.
package arb

import (
	"sync"

	"github.com/driftfeed/marketfeed/internal/bus"
	"github.com/driftfeed/marketfeed/internal/consumer"
	"github.com/driftfeed/marketfeed/internal/model"
)

// maxLevels bounds how many price levels of each side are aggregated
// into "available volume" for a cross-venue comparison.
const maxLevels = 5

// Config names the two venues to compare and the round-trip fee to net
// out of the raw spread.
type Config struct {
	VenueA  model.Source
	VenueB  model.Source
	Symbol  string
	FeeRate float64
}

// Opportunity is one detected cross-venue arbitrage.
type Opportunity struct {
	BuyFrom  model.Source
	SellTo   model.Source
	Symbol   string
	BuyPrice float64
	SellPrice float64
	Volume   float64
	Profit   float64
}

type venueBook struct {
	bids []model.PriceLevel
	asks []model.PriceLevel
}

// Strategy subscribes to order-book events for two venues and calls
// router.Submit whenever a positive net-of-fee cross-venue spread
// appears.
type Strategy struct {
	cfg    Config
	router consumer.ExecutionRouter

	mu    sync.Mutex
	books map[model.Source]*venueBook
}

// New builds a Strategy. Call SubscribeTo to wire it into a Bus.
func New(cfg Config, router consumer.ExecutionRouter) *Strategy {
	return &Strategy{
		cfg:    cfg,
		router: router,
		books: map[model.Source]*venueBook{
			cfg.VenueA: {},
			cfg.VenueB: {},
		},
	}
}

// SubscribeTo installs order-book handlers for the strategy's two
// venues on b.
func (s *Strategy) SubscribeTo(b *bus.Bus) {
	b.SubscribeOrderBookSnapshot(s.onSnapshot)
	b.SubscribeOrderBookDelta(s.onDelta)
}

func (s *Strategy) onSnapshot(e model.OrderBookSnapshot) {
	if e.Symbol != s.cfg.Symbol {
		return
	}
	s.mu.Lock()
	book, ok := s.books[e.Source]
	if !ok {
		s.mu.Unlock()
		return
	}
	book.bids = topLevels(e.Bids, true)
	book.asks = topLevels(e.Asks, false)
	s.mu.Unlock()
	s.evaluate()
}

func (s *Strategy) onDelta(e model.OrderBookDelta) {
	if e.Symbol != s.cfg.Symbol {
		return
	}
	s.mu.Lock()
	book, ok := s.books[e.Source]
	if !ok {
		s.mu.Unlock()
		return
	}
	book.bids = mergeTop(book.bids, e.Bids, true)
	book.asks = mergeTop(book.asks, e.Asks, false)
	s.mu.Unlock()
	s.evaluate()
}

func (s *Strategy) evaluate() {
	s.mu.Lock()
	a := *s.books[s.cfg.VenueA]
	b := *s.books[s.cfg.VenueB]
	s.mu.Unlock()

	if opp, ok := detectOpportunity(s.cfg.VenueA, a.asks, s.cfg.VenueB, b.bids, s.cfg.Symbol, s.cfg.FeeRate); ok {
		s.submit(opp)
	}
	if opp, ok := detectOpportunity(s.cfg.VenueB, b.asks, s.cfg.VenueA, a.bids, s.cfg.Symbol, s.cfg.FeeRate); ok {
		s.submit(opp)
	}
}

func (s *Strategy) submit(opp Opportunity) {
	_ = s.router.Submit(consumer.OrderIntent{
		Source:   opp.BuyFrom,
		Symbol:   opp.Symbol,
		Side:     model.SideBuy,
		Price:    opp.BuyPrice,
		Quantity: opp.Volume,
	})
	_ = s.router.Submit(consumer.OrderIntent{
		Source:   opp.SellTo,
		Symbol:   opp.Symbol,
		Side:     model.SideSell,
		Price:    opp.SellPrice,
		Quantity: opp.Volume,
	})
}

// detectOpportunity checks whether buying at askVenue's best ask and
// selling at bidVenue's best bid clears a profit net of feeRate.
func detectOpportunity(askVenue model.Source, asks []model.PriceLevel, bidVenue model.Source, bids []model.PriceLevel, symbol string, feeRate float64) (Opportunity, bool) {
	if len(asks) == 0 || len(bids) == 0 {
		return Opportunity{}, false
	}
	askPrice := asks[0].Price
	bidPrice := bids[0].Price
	if bidPrice <= askPrice {
		return Opportunity{}, false
	}

	askVolume := sumVolume(asks)
	bidVolume := sumVolume(bids)
	volume := askVolume
	if bidVolume < volume {
		volume = bidVolume
	}
	if volume <= 0 {
		return Opportunity{}, false
	}

	feePerUnit := feeRate * (askPrice + bidPrice) / 2
	netSpread := bidPrice - askPrice - feePerUnit
	if netSpread <= 0 {
		return Opportunity{}, false
	}

	return Opportunity{
		BuyFrom:   askVenue,
		SellTo:    bidVenue,
		Symbol:    symbol,
		BuyPrice:  askPrice,
		SellPrice: bidPrice,
		Volume:    volume,
		Profit:    netSpread * volume,
	}, true
}

func sumVolume(levels []model.PriceLevel) float64 {
	var total float64
	for _, l := range levels {
		total += l.Size
	}
	return total
}

func topLevels(levels []model.PriceLevel, descending bool) []model.PriceLevel {
	sorted := make([]model.PriceLevel, len(levels))
	copy(sorted, levels)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			swap := sorted[j].Price < sorted[j-1].Price
			if descending {
				swap = sorted[j].Price > sorted[j-1].Price
			}
			if !swap {
				break
			}
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > maxLevels {
		sorted = sorted[:maxLevels]
	}
	return sorted
}

// mergeTop folds a delta into an existing top-N book side: size 0
// removes the level, non-zero overwrites it, then the merged side is
// re-sorted and truncated to maxLevels.
func mergeTop(existing, delta []model.PriceLevel, descending bool) []model.PriceLevel {
	byPrice := make(map[float64]float64, len(existing)+len(delta))
	for _, l := range existing {
		byPrice[l.Price] = l.Size
	}
	for _, l := range delta {
		if l.Size == 0 {
			delete(byPrice, l.Price)
			continue
		}
		byPrice[l.Price] = l.Size
	}
	merged := make([]model.PriceLevel, 0, len(byPrice))
	for price, size := range byPrice {
		merged = append(merged, model.PriceLevel{Price: price, Size: size})
	}
	return topLevels(merged, descending)
}
