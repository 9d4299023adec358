// Package orderbook reconstructs an L2 order book per (venue, symbol) by
// merging a REST snapshot with streaming deltas, detecting sequence gaps
// and resyncing via a fresh snapshot fetch when one occurs.
package orderbook

import (
	"context"
	"sync"

	"github.com/driftfeed/marketfeed/internal/model"
	"github.com/driftfeed/marketfeed/internal/obs"
)

// SnapshotFetcher fetches a full L2 snapshot for one symbol over REST.
// Each venue dialect that needs order-book reconstruction implements
// this against its own REST endpoint.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, symbol string) (model.OrderBookSnapshot, error)
}

type book struct {
	mu            sync.Mutex
	bids          map[float64]float64
	asks          map[float64]float64
	lastSequence  uint64
	fetching      bool
}

// Reconstructor owns one book per symbol for a single venue.
type Reconstructor struct {
	fetcher SnapshotFetcher
	stats   *obs.Stats

	mu     sync.Mutex
	books  map[string]*book
}

// New builds a Reconstructor that fetches snapshots through fetcher.
func New(fetcher SnapshotFetcher, stats *obs.Stats) *Reconstructor {
	return &Reconstructor{
		fetcher: fetcher,
		stats:   stats,
		books:   make(map[string]*book),
	}
}

func (r *Reconstructor) bookFor(symbol string) *book {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[symbol]
	if !ok {
		b = &book{bids: make(map[float64]float64), asks: make(map[float64]float64)}
		r.books[symbol] = b
	}
	return b
}

// ApplyDelta merges one streaming delta into the symbol's book. If the
// book has no baseline yet, or the delta's sequence does not chain off
// the last applied sequence, a snapshot refetch is triggered in the
// background and the delta is dropped.
func (r *Reconstructor) ApplyDelta(ctx context.Context, symbol string, delta model.OrderBookDelta) {
	b := r.bookFor(symbol)

	b.mu.Lock()
	needsSnapshot := b.lastSequence == 0 || delta.Sequence != b.lastSequence+1
	if needsSnapshot {
		already := b.fetching
		b.fetching = true
		b.mu.Unlock()
		if r.stats != nil {
			r.stats.IncGapRecovery()
		}
		if !already {
			go r.refetch(ctx, symbol)
		}
		return
	}
	applyLevels(b.bids, delta.Bids)
	applyLevels(b.asks, delta.Asks)
	b.lastSequence = delta.Sequence
	if bookCrossed(b) {
		already := b.fetching
		b.fetching = true
		b.mu.Unlock()
		if r.stats != nil {
			r.stats.IncGapRecovery()
		}
		if !already {
			go r.refetch(ctx, symbol)
		}
		return
	}
	b.mu.Unlock()
}

// ApplySnapshot installs a full snapshot as the book's new baseline,
// replacing any prior state. If the snapshot carries no sequence (some
// venues' WebSocket "snapshot" frame omits it), the caller should use
// ApplySnapshotBeforeSequence instead so last_sequence is derived from
// the next delta. If the installed snapshot is itself crossed, a
// refetch is triggered the same way a sequence gap would trigger one.
func (r *Reconstructor) ApplySnapshot(ctx context.Context, symbol string, snapshot model.OrderBookSnapshot) {
	b := r.bookFor(symbol)
	b.mu.Lock()
	b.bids = levelsToMap(snapshot.Bids)
	b.asks = levelsToMap(snapshot.Asks)
	b.lastSequence = snapshot.Sequence
	b.fetching = false
	if bookCrossed(b) {
		already := b.fetching
		b.fetching = true
		b.mu.Unlock()
		if r.stats != nil {
			r.stats.IncGapRecovery()
		}
		if !already {
			go r.refetch(ctx, symbol)
		}
		return
	}
	b.mu.Unlock()
}

// ApplySnapshotBeforeSequence installs a sequence-less snapshot and
// derives last_sequence as nextDeltaSequence-1, so the following delta
// chains in cleanly.
func (r *Reconstructor) ApplySnapshotBeforeSequence(ctx context.Context, symbol string, snapshot model.OrderBookSnapshot, nextDeltaSequence uint64) {
	if nextDeltaSequence > 0 {
		snapshot.Sequence = nextDeltaSequence - 1
	}
	r.ApplySnapshot(ctx, symbol, snapshot)
}

func (r *Reconstructor) refetch(ctx context.Context, symbol string) {
	snapshot, err := r.fetcher.FetchSnapshot(ctx, symbol)
	if err != nil {
		b := r.bookFor(symbol)
		b.mu.Lock()
		b.fetching = false
		b.mu.Unlock()
		return
	}
	r.ApplySnapshot(ctx, symbol, snapshot)
}

// bookCrossed reports whether the book's best bid is at or above its
// best ask, i.e. invariant I4 (best bid < best ask) is violated. b.mu
// must be held by the caller.
func bookCrossed(b *book) bool {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return false
	}
	var bestBid, bestAsk float64
	first := true
	for price := range b.bids {
		if first || price > bestBid {
			bestBid = price
		}
		first = false
	}
	first = true
	for price := range b.asks {
		if first || price < bestAsk {
			bestAsk = price
		}
		first = false
	}
	return bestBid >= bestAsk
}

// Snapshot returns a consistent point-in-time copy of the book for
// symbol, sorted by price descending for bids and ascending for asks.
func (r *Reconstructor) Snapshot(symbol string) model.OrderBookSnapshot {
	b := r.bookFor(symbol)
	b.mu.Lock()
	defer b.mu.Unlock()

	return model.OrderBookSnapshot{
		Symbol:   symbol,
		Sequence: b.lastSequence,
		Bids:     sortedLevels(b.bids, true),
		Asks:     sortedLevels(b.asks, false),
	}
}

func applyLevels(side map[float64]float64, levels []model.PriceLevel) {
	for _, level := range levels {
		if level.Size == 0 {
			delete(side, level.Price)
			continue
		}
		side[level.Price] = level.Size
	}
}

func levelsToMap(levels []model.PriceLevel) map[float64]float64 {
	m := make(map[float64]float64, len(levels))
	for _, level := range levels {
		m[level.Price] = level.Size
	}
	return m
}

func sortedLevels(side map[float64]float64, descending bool) []model.PriceLevel {
	levels := make([]model.PriceLevel, 0, len(side))
	for price, size := range side {
		levels = append(levels, model.PriceLevel{Price: price, Size: size})
	}
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0; j-- {
			swap := levels[j].Price < levels[j-1].Price
			if descending {
				swap = levels[j].Price > levels[j-1].Price
			}
			if !swap {
				break
			}
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
	return levels
}
