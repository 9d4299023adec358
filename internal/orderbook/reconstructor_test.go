package orderbook

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/driftfeed/marketfeed/internal/model"
)

type fakeFetcher struct {
	calls    atomic.Int32
	snapshot model.OrderBookSnapshot
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, symbol string) (model.OrderBookSnapshot, error) {
	f.calls.Add(1)
	return f.snapshot, nil
}

func TestApplyDeltaWithoutBaselineTriggersSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: model.OrderBookSnapshot{
		Symbol:   "BTC-USD",
		Sequence: 10,
		Bids:     []model.PriceLevel{{Price: 100, Size: 1}},
	}}
	r := New(fetcher, nil)

	r.ApplyDelta(context.Background(), "BTC-USD", model.OrderBookDelta{Sequence: 11})

	deadline := time.Now().Add(time.Second)
	for fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("fetcher.calls = %d, want 1", fetcher.calls.Load())
	}

	deadline = time.Now().Add(time.Second)
	for r.Snapshot("BTC-USD").Sequence != 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := r.Snapshot("BTC-USD").Sequence; got != 10 {
		t.Fatalf("Sequence after snapshot = %d, want 10", got)
	}
}

func TestApplyDeltaSequenceGapTriggersResync(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: model.OrderBookSnapshot{
		Symbol:   "BTC-USD",
		Sequence: 50,
		Bids:     []model.PriceLevel{{Price: 100, Size: 2}},
	}}
	r := New(fetcher, nil)
	r.ApplySnapshot(context.Background(), "BTC-USD", model.OrderBookSnapshot{Symbol: "BTC-USD", Sequence: 5})

	r.ApplyDelta(context.Background(), "BTC-USD", model.OrderBookDelta{Sequence: 8})

	deadline := time.Now().Add(time.Second)
	for fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("fetcher.calls = %d, want 1 (sequence gap must trigger resync)", fetcher.calls.Load())
	}
}

func TestApplyDeltaInOrderMergesLevels(t *testing.T) {
	r := New(&fakeFetcher{}, nil)
	r.ApplySnapshot(context.Background(), "BTC-USD", model.OrderBookSnapshot{
		Symbol:   "BTC-USD",
		Sequence: 1,
		Bids:     []model.PriceLevel{{Price: 100, Size: 1}},
		Asks:     []model.PriceLevel{{Price: 101, Size: 1}},
	})

	r.ApplyDelta(context.Background(), "BTC-USD", model.OrderBookDelta{
		Sequence: 2,
		Bids:     []model.PriceLevel{{Price: 100, Size: 0}, {Price: 99, Size: 3}},
		Asks:     []model.PriceLevel{{Price: 102, Size: 2}},
	})

	snap := r.Snapshot("BTC-USD")
	if snap.Sequence != 2 {
		t.Fatalf("Sequence = %d, want 2", snap.Sequence)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 99 {
		t.Fatalf("Bids = %+v, want only price 99 (100 deleted)", snap.Bids)
	}
	if len(snap.Asks) != 2 {
		t.Fatalf("Asks = %+v, want 2 levels", snap.Asks)
	}
}

func TestApplySnapshotBeforeSequenceDerivesBaseline(t *testing.T) {
	r := New(&fakeFetcher{}, nil)
	r.ApplySnapshotBeforeSequence(context.Background(), "BTC-USD", model.OrderBookSnapshot{Symbol: "BTC-USD"}, 42)
	if got := r.Snapshot("BTC-USD").Sequence; got != 41 {
		t.Fatalf("Sequence = %d, want 41", got)
	}

	r.ApplyDelta(context.Background(), "BTC-USD", model.OrderBookDelta{Sequence: 42, Bids: []model.PriceLevel{{Price: 1, Size: 1}}})
	if got := r.Snapshot("BTC-USD").Sequence; got != 42 {
		t.Fatalf("Sequence after chaining delta = %d, want 42", got)
	}
}

func TestSnapshotSortOrder(t *testing.T) {
	r := New(&fakeFetcher{}, nil)
	r.ApplySnapshot(context.Background(), "BTC-USD", model.OrderBookSnapshot{
		Symbol: "BTC-USD",
		Bids:   []model.PriceLevel{{Price: 100, Size: 1}, {Price: 102, Size: 1}, {Price: 101, Size: 1}},
		Asks:   []model.PriceLevel{{Price: 105, Size: 1}, {Price: 103, Size: 1}, {Price: 104, Size: 1}},
	})
	snap := r.Snapshot("BTC-USD")
	if snap.Bids[0].Price != 102 || snap.Bids[1].Price != 101 || snap.Bids[2].Price != 100 {
		t.Fatalf("Bids not descending: %+v", snap.Bids)
	}
	if snap.Asks[0].Price != 103 || snap.Asks[1].Price != 104 || snap.Asks[2].Price != 105 {
		t.Fatalf("Asks not ascending: %+v", snap.Asks)
	}
}

func TestApplyDeltaCrossedBookTriggersResync(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: model.OrderBookSnapshot{
		Symbol:   "BTC-USD",
		Sequence: 3,
		Bids:     []model.PriceLevel{{Price: 100, Size: 1}},
		Asks:     []model.PriceLevel{{Price: 101, Size: 1}},
	}}
	r := New(fetcher, nil)
	r.ApplySnapshot(context.Background(), "BTC-USD", model.OrderBookSnapshot{
		Symbol:   "BTC-USD",
		Sequence: 1,
		Bids:     []model.PriceLevel{{Price: 100, Size: 1}},
		Asks:     []model.PriceLevel{{Price: 101, Size: 1}},
	})

	// Bid crosses above the existing ask: best bid (102) >= best ask (101).
	r.ApplyDelta(context.Background(), "BTC-USD", model.OrderBookDelta{
		Sequence: 2,
		Bids:     []model.PriceLevel{{Price: 102, Size: 1}},
	})

	deadline := time.Now().Add(time.Second)
	for fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("fetcher.calls = %d, want 1 (crossed book must trigger resync)", fetcher.calls.Load())
	}
}
