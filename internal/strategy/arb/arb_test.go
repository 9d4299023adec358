package arb

import (
	"testing"

	"github.com/driftfeed/marketfeed/internal/consumer"
	"github.com/driftfeed/marketfeed/internal/model"
)

type recordingRouter struct {
	intents []consumer.OrderIntent
}

func (r *recordingRouter) Submit(intent consumer.OrderIntent) error {
	r.intents = append(r.intents, intent)
	return nil
}

func TestDetectOpportunityMatchesSeededScenario(t *testing.T) {
	asks := []model.PriceLevel{{Price: 100, Size: 1}}
	bids := []model.PriceLevel{{Price: 101, Size: 2}}

	opp, ok := detectOpportunity(model.SourceVenueB, asks, model.SourceVenueC, bids, "BTCUSDT", 0.001)
	if !ok {
		t.Fatal("detectOpportunity() ok = false, want true")
	}
	if opp.Volume != 1 {
		t.Fatalf("Volume = %v, want 1 (min of 1 and 2)", opp.Volume)
	}
	wantProfit := 0.8995
	if diff := opp.Profit - wantProfit; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("Profit = %v, want %v", opp.Profit, wantProfit)
	}
}

func TestDetectOpportunityNoneWhenSpreadNegative(t *testing.T) {
	asks := []model.PriceLevel{{Price: 101, Size: 1}}
	bids := []model.PriceLevel{{Price: 100, Size: 1}}
	if _, ok := detectOpportunity(model.SourceVenueB, asks, model.SourceVenueC, bids, "BTCUSDT", 0.001); ok {
		t.Fatal("detectOpportunity() ok = true, want false for inverted book")
	}
}

func TestDetectOpportunityNoneWhenFeeExceedsSpread(t *testing.T) {
	asks := []model.PriceLevel{{Price: 100, Size: 1}}
	bids := []model.PriceLevel{{Price: 100.05, Size: 1}}
	if _, ok := detectOpportunity(model.SourceVenueB, asks, model.SourceVenueC, bids, "BTCUSDT", 0.01); ok {
		t.Fatal("detectOpportunity() ok = true, want false when fee eats the spread")
	}
}

func TestStrategyEndToEndPublishesOrderIntents(t *testing.T) {
	router := &recordingRouter{}
	strat := New(Config{VenueA: model.SourceVenueB, VenueB: model.SourceVenueC, Symbol: "BTCUSDT", FeeRate: 0.001}, router)

	strat.onSnapshot(model.OrderBookSnapshot{
		Source: model.SourceVenueB,
		Symbol: "BTCUSDT",
		Asks:   []model.PriceLevel{{Price: 100, Size: 1}},
	})
	strat.onSnapshot(model.OrderBookSnapshot{
		Source: model.SourceVenueC,
		Symbol: "BTCUSDT",
		Bids:   []model.PriceLevel{{Price: 101, Size: 2}},
	})

	if len(router.intents) != 2 {
		t.Fatalf("len(intents) = %d, want 2 (buy + sell leg)", len(router.intents))
	}
	if router.intents[0].Side != model.SideBuy || router.intents[0].Source != model.SourceVenueB {
		t.Fatalf("intents[0] = %+v", router.intents[0])
	}
	if router.intents[1].Side != model.SideSell || router.intents[1].Source != model.SourceVenueC {
		t.Fatalf("intents[1] = %+v", router.intents[1])
	}
}

func TestMergeTopAppliesDeleteAndOverwrite(t *testing.T) {
	existing := []model.PriceLevel{{Price: 100, Size: 1}, {Price: 99, Size: 2}}
	delta := []model.PriceLevel{{Price: 100, Size: 0}, {Price: 98, Size: 5}}
	merged := mergeTop(existing, delta, true)
	if len(merged) != 2 {
		t.Fatalf("merged = %+v, want 2 levels", merged)
	}
	if merged[0].Price != 99 || merged[1].Price != 98 {
		t.Fatalf("merged not sorted descending: %+v", merged)
	}
}
