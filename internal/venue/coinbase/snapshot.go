package coinbase

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/driftfeed/marketfeed/internal/errors"
	"github.com/driftfeed/marketfeed/internal/model"
)

// SnapshotFetcher fetches an L2 order-book snapshot over Venue C's REST
// API. It satisfies internal/orderbook.SnapshotFetcher.
type SnapshotFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewSnapshotFetcher builds a SnapshotFetcher against the given REST base
// URL (e.g. "https://api.exchange.example.com").
func NewSnapshotFetcher(baseURL string) *SnapshotFetcher {
	return &SnapshotFetcher{BaseURL: baseURL, Client: http.DefaultClient}
}

type restLevel [2]string

type restBookResponse struct {
	Sequence int64       `json:"sequence"`
	Bids     []restLevel `json:"bids"`
	Asks     []restLevel `json:"asks"`
}

// FetchSnapshot runs a fresh, independent HTTPS request per call so a
// snapshot fetch never blocks the WebSocket read loop.
func (f *SnapshotFetcher) FetchSnapshot(ctx context.Context, symbol string) (model.OrderBookSnapshot, error) {
	url := f.BaseURL + "/products/" + symbol + "/book?level=2"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.OrderBookSnapshot{}, errors.Wrap(err, "coinbase: building snapshot request")
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return model.OrderBookSnapshot{}, errors.Wrap(err, "coinbase: fetching snapshot")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.OrderBookSnapshot{}, errors.New("coinbase: snapshot request returned status " + strconv.Itoa(resp.StatusCode))
	}

	var body restBookResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.OrderBookSnapshot{}, errors.Wrap(err, "coinbase: decoding snapshot")
	}

	return model.OrderBookSnapshot{
		Source:   venueSource,
		Symbol:   symbol,
		Sequence: uint64(body.Sequence),
		Bids:     toLevels(body.Bids),
		Asks:     toLevels(body.Asks),
	}, nil
}

func toLevels(raw []restLevel) []model.PriceLevel {
	levels := make([]model.PriceLevel, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r[0], 64)
		size, _ := strconv.ParseFloat(r[1], 64)
		levels = append(levels, model.PriceLevel{Price: price, Size: size})
	}
	return levels
}
