// Package binance implements the Venue B dialect: subscription encoded
// in the WebSocket URL as a combined stream, single-letter field keys,
// and a "data.e" event-type discriminator.
package binance

import (
	"strings"

	"github.com/driftfeed/marketfeed/internal/venue"
)

// New builds the Venue B Dialect.
func New() *venue.Dialect {
	return &venue.Dialect{
		Source:          venueSource,
		Path:            path,
		SubscribeFrames: subscribeFrames,
		Normalize:       normalize,
	}
}

func path(desc venue.SubscriptionDescriptor) string {
	streams := make([]string, 0, len(desc.Symbols)*len(desc.Channels))
	for _, symbol := range desc.Symbols {
		lower := strings.ToLower(symbol)
		for _, channel := range desc.Channels {
			streams = append(streams, lower+"@"+channel)
		}
	}
	return "/stream?streams=" + strings.Join(streams, "/")
}

// subscribeFrames is empty: Venue B encodes its subscription entirely
// in the URL path, so nothing is sent post-connect.
func subscribeFrames(desc venue.SubscriptionDescriptor) ([]string, error) {
	return nil, nil
}
