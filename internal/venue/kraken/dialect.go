// Package kraken implements the Venue K dialect: a v2 JSON-RPC-like
// subscribe, a "channel"+"type" discriminator, ISO-8601 timestamps, and
// HMAC-SHA512 token authentication for private channels.
package kraken

import (
	"strings"

	"github.com/driftfeed/marketfeed/internal/venue"
)

const venuePath = "/v2"

// New builds the Venue K Dialect.
func New() *venue.Dialect {
	return &venue.Dialect{
		Source:          venueSource,
		Path:            func(venue.SubscriptionDescriptor) string { return venuePath },
		SubscribeFrames: subscribeFrames,
		Normalize:       normalize,
	}
}

func subscribeFrames(desc venue.SubscriptionDescriptor) ([]string, error) {
	frames := make([]string, 0, len(desc.Channels))
	for _, channel := range desc.Channels {
		var b strings.Builder
		b.WriteString(`{"method":"subscribe","params":{"channel":"`)
		b.WriteString(channel)
		b.WriteString(`","symbol":[`)
		for i, symbol := range desc.Symbols {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(symbol)
			b.WriteByte('"')
		}
		b.WriteByte(']')

		if desc.Credentials.APIKey != "" {
			token, err := fetchToken(desc.Credentials)
			if err != nil {
				return nil, err
			}
			b.WriteString(`,"token":"`)
			b.WriteString(token)
			b.WriteByte('"')
		}
		b.WriteString(`}}`)
		frames = append(frames, b.String())
	}
	return frames, nil
}
