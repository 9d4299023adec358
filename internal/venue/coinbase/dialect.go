// Package coinbase implements the Venue C dialect: post-connect JSON
// subscribe, a top-level "type" discriminator, and HMAC-SHA256 prehash
// authentication for private channels.
package coinbase

import (
	"strconv"
	"strings"
	"time"

	"github.com/driftfeed/marketfeed/internal/venue"
)

const venuePath = "/"

// New builds the Venue C Dialect.
func New() *venue.Dialect {
	return &venue.Dialect{
		Source:          venueSource,
		Path:            func(venue.SubscriptionDescriptor) string { return venuePath },
		SubscribeFrames: subscribeFrames,
		Normalize:       normalize,
	}
}

func subscribeFrames(desc venue.SubscriptionDescriptor) ([]string, error) {
	var b strings.Builder
	b.WriteString(`{"type":"subscribe","product_ids":[`)
	for i, symbol := range desc.Symbols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(symbol)
		b.WriteByte('"')
	}
	b.WriteString(`],"channels":[`)
	for i, channel := range desc.Channels {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(channel)
		b.WriteByte('"')
	}
	b.WriteString(`]`)

	if desc.Credentials.APIKey != "" {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature, err := sign(desc.Credentials.APISecret, timestamp, "GET", "/users/self/verify")
		if err != nil {
			return nil, err
		}
		b.WriteString(`,"signature":"`)
		b.WriteString(signature)
		b.WriteString(`","key":"`)
		b.WriteString(desc.Credentials.APIKey)
		b.WriteString(`","passphrase":"`)
		b.WriteString(desc.Credentials.Passphrase)
		b.WriteString(`","timestamp":"`)
		b.WriteString(timestamp)
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return []string{b.String()}, nil
}
