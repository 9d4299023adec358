package venue

import (
	"time"

	"github.com/driftfeed/marketfeed/internal/model"
)

// Credentials carries the API key material needed to subscribe to a
// venue's private channels. A zero value means public-only.
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
}

// SubscriptionDescriptor binds the coordinates a Dialect needs to build
// the connection URL and any post-connect subscribe frame.
type SubscriptionDescriptor struct {
	Host        string
	Port        string
	Symbols     []string
	Channels    []string
	Credentials Credentials
}

// Publisher is the subset of the Event Bus a Normalizer publishes to.
// internal/bus.Bus satisfies this directly.
type Publisher interface {
	PublishTrade(model.Trade)
	PublishTicker(model.Ticker)
	PublishCandle(model.Candle)
	PublishOrderBookDelta(model.OrderBookDelta)
	PublishOrderBookSnapshot(model.OrderBookSnapshot)
}

// Clock returns the current time as Unix nanoseconds. Dialects fall back
// to it when a venue timestamp is missing or malformed.
type Clock func() int64

// WallClock is the default Clock: local monotonic-to-wall nanosecond
// time at the call site.
func WallClock() int64 {
	return time.Now().UnixNano()
}

// Dialect adapts one venue's wire format to the normalized event model.
type Dialect struct {
	Source model.Source

	// Path returns the WebSocket upgrade path for the given descriptor.
	// Venue B encodes its subscription in the path; venues that
	// subscribe post-connect return a fixed path here.
	Path func(desc SubscriptionDescriptor) string

	// SubscribeFrames returns zero or more text frames to send right
	// after the WebSocket upgrade completes (empty for venues that
	// encode subscription in the URL).
	SubscribeFrames func(desc SubscriptionDescriptor) ([]string, error)

	// Normalize parses one inbound frame and publishes zero or more
	// normalized events to pub. now is called only when the frame's own
	// timestamp is missing or malformed. It returns false if the frame's
	// discriminator was not recognized (not an error: the frame is
	// simply ignored) and an error only for a discriminator that was
	// recognized but malformed.
	Normalize func(frame []byte, now Clock, pub Publisher) (recognized bool, err error)
}
