// Package wsconn implements a single-connection TLS WebSocket client: raw
// TCP dial, TLS handshake with SNI, RFC 6455 upgrade handshake, masked
// frame read/write, and control-frame handling. It is not a router or a
// fan-out hub; each Conn serves exactly one venue connection.
package wsconn

import "time"

// MessageType identifies a WebSocket data or control frame. Values match
// RFC 6455 opcodes where applicable.
type MessageType uint8

const (
	MessageText   MessageType = 1
	MessageBinary MessageType = 2
	MessageClose  MessageType = 8
	MessagePing   MessageType = 9
	MessagePong   MessageType = 10
)

// CloseCode is a WebSocket close code.
type CloseCode uint16

const (
	CloseNormal    CloseCode = 1000
	CloseGoingAway CloseCode = 1001
)

// Backoff computes reconnect delays with exponential growth and jitter.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// DefaultBackoff provides conservative reconnect defaults.
func DefaultBackoff() Backoff {
	return Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}
