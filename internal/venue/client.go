package venue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/driftfeed/marketfeed/internal/errors"
	"github.com/driftfeed/marketfeed/internal/ring"
	"github.com/driftfeed/marketfeed/internal/wsconn"
)

// Client establishes and maintains one authenticated TLS WebSocket to a
// venue, delivers every inbound text frame into an SPSC ring, and
// accepts outbound control messages. The zero value is not usable;
// construct with NewClient.
type Client struct {
	dialer  wsconn.Dialer
	dialect *Dialect
	desc    SubscriptionDescriptor
	out     *ring.SPSC

	state atomic.Uint32

	sendCh   chan string
	stopCh   chan struct{}
	stopOnce sync.Once

	conn   wsconn.Conn
	connMu sync.Mutex
}

// NewClient constructs a Client bound to the given venue dialect and
// output ring. Initialize must still be called before Start.
func NewClient(dialect *Dialect, out *ring.SPSC) *Client {
	c := &Client{
		dialect: dialect,
		out:     out,
		sendCh:  make(chan string, 16),
		stopCh:  make(chan struct{}),
	}
	c.state.Store(uint32(StateIdle))
	return c
}

// Initialize binds connection coordinates and the subscription
// descriptor. It performs no I/O.
func (c *Client) Initialize(desc SubscriptionDescriptor) {
	c.desc = desc
	c.dialer = wsconn.NewDialer(desc.Host, desc.Port, c.dialect.Path(desc))
}

// State returns the client's current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(uint32(s))
}

// Start kicks off the state machine. It is non-blocking: it only moves
// the client from Idle to Resolving so Run has somewhere to pick up.
func (c *Client) Start() {
	c.setState(StateResolving)
}

// Send enqueues a text frame for the reactor to write. Writes are
// serialized by the single goroutine running Run.
func (c *Client) Send(text string) {
	select {
	case c.sendCh <- text:
	case <-c.stopCh:
	}
}

// Stop initiates a close. It is idempotent and safe to call from any
// goroutine. It closes the underlying connection directly rather than
// waiting for the I/O goroutine to notice stopCh on its own: that
// goroutine spends most of its time parked in a blocking conn.Read with
// no read deadline, and closing the socket is what actually unblocks it.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn != nil {
			_ = conn.Close(wsconn.CloseGoingAway, "")
		}
	})
}

// Run drives the reactor: DNS/TCP/TLS/WebSocket handshake, the
// subscribe frames, and the read loop, until the client reaches Closed
// or Failed. It blocks the calling goroutine and should be run on its
// own dedicated goroutine (the "I/O thread").
func (c *Client) Run(ctx context.Context) error {
	for c.State() == StateIdle {
		select {
		case <-c.stopCh:
			c.setState(StateClosed)
			return nil
		default:
		}
	}

	c.setState(StateConnecting)
	c.setState(StateTlsHandshaking)
	c.setState(StateWsHandshaking)

	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		c.setState(StateFailed)
		return errors.Wrap(err, "venue: dial failed")
	}
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateSubscribing)
	frames, err := c.dialect.SubscribeFrames(c.desc)
	if err != nil {
		c.setState(StateFailed)
		return errors.Wrap(err, "venue: building subscribe frames failed")
	}
	for _, frame := range frames {
		if err := conn.Write(ctx, wsconn.MessageText, []byte(frame)); err != nil {
			c.setState(StateFailed)
			return errors.Wrap(err, "venue: subscribe write failed")
		}
	}

	c.setState(StateStreaming)
	return c.streamLoop(ctx, conn)
}

func (c *Client) streamLoop(ctx context.Context, conn wsconn.Conn) error {
	buf := make([]byte, 1<<20)
	for {
		select {
		case <-c.stopCh:
			c.setState(StateClosing)
			_ = conn.Close(wsconn.CloseNormal, "")
			c.setState(StateClosed)
			return nil
		case text := <-c.sendCh:
			if err := conn.Write(ctx, wsconn.MessageText, []byte(text)); err != nil {
				c.setState(StateFailed)
				return errors.Wrap(err, "venue: write failed")
			}
			continue
		default:
		}

		n, msgType, err := conn.Read(ctx, buf)
		if err != nil {
			select {
			case <-c.stopCh:
				c.setState(StateClosed)
				return nil
			default:
			}
			c.setState(StateFailed)
			return errors.Wrap(err, "venue: read failed")
		}
		if msgType != wsconn.MessageText || n == 0 {
			continue
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		c.out.TryPush(frame)
	}
}
