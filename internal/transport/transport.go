// Package transport carries framed binary messages between peers with
// per-message delivery classes. The game simulation only sees the Conn
// and Listener interfaces; the websocket implementation lives beside
// them, and an in-process pipe backs unit tests.
package transport

import (
	"errors"
	"time"
)

// Delivery selects how hard the transport tries to get a message
// through. Unreliable messages may be dropped under backpressure;
// reliable ones are queued until the connection dies.
type Delivery uint8

const (
	Unreliable Delivery = iota
	UnreliableSequenced
	ReliableUnordered
	ReliableOrdered
	ReliableSequenced
)

// ErrClosed is returned by Send after the connection has shut down.
var ErrClosed = errors.New("transport: connection closed")

// Conn is a bidirectional message stream to one peer.
type Conn interface {
	// Send queues one message. Unreliable sends return nil even when
	// the message is dropped under backpressure.
	Send(payload []byte, d Delivery) error

	// Receive yields inbound messages. The channel closes when the
	// connection dies.
	Receive() <-chan []byte

	// RTT reports the smoothed round-trip time to the peer, zero until
	// the first measurement completes.
	RTT() time.Duration

	RemoteAddr() string

	// Done closes when the connection has fully shut down.
	Done() <-chan struct{}

	Close() error
}

// Listener accepts inbound connections.
type Listener interface {
	// Accept yields new connections. The channel closes when the
	// listener shuts down.
	Accept() <-chan Conn

	Addr() string
	Close() error
}
