package transport

import (
	"errors"
	"sync"
	"time"
)

// pipeConn is an in-process Conn half used by tests. Messages written
// to one half arrive on the other half's receive channel. Queues are
// bounded; a reliable send into a full queue fails rather than blocks,
// which is enough for unit tests.
type pipeConn struct {
	peer *pipeConn

	mu     sync.RWMutex
	closed bool

	in   chan []byte
	done chan struct{}

	name string
}

var errPipeFull = errors.New("transport: pipe queue full")

// Pipe returns two connected in-process Conns.
func Pipe() (Conn, Conn) {
	a := &pipeConn{in: make(chan []byte, recvQueueSize), done: make(chan struct{}), name: "pipe-a"}
	b := &pipeConn{in: make(chan []byte, recvQueueSize), done: make(chan struct{}), name: "pipe-b"}
	a.peer = b
	b.peer = a
	return a, b
}

func (c *pipeConn) Send(payload []byte, d Delivery) error {
	// The peer's lock guards its receive channel; Close always shuts
	// both halves, so the peer's closed flag covers ours too.
	c.peer.mu.RLock()
	defer c.peer.mu.RUnlock()
	if c.peer.closed {
		return ErrClosed
	}

	msg := make([]byte, len(payload))
	copy(msg, payload)

	select {
	case c.peer.in <- msg:
		return nil
	default:
		if d == Unreliable || d == UnreliableSequenced {
			return nil
		}
		return errPipeFull
	}
}

func (c *pipeConn) Receive() <-chan []byte { return c.in }

func (c *pipeConn) RTT() time.Duration { return 0 }

func (c *pipeConn) RemoteAddr() string { return c.name }

func (c *pipeConn) Done() <-chan struct{} { return c.done }

func (c *pipeConn) Close() error {
	c.closeHalf()
	c.peer.closeHalf()
	return nil
}

func (c *pipeConn) closeHalf() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	close(c.in)
}
