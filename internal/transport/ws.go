package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingInterval = 5 * time.Second

	sendQueueSize = 256
	recvQueueSize = 256
)

// wsConn adapts a websocket connection to the Conn interface.
// A writer goroutine owns all writes; the reader goroutine feeds the
// receive channel and drives connection teardown on error.
type wsConn struct {
	ws   *websocket.Conn
	out  chan []byte
	in   chan []byte
	done chan struct{}

	rtt       atomic.Int64 // nanoseconds
	closeOnce sync.Once
	log       *zap.Logger
}

func newWSConn(ws *websocket.Conn, log *zap.Logger) *wsConn {
	c := &wsConn{
		ws:   ws,
		out:  make(chan []byte, sendQueueSize),
		in:   make(chan []byte, recvQueueSize),
		done: make(chan struct{}),
		log:  log,
	}
	go c.writeLoop()
	go c.readLoop()
	return c
}

func (c *wsConn) Send(payload []byte, d Delivery) error {
	frame := encodeFrame(payload)
	switch d {
	case Unreliable, UnreliableSequenced:
		// Stale state updates are worthless; drop instead of stalling
		// the simulation behind a slow client.
		select {
		case c.out <- frame:
		case <-c.done:
			return ErrClosed
		default:
		}
		return nil
	default:
		select {
		case c.out <- frame:
			return nil
		case <-c.done:
			return ErrClosed
		}
	}
}

func (c *wsConn) Receive() <-chan []byte { return c.in }

func (c *wsConn) RTT() time.Duration {
	return time.Duration(c.rtt.Load())
}

func (c *wsConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func (c *wsConn) Done() <-chan struct{} { return c.done }

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
	return nil
}

func (c *wsConn) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer c.Close()

	for {
		select {
		case frame := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				c.log.Debug("write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			// Ping payload carries the send time so the pong handler
			// can measure round trip without extra bookkeeping.
			var ts [8]byte
			binary.LittleEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteControl(websocket.PingMessage, ts[:], time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) readLoop() {
	defer c.Close()
	defer close(c.in)

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(data string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		if len(data) == 8 {
			sent := int64(binary.LittleEndian.Uint64([]byte(data)))
			sample := time.Now().UnixNano() - sent
			prev := c.rtt.Load()
			if prev == 0 {
				c.rtt.Store(sample)
			} else {
				// Smooth with the usual 7/8 weighting.
				c.rtt.Store(prev - prev/8 + sample/8)
			}
		}
		return nil
	})
	c.ws.SetPingHandler(func(data string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return c.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		payload, err := decodeFrame(frame)
		if err != nil {
			c.log.Warn("bad frame", zap.String("remote", c.RemoteAddr()), zap.Error(err))
			continue
		}
		select {
		case c.in <- payload:
		case <-c.done:
			return
		}
	}
}

// WSListener accepts websocket connections on one TCP port.
type WSListener struct {
	srv      *http.Server
	ln       net.Listener
	accepted chan Conn
	log      *zap.Logger

	closeOnce sync.Once
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Listen starts accepting websocket connections on addr.
func Listen(addr string, log *zap.Logger) (*WSListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport listen %s: %w", addr, err)
	}

	l := &WSListener{
		ln:       ln,
		accepted: make(chan Conn, 16),
		log:      log,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handleUpgrade)
	l.srv = &http.Server{Handler: mux}

	go func() {
		if err := l.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("listener stopped", zap.Error(err))
		}
	}()
	return l, nil
}

func (l *WSListener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.Debug("upgrade rejected", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	conn := newWSConn(ws, l.log)
	select {
	case l.accepted <- conn:
	default:
		// Accept backlog full; shed the connection rather than block
		// the HTTP handler.
		l.log.Warn("accept backlog full, dropping connection", zap.String("remote", r.RemoteAddr))
		conn.Close()
	}
}

func (l *WSListener) Accept() <-chan Conn { return l.accepted }

func (l *WSListener) Addr() string { return l.ln.Addr().String() }

// Port returns the bound TCP port.
func (l *WSListener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

func (l *WSListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err = l.srv.Shutdown(ctx)
		close(l.accepted)
	})
	return err
}

// Dial connects to a websocket endpoint at host:port.
func Dial(addr string, log *zap.Logger) (Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("transport dial %s: %w", addr, err)
	}
	return newWSConn(ws, log), nil
}
