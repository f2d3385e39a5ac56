package server

import (
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Client wraps one WebSocket connection with a buffered outbound queue and
// the read/write pumps. It implements relay.Conn: Send queues without
// blocking, so one slow recipient cannot delay a broadcast to the next.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	addr    string
	limiter *rateLimiter

	mu     sync.Mutex
	closed bool
}

// NewClient creates a Client over an upgraded connection, applying the
// configured read limit and rate limiting.
func NewClient(conn *websocket.Conn, cfg *Config, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		addr:    addr,
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

// Send queues a message for delivery. It never blocks: a closed connection or
// a full buffer yields an error, which broadcast treats as a recorded
// best-effort failure without unregistering the connection.
func (c *Client) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- message:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close marks the client closed and shuts down the outbound queue, stopping
// the write pump. Safe to call more than once; Send calls racing with Close
// fail cleanly instead of panicking on the closed channel.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// closeWithInternalError signals an internal-error close code to the peer
// before the transport goes down, used when a session terminates on an
// unexpected fault.
func (c *Client) closeWithInternalError() {
	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "internal error")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close frame to %s: %v", c.addr, err)
		}
	}
}

// readPump reads inbound frames and hands each payload to onMessage in
// arrival order, preserving per-connection FIFO delivery. It returns when the
// transport closes or faults; the caller then runs the disconnect path
// exactly once.
func (c *Client) readPump(onMessage func(data []byte)) {
	defer func() {
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in readPump: %v", err)
		}
	}()

	c.setupReadDeadlines()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if c.limiter != nil && !c.limiter.allow() {
			log.Printf("Rate limit exceeded for %s; discarding message", c.addr)
			continue
		}
		onMessage(data)
	}
}

// writePump drains the outbound queue onto the wire, one frame per message,
// and keeps the connection alive with periodic pings. It exits when the queue
// is closed, sending a close frame to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for %s: %v", c.addr, err)
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					log.Printf("Error writing close message to %s: %v", c.addr, err)
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Error writing message to %s: %v", c.addr, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) setupReadDeadlines() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Message from %s exceeded the configured size limit", c.addr)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("Client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Printf("Client %s connection closed: %v", c.addr, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.addr, err)
	}
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
