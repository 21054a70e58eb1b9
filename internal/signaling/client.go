package signaling

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the WebSocket connection to the signaling relay.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *Envelope
	outgoing  chan *Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new signaling client for the given relay URL.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan *Envelope, 32),
		outgoing:  make(chan *Envelope, 32),
		done:      make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection to the relay. It returns an
// error if the connection cannot be opened; after that, connection loss
// surfaces as a closed Incoming channel.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads frames from the WebSocket connection and parses them into
// envelopes. Malformed frames are dropped with a warning; they never
// terminate the stream.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		// ReadMessage rather than ReadJSON: a bad frame must not kill
		// the connection, and binary-wrapped text frames carry the same
		// JSON bytes.
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := Decode(data)
		if err != nil {
			slog.Warn("dropping malformed signaling frame", "error", err)
			continue
		}

		c.incoming <- env
	}
}

// writePump writes envelopes to the WebSocket connection and sends
// periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues an envelope for delivery to the relay. Fire and forget: the
// relay offers no acknowledgment.
func (c *Client) Send(env *Envelope) {
	select {
	case c.outgoing <- env:
	case <-c.done:
	}
}

// Incoming returns the channel of parsed envelopes. It is closed when the
// connection drops.
func (c *Client) Incoming() <-chan *Envelope {
	return c.incoming
}

// Close closes the WebSocket connection and cleans up resources. Safe to
// call multiple times and from concurrent goroutines.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
