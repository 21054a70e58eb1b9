package relay

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sparkdrop/sparkdrop/internal/signaling"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP payloads fit with room
	// to spare.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection to the relay.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// sessionID is set once the client creates or joins a session. Only
	// the hub goroutine touches it.
	sessionID string

	// send is the buffered channel of outbound envelopes, drained by
	// writePump.
	send chan *signaling.Envelope
}

// RemoteAddr reports the peer address for logging.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Client) sendError(sessionID, msg string) {
	c.send <- &signaling.Envelope{
		Type:      signaling.TypeError,
		SessionID: sessionID,
		Error:     msg,
	}
}

// readPump pumps envelopes from the websocket connection to the hub.
// There is at most one reader per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("relay read error", "error", err)
			}
			break
		}

		env, err := signaling.Decode(data)
		if err != nil {
			slog.Warn("dropping malformed envelope", "addr", c.RemoteAddr(), "error", err)
			continue
		}

		c.hub.forward <- inbound{env: env, client: c}
	}
}

// writePump pumps envelopes from the hub to the websocket connection.
// There is at most one writer per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(env); err != nil {
				slog.Warn("relay write error", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
