package relay

import (
	"log/slog"

	"github.com/sparkdrop/sparkdrop/internal/signaling"
)

// inbound pairs an envelope with the client it arrived from.
type inbound struct {
	env    *signaling.Envelope
	client *Client
}

// session is one live pairing of a creator and (eventually) a joiner.
type session struct {
	id      string
	creator *Client
	joiner  *Client
}

// other returns the session participant that is not c, or nil.
func (s *session) other(c *Client) *Client {
	if s.creator == c {
		return s.joiner
	}
	if s.joiner == c {
		return s.creator
	}
	return nil
}

// Hub owns all relay state. A single goroutine runs the hub loop, so
// sessions and clients are never touched concurrently.
type Hub struct {
	sessions map[string]*session

	register   chan *Client
	unregister chan *Client
	forward    chan inbound
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]*session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		forward:    make(chan inbound),
	}
}

// Run starts the hub's processing loop. It never returns.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			slog.Info("client registered", "addr", client.RemoteAddr())

		case client := <-h.unregister:
			h.dropClient(client)

		case in := <-h.forward:
			h.dispatch(in.client, in.env)
		}
	}
}

// dropClient removes a departing client, tears down an emptied session and
// closes its send channel.
func (h *Hub) dropClient(client *Client) {
	slog.Info("client unregistered", "addr", client.RemoteAddr())

	if client.sessionID != "" {
		if s, ok := h.sessions[client.sessionID]; ok {
			if s.creator == client {
				s.creator = nil
			} else if s.joiner == client {
				s.joiner = nil
			}

			if s.creator == nil && s.joiner == nil {
				delete(h.sessions, s.id)
				slog.Info("session deleted", "session", s.id)
			}
		}
	}

	close(client.send)
}

// dispatch is the core relaying logic: session registration, join, and
// verbatim forwarding of everything else to the other participant.
func (h *Hub) dispatch(client *Client, env *signaling.Envelope) {
	switch env.Type {
	case signaling.TypeCreateSession:
		// One session per connection. A second registration would leave
		// the first session pointing at this client after it leaves.
		if client.sessionID != "" {
			client.sendError(env.SessionID, "already in a session")
			return
		}
		// The creator supplies the session ID; the relay only keys on it.
		if env.SessionID == "" {
			client.sendError(env.SessionID, "create-session requires a session ID")
			return
		}
		if _, ok := h.sessions[env.SessionID]; ok {
			client.sendError(env.SessionID, "session already exists")
			return
		}
		h.sessions[env.SessionID] = &session{id: env.SessionID, creator: client}
		client.sessionID = env.SessionID
		slog.Info("session created", "session", env.SessionID, "addr", client.RemoteAddr())

	case signaling.TypeJoinSession:
		if client.sessionID != "" {
			client.sendError(env.SessionID, "already in a session")
			return
		}
		s, ok := h.sessions[env.SessionID]
		if !ok {
			client.sendError(env.SessionID, "session not found")
			return
		}
		if s.joiner != nil {
			client.sendError(env.SessionID, "session is full")
			return
		}
		s.joiner = client
		client.sessionID = s.id
		slog.Info("session joined", "session", s.id, "addr", client.RemoteAddr())

		if s.creator != nil {
			s.creator.send <- &signaling.Envelope{
				Type:      signaling.TypeSessionJoined,
				SessionID: s.id,
			}
		}

	default:
		// offer, answer, ice-candidate: forwarded untouched. The relay
		// does not interpret them.
		s, ok := h.sessions[client.sessionID]
		if !ok {
			client.sendError(env.SessionID, "not in a session")
			return
		}
		if target := s.other(client); target != nil {
			target.send <- env
		} else {
			slog.Warn("no peer to relay to", "session", s.id, "type", env.Type)
		}
	}
}
