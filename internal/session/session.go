package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sparkdrop/sparkdrop/internal/signaling"
)

var (
	// ErrCancelled reports that the session was aborted via context
	// cancellation before the transfer finished.
	ErrCancelled = errors.New("session cancelled")

	// ErrSignalingClosed reports that the relay connection dropped while
	// the session still needed it.
	ErrSignalingClosed = errors.New("signaling connection closed")

	// ErrRelay wraps an error envelope sent by the relay.
	ErrRelay = errors.New("relay error")
)

// Signaler is the slice of the signaling client the session machine needs.
type Signaler interface {
	Send(*signaling.Envelope)
	Incoming() <-chan *signaling.Envelope
}

// Session owns one negotiation: its ID, role, the peer connection being
// negotiated and the signaling path used to do it. All state lives here;
// nothing is package-global, so multiple sessions per process stay
// independent.
type Session struct {
	ID   string
	Role Role

	peer     Peer
	signaler Signaler
	log      *slog.Logger
}

// NewSender creates a sender-side session with a freshly generated ID.
func NewSender(signaler Signaler, peer Peer) *Session {
	return newSession(signaler, peer, RoleSender, NewID())
}

// NewReceiver creates a receiver-side session joining an existing ID.
func NewReceiver(signaler Signaler, peer Peer, id string) *Session {
	return newSession(signaler, peer, RoleReceiver, id)
}

func newSession(signaler Signaler, peer Peer, role Role, id string) *Session {
	s := &Session{
		ID:       id,
		Role:     role,
		peer:     peer,
		signaler: signaler,
		log:      slog.With("session", id, "role", role),
	}

	// Trickle ICE: every locally discovered candidate goes out tagged
	// with the session ID, for the lifetime of the connection.
	peer.OnCandidate(func(candidate []byte) {
		signaler.Send(&signaling.Envelope{
			Type:      signaling.TypeICECandidate,
			SessionID: s.ID,
			Candidate: candidate,
		})
	})

	return s
}

// Start registers the session with the relay: create-session for the
// sender, join-session for the receiver.
func (s *Session) Start() {
	switch s.Role {
	case RoleSender:
		s.signaler.Send(&signaling.Envelope{
			Type:      signaling.TypeCreateSession,
			SessionID: s.ID,
		})
	case RoleReceiver:
		s.signaler.Send(&signaling.Envelope{
			Type:      signaling.TypeJoinSession,
			SessionID: s.ID,
		})
	}
}

// Run drives the negotiation until the context is cancelled or the
// signaling stream ends. Callers run it alongside the transfer: candidate
// exchange continues after the channel opens.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return ErrCancelled

		case env, ok := <-s.signaler.Incoming():
			if !ok {
				return ErrSignalingClosed
			}
			if err := s.handle(env); err != nil {
				return err
			}
		}
	}
}

// handle advances the state machine by one envelope. Recoverable protocol
// noise (foreign sessions, duplicates, self-echo, bad candidates) is
// logged and dropped; only relay errors and failed description application
// are fatal.
func (s *Session) handle(env *signaling.Envelope) error {
	if env.SessionID != s.ID {
		s.log.Warn("dropping envelope for foreign session",
			"type", env.Type, "got", env.SessionID)
		return nil
	}

	switch env.Type {
	case signaling.TypeSessionJoined:
		return s.handleJoined()

	case signaling.TypeOffer:
		return s.handleOffer(env)

	case signaling.TypeAnswer:
		return s.handleAnswer(env)

	case signaling.TypeICECandidate:
		// A failed candidate is not fatal; the connection can still
		// succeed via the remaining ones.
		if err := s.peer.AddCandidate(env.Candidate); err != nil {
			s.log.Warn("failed to add ICE candidate", "error", err)
		}
		return nil

	case signaling.TypeError:
		return fmt.Errorf("%w: %s", ErrRelay, env.Error)

	default:
		s.log.Warn("dropping envelope of unknown type", "type", env.Type)
		return nil
	}
}

func (s *Session) handleJoined() error {
	if s.Role != RoleSender {
		s.log.Warn("ignoring session-joined on receiver side")
		return nil
	}

	sdp, err := s.peer.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	s.signaler.Send(&signaling.Envelope{
		Type:      signaling.TypeOffer,
		SessionID: s.ID,
		SDP:       sdp,
	})
	return nil
}

func (s *Session) handleOffer(env *signaling.Envelope) error {
	// Relays may broadcast our own traffic back to us. An instance that
	// already created an outbound channel is the sender; an incoming
	// offer can only be its own echo.
	if s.peer.HasLocalChannel() {
		s.log.Warn("ignoring echoed offer")
		return nil
	}

	answer, err := s.peer.AcceptOffer(env.SDP)
	if err != nil {
		return fmt.Errorf("accept offer: %w", err)
	}
	s.signaler.Send(&signaling.Envelope{
		Type:      signaling.TypeAnswer,
		SessionID: s.ID,
		SDP:       answer,
	})
	return nil
}

func (s *Session) handleAnswer(env *signaling.Envelope) error {
	// Once stable, a second answer is a duplicate: no state change, no
	// error.
	if s.peer.SignalingState() == StateStable {
		s.log.Warn("ignoring duplicate answer in stable state")
		return nil
	}

	if err := s.peer.AcceptAnswer(env.SDP); err != nil {
		return fmt.Errorf("accept answer: %w", err)
	}
	return nil
}

// Close tears down the underlying connection and its channels. Safe to
// call at any state.
func (s *Session) Close() error {
	return s.peer.Close()
}
