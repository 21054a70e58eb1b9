package session

// Role distinguishes the two entry points into a session.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// State mirrors the underlying connection's signaling state. Transitions
// are one-directional per role; renegotiation is not supported.
type State int

const (
	// StateNew: no description applied yet.
	StateNew State = iota

	// StateHaveLocalOffer: sender side, after creating its offer.
	StateHaveLocalOffer

	// StateHaveRemoteOffer: receiver side, after applying the offer.
	StateHaveRemoteOffer

	// StateStable: both descriptions applied; negotiation finished.
	StateStable
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateHaveLocalOffer:
		return "have-local-offer"
	case StateHaveRemoteOffer:
		return "have-remote-offer"
	case StateStable:
		return "stable"
	default:
		return "unknown"
	}
}

// Peer is the negotiation surface of the underlying peer connection. The
// session machine drives it but never reaches into transport internals;
// the pion-backed implementation lives in internal/webrtc.
type Peer interface {
	// CreateOffer builds a local offer, applies it as the local
	// description and returns its SDP.
	CreateOffer() (string, error)

	// AcceptOffer applies a remote offer, builds an answer, applies it
	// locally and returns the answer SDP.
	AcceptOffer(sdp string) (string, error)

	// AcceptAnswer applies a remote answer as the remote description.
	AcceptAnswer(sdp string) error

	// AddCandidate adds a remote ICE candidate (JSON descriptor).
	AddCandidate(candidate []byte) error

	// OnCandidate registers the callback for locally discovered ICE
	// candidates, invoked for the lifetime of the connection.
	OnCandidate(func(candidate []byte))

	// SignalingState reports the current negotiation state.
	SignalingState() State

	// HasLocalChannel reports whether this peer created an outbound data
	// channel, i.e. it is acting as a sender.
	HasLocalChannel() bool

	// Close tears down the connection and any channels on it.
	Close() error
}
