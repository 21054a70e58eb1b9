package signaling

import "encoding/json"

// Envelope kinds exchanged through the relay.
const (
	TypeCreateSession = "create-session"
	TypeJoinSession   = "join-session"
	TypeSessionJoined = "session-joined"
	TypeOffer         = "offer"
	TypeAnswer        = "answer"
	TypeICECandidate  = "ice-candidate"

	// TypeError is relay → client only, reporting a failed create or join.
	TypeError = "error"
)

// Envelope is the JSON frame relayed between the two peers of a session.
// Every envelope carries the session ID it belongs to; SDP and Candidate
// are populated per kind.
type Envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Encode serializes an envelope to its wire form.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a relay frame into an envelope. The relay may hand us the
// same JSON text wrapped in a binary websocket frame; both arrive here as
// raw bytes, so no separate normalization step is needed.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
