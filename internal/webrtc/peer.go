package webrtc

import (
	"encoding/json"

	pion "github.com/pion/webrtc/v4"

	"github.com/sparkdrop/sparkdrop/internal/config"
	"github.com/sparkdrop/sparkdrop/internal/session"
	"github.com/sparkdrop/sparkdrop/internal/transfer"
)

// channelLabel is the single data channel both sides agree on.
const channelLabel = "file-transfer"

// Peer adapts a pion PeerConnection to the session.Peer capability the
// state machine consumes.
type Peer struct {
	conn        *pion.PeerConnection
	dataChannel *pion.DataChannel
	hasLocal    bool
}

var _ session.Peer = (*Peer)(nil)

// NewPeer builds a peer connection from the configured STUN servers.
func NewPeer(cfg *config.Config) (*Peer, error) {
	pc, err := pion.NewPeerConnection(pion.Configuration{
		ICEServers: []pion.ICEServer{{URLs: cfg.STUNServers}},
	})
	if err != nil {
		return nil, transfer.NewError("create peer connection", err)
	}
	return &Peer{conn: pc}, nil
}

// CreateChannel creates the outbound, ordered data channel. Only the
// sender calls this; its existence is what marks the instance as a sender
// to the session machine's self-echo guard.
func (p *Peer) CreateChannel() (*Channel, error) {
	ordered := true
	dc, err := p.conn.CreateDataChannel(channelLabel, &pion.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, transfer.NewError("create data channel", err)
	}
	p.dataChannel = dc
	p.hasLocal = true
	return &Channel{dc: dc}, nil
}

// OnChannel registers the callback for the remote peer's data channel.
// Only the receiver side sees it fire.
func (p *Peer) OnChannel(f func(*Channel)) {
	p.conn.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() != channelLabel {
			return
		}
		p.dataChannel = dc
		f(&Channel{dc: dc})
	})
}

// OnConnectionFailed registers a callback for terminal ICE states.
func (p *Peer) OnConnectionFailed(f func()) {
	p.conn.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		if state == pion.ICEConnectionStateFailed || state == pion.ICEConnectionStateClosed {
			f()
		}
	})
}

// CreateOffer builds the local offer with trickle ICE: it returns as soon
// as the local description is set, candidates follow via OnCandidate.
func (p *Peer) CreateOffer() (string, error) {
	offer, err := p.conn.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	if err = p.conn.SetLocalDescription(offer); err != nil {
		return "", err
	}
	return p.conn.LocalDescription().SDP, nil
}

// AcceptOffer applies a remote offer and produces the local answer.
func (p *Peer) AcceptOffer(sdp string) (string, error) {
	desc := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: sdp}
	if err := p.conn.SetRemoteDescription(desc); err != nil {
		return "", err
	}

	answer, err := p.conn.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err = p.conn.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return p.conn.LocalDescription().SDP, nil
}

// AcceptAnswer applies a remote answer.
func (p *Peer) AcceptAnswer(sdp string) error {
	desc := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: sdp}
	return p.conn.SetRemoteDescription(desc)
}

// AddCandidate adds a remote ICE candidate from its JSON descriptor.
func (p *Peer) AddCandidate(candidate []byte) error {
	var ice pion.ICECandidateInit
	if err := json.Unmarshal(candidate, &ice); err != nil {
		return transfer.NewError("parse ICE candidate", err)
	}
	return p.conn.AddICECandidate(ice)
}

// OnCandidate forwards locally discovered candidates as JSON descriptors.
func (p *Peer) OnCandidate(f func(candidate []byte)) {
	p.conn.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		f(data)
	})
}

// SignalingState maps pion's signaling state onto the session machine's.
func (p *Peer) SignalingState() session.State {
	switch p.conn.SignalingState() {
	case pion.SignalingStateHaveLocalOffer:
		return session.StateHaveLocalOffer
	case pion.SignalingStateHaveRemoteOffer:
		return session.StateHaveRemoteOffer
	case pion.SignalingStateStable:
		// pion starts out stable; before any description is applied the
		// session machine sees StateNew.
		if p.conn.CurrentRemoteDescription() == nil && p.conn.CurrentLocalDescription() == nil {
			return session.StateNew
		}
		return session.StateStable
	default:
		return session.StateNew
	}
}

// HasLocalChannel reports whether this instance created the outbound
// channel, i.e. it is the sender.
func (p *Peer) HasLocalChannel() bool {
	return p.hasLocal
}

// Close tears down the channel and the connection.
func (p *Peer) Close() error {
	if p.dataChannel != nil {
		p.dataChannel.Close()
	}
	return p.conn.Close()
}
