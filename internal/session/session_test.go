package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkdrop/sparkdrop/internal/signaling"
)

// fakeSignaler records outbound envelopes and feeds inbound ones.
type fakeSignaler struct {
	mu   sync.Mutex
	sent []*signaling.Envelope
	in   chan *signaling.Envelope
}

func newFakeSignaler() *fakeSignaler {
	return &fakeSignaler{in: make(chan *signaling.Envelope, 16)}
}

func (f *fakeSignaler) Send(env *signaling.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
}

func (f *fakeSignaler) Incoming() <-chan *signaling.Envelope {
	return f.in
}

func (f *fakeSignaler) lastOfType(t string) *signaling.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Type == t {
			return f.sent[i]
		}
	}
	return nil
}

// fakePeer is a scriptable session.Peer.
type fakePeer struct {
	mu sync.Mutex

	state          State
	hasLocal       bool
	offersCreated  int
	offersAccepted int
	answersApplied int
	candidates     [][]byte
	closed         bool

	candidateErr error
	onCandidate  func([]byte)
}

var _ Peer = (*fakePeer)(nil)

func (p *fakePeer) CreateOffer() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offersCreated++
	p.state = StateHaveLocalOffer
	return "offer-sdp", nil
}

func (p *fakePeer) AcceptOffer(sdp string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offersAccepted++
	p.state = StateStable
	return "answer-sdp", nil
}

func (p *fakePeer) AcceptAnswer(sdp string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answersApplied++
	p.state = StateStable
	return nil
}

func (p *fakePeer) AddCandidate(candidate []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.candidateErr != nil {
		return p.candidateErr
	}
	p.candidates = append(p.candidates, candidate)
	return nil
}

func (p *fakePeer) OnCandidate(f func([]byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onCandidate = f
}

func (p *fakePeer) SignalingState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *fakePeer) HasLocalChannel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasLocal
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePeer) snapshot() fakePeer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fakePeer{
		state:          p.state,
		offersCreated:  p.offersCreated,
		offersAccepted: p.offersAccepted,
		answersApplied: p.answersApplied,
		closed:         p.closed,
	}
}

// drive runs the session loop until the inbound channel is closed.
func drive(t *testing.T, s *Session) error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(context.Background())
	}()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("session loop did not finish")
		return nil
	}
}

func TestSenderNegotiationFlow(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{hasLocal: true}
	s := NewSender(sig, peer)
	s.Start()

	created := sig.lastOfType(signaling.TypeCreateSession)
	require.NotNil(t, created)
	assert.Equal(t, s.ID, created.SessionID)

	sig.in <- &signaling.Envelope{Type: signaling.TypeSessionJoined, SessionID: s.ID}
	sig.in <- &signaling.Envelope{Type: signaling.TypeAnswer, SessionID: s.ID, SDP: "answer-sdp"}
	close(sig.in)

	err := drive(t, s)
	assert.ErrorIs(t, err, ErrSignalingClosed)

	offer := sig.lastOfType(signaling.TypeOffer)
	require.NotNil(t, offer)
	assert.Equal(t, s.ID, offer.SessionID)
	assert.Equal(t, "offer-sdp", offer.SDP)

	got := peer.snapshot()
	assert.Equal(t, 1, got.offersCreated)
	assert.Equal(t, 1, got.answersApplied)
	assert.Equal(t, StateStable, got.state)
}

func TestDuplicateAnswerIsNoOp(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{hasLocal: true}
	s := NewSender(sig, peer)

	sig.in <- &signaling.Envelope{Type: signaling.TypeSessionJoined, SessionID: s.ID}
	sig.in <- &signaling.Envelope{Type: signaling.TypeAnswer, SessionID: s.ID, SDP: "answer-sdp"}
	sig.in <- &signaling.Envelope{Type: signaling.TypeAnswer, SessionID: s.ID, SDP: "answer-sdp"}
	close(sig.in)

	err := drive(t, s)
	assert.ErrorIs(t, err, ErrSignalingClosed)

	// The duplicate produced no state change and no error.
	assert.Equal(t, 1, peer.snapshot().answersApplied)
}

func TestReceiverNegotiationFlow(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{}
	s := NewReceiver(sig, peer, "amber-comet-spark")
	s.Start()

	joined := sig.lastOfType(signaling.TypeJoinSession)
	require.NotNil(t, joined)
	assert.Equal(t, "amber-comet-spark", joined.SessionID)

	sig.in <- &signaling.Envelope{Type: signaling.TypeOffer, SessionID: s.ID, SDP: "offer-sdp"}
	close(sig.in)

	err := drive(t, s)
	assert.ErrorIs(t, err, ErrSignalingClosed)

	answer := sig.lastOfType(signaling.TypeAnswer)
	require.NotNil(t, answer)
	assert.Equal(t, "answer-sdp", answer.SDP)
	assert.Equal(t, 1, peer.snapshot().offersAccepted)
}

func TestSelfEchoOfferIgnored(t *testing.T) {
	sig := newFakeSignaler()
	// An instance with an outbound channel is a sender; an incoming
	// offer can only be its own broadcast echoed back.
	peer := &fakePeer{hasLocal: true}
	s := NewSender(sig, peer)

	sig.in <- &signaling.Envelope{Type: signaling.TypeOffer, SessionID: s.ID, SDP: "offer-sdp"}
	close(sig.in)

	err := drive(t, s)
	assert.ErrorIs(t, err, ErrSignalingClosed)
	assert.Equal(t, 0, peer.snapshot().offersAccepted)
}

func TestForeignSessionEnvelopesDropped(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{}
	s := NewReceiver(sig, peer, "amber-comet-spark")

	// A second offer for a different session must not be treated as a
	// duplicate of ours, nor processed at all.
	sig.in <- &signaling.Envelope{Type: signaling.TypeOffer, SessionID: "other-session-id", SDP: "x"}
	sig.in <- &signaling.Envelope{Type: signaling.TypeAnswer, SessionID: "other-session-id", SDP: "x"}
	sig.in <- &signaling.Envelope{Type: signaling.TypeICECandidate, SessionID: "other-session-id"}
	close(sig.in)

	err := drive(t, s)
	assert.ErrorIs(t, err, ErrSignalingClosed)

	got := peer.snapshot()
	assert.Equal(t, 0, got.offersAccepted)
	assert.Equal(t, 0, got.answersApplied)
	assert.Empty(t, peer.candidates)
}

func TestCandidateFailureIsNonFatal(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{candidateErr: errors.New("bad candidate")}
	s := NewReceiver(sig, peer, "amber-comet-spark")

	sig.in <- &signaling.Envelope{Type: signaling.TypeICECandidate, SessionID: s.ID, Candidate: json.RawMessage(`{}`)}
	sig.in <- &signaling.Envelope{Type: signaling.TypeOffer, SessionID: s.ID, SDP: "offer-sdp"}
	close(sig.in)

	err := drive(t, s)
	assert.ErrorIs(t, err, ErrSignalingClosed)

	// The session survived the failed candidate and kept negotiating.
	assert.Equal(t, 1, peer.snapshot().offersAccepted)
}

func TestRelayErrorIsFatal(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{}
	s := NewReceiver(sig, peer, "amber-comet-spark")

	sig.in <- &signaling.Envelope{Type: signaling.TypeError, SessionID: s.ID, Error: "session not found"}

	err := drive(t, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRelay)
	assert.Contains(t, err.Error(), "session not found")
}

func TestCancelTearsDownSession(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{}
	s := NewReceiver(sig, peer, "amber-comet-spark")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("session loop did not stop on cancel")
	}
	assert.True(t, peer.snapshot().closed)
}

func TestOutboundCandidatesCarrySessionID(t *testing.T) {
	sig := newFakeSignaler()
	peer := &fakePeer{}
	s := NewSender(sig, peer)

	require.NotNil(t, peer.onCandidate)
	peer.onCandidate([]byte(`{"candidate":"candidate:1 1 udp"}`))

	env := sig.lastOfType(signaling.TypeICECandidate)
	require.NotNil(t, env)
	assert.Equal(t, s.ID, env.SessionID)
	assert.NotEmpty(t, env.Candidate)
}

func TestNewIDShape(t *testing.T) {
	for i := 0; i < 10; i++ {
		id := NewID()
		parts := splitID(id)
		require.Len(t, parts, 3, "id %q", id)
		assert.Contains(t, adjectives, parts[0])
		assert.Contains(t, nouns, parts[1])
		assert.Contains(t, suffixes, parts[2])
	}
}

func splitID(id string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			parts = append(parts, id[start:i])
			start = i + 1
		}
	}
	return append(parts, id[start:])
}
