package signaling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := &Envelope{
		Type:      TypeOffer,
		SessionID: "amber-comet-spark",
		SDP:       "v=0\r\no=- 0 0 IN IP4 127.0.0.1",
	}

	data, err := env.Encode()
	require.NoError(t, err)

	// Field names are the wire contract; browser peers parse these.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "offer", raw["type"])
	assert.Equal(t, "amber-comet-spark", raw["sessionId"])
	assert.Contains(t, raw, "sdp")
	assert.NotContains(t, raw, "candidate")
	assert.NotContains(t, raw, "error")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env.Type, decoded.Type)
	assert.Equal(t, env.SessionID, decoded.SessionID)
	assert.Equal(t, env.SDP, decoded.SDP)
}

func TestEnvelopeCandidatePassthrough(t *testing.T) {
	// Candidate payloads are opaque: whatever the peer produced goes
	// through byte for byte.
	payload := `{"candidate":"candidate:1 1 udp 2130706431 10.0.0.1 54321 typ host","sdpMid":"0","sdpMLineIndex":0}`
	env := &Envelope{
		Type:      TypeICECandidate,
		SessionID: "amber-comet-spark",
		Candidate: json.RawMessage(payload),
	}

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(decoded.Candidate))
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// echoRelay upgrades the connection and runs handler with it.
func echoRelay(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientSendAndReceive(t *testing.T) {
	srv := echoRelay(t, func(conn *websocket.Conn) {
		// Echo every frame back.
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	})

	c := NewClient(wsURL(srv))
	require.NoError(t, c.Connect())
	defer c.Close()

	c.Send(&Envelope{Type: TypeCreateSession, SessionID: "amber-comet-spark"})

	select {
	case env := <-c.Incoming():
		require.NotNil(t, env)
		assert.Equal(t, TypeCreateSession, env.Type)
		assert.Equal(t, "amber-comet-spark", env.SessionID)
	case <-time.After(5 * time.Second):
		t.Fatal("no envelope received")
	}
}

func TestClientSurvivesMalformedFrames(t *testing.T) {
	srv := echoRelay(t, func(conn *websocket.Conn) {
		// Garbage first, then a valid envelope; the stream must keep
		// going past the garbage.
		conn.WriteMessage(websocket.TextMessage, []byte("{{{ nope"))
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"session-joined","sessionId":"amber-comet-spark"}`))

		// Hold the connection open until the test is done reading.
		conn.ReadMessage()
	})

	c := NewClient(wsURL(srv))
	require.NoError(t, c.Connect())
	defer c.Close()

	select {
	case env := <-c.Incoming():
		require.NotNil(t, env)
		assert.Equal(t, TypeSessionJoined, env.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("valid envelope after malformed frame never arrived")
	}
}

func TestClientAcceptsBinaryFrames(t *testing.T) {
	srv := echoRelay(t, func(conn *websocket.Conn) {
		// Some relays forward text payloads in binary frames.
		conn.WriteMessage(websocket.BinaryMessage,
			[]byte(`{"type":"answer","sessionId":"amber-comet-spark","sdp":"v=0"}`))
		conn.ReadMessage()
	})

	c := NewClient(wsURL(srv))
	require.NoError(t, c.Connect())
	defer c.Close()

	select {
	case env := <-c.Incoming():
		require.NotNil(t, env)
		assert.Equal(t, TypeAnswer, env.Type)
		assert.Equal(t, "v=0", env.SDP)
	case <-time.After(5 * time.Second):
		t.Fatal("binary-framed envelope never arrived")
	}
}

func TestClientIncomingClosesOnDisconnect(t *testing.T) {
	srv := echoRelay(t, func(conn *websocket.Conn) {
		// Drop the connection immediately.
	})

	c := NewClient(wsURL(srv))
	require.NoError(t, c.Connect())
	defer c.Close()

	select {
	case _, ok := <-c.Incoming():
		assert.False(t, ok, "expected closed incoming channel")
	case <-time.After(5 * time.Second):
		t.Fatal("incoming channel never closed")
	}
}

func TestClientCloseIsConcurrencySafe(t *testing.T) {
	srv := echoRelay(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	c := NewClient(wsURL(srv))
	require.NoError(t, c.Connect())

	// Teardown can race: the command's deferred Close against an
	// interrupt-triggered one. Neither may panic or double-close.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()
}

func TestClientConnectRejectsBadURL(t *testing.T) {
	c := NewClient("://not-a-url")
	assert.Error(t, c.Connect())
}
