package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/sparkdrop/sparkdrop/internal/config"
	"github.com/sparkdrop/sparkdrop/internal/session"
	"github.com/sparkdrop/sparkdrop/internal/signaling"
	"github.com/sparkdrop/sparkdrop/internal/transfer"
	"github.com/sparkdrop/sparkdrop/internal/webrtc"
)

// receiveTimeout bounds how long the receiver waits for negotiation plus
// the transfer itself before giving up.
const receiveTimeout = 15 * time.Minute

// ConnectionContext bundles the signaling client and config a command
// needs to run a session.
type ConnectionContext struct {
	Client *signaling.Client
	Config *config.Config
}

// NewConnectionContext loads config and opens the relay connection.
func NewConnectionContext(opts config.Options) (*ConnectionContext, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, transfer.NewError("load config", err)
	}

	client := signaling.NewClient(cfg.WebSocketURL)
	if err := client.Connect(); err != nil {
		return nil, transfer.NewError("connect to relay", err)
	}

	return &ConnectionContext{Client: client, Config: cfg}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// runSession drives the negotiation loop in the background and returns
// the channel its terminal error arrives on.
func runSession(ctx context.Context, sess *session.Session) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- sess.Run(ctx)
	}()
	return errCh
}

// sessionPeer builds the pion-backed peer for this config.
func sessionPeer(cfg *config.Config) (*webrtc.Peer, error) {
	return webrtc.NewPeer(cfg)
}

// isCancelled reports whether a session error is just our own teardown.
func isCancelled(err error) bool {
	return errors.Is(err, session.ErrCancelled) || errors.Is(err, context.Canceled)
}
