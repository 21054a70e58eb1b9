package webrtc

import (
	pion "github.com/pion/webrtc/v4"

	"github.com/sparkdrop/sparkdrop/internal/transfer"
)

// Channel adapts a pion DataChannel to the transfer.Channel capability.
// The channel preserves message boundaries, which the chunk protocol
// relies on as its only framing.
type Channel struct {
	dc *pion.DataChannel
}

var _ transfer.Channel = (*Channel)(nil)

func (c *Channel) SendText(data []byte) error {
	return c.dc.SendText(string(data))
}

func (c *Channel) SendBinary(data []byte) error {
	return c.dc.Send(data)
}

func (c *Channel) BufferedAmount() uint64 {
	return c.dc.BufferedAmount()
}

func (c *Channel) SetBufferedAmountLowThreshold(n uint64) {
	c.dc.SetBufferedAmountLowThreshold(n)
}

func (c *Channel) OnBufferedAmountLow(f func()) {
	c.dc.OnBufferedAmountLow(f)
}

func (c *Channel) Open() bool {
	return c.dc.ReadyState() == pion.DataChannelStateOpen
}

// OnOpen fires once the channel is ready for traffic.
func (c *Channel) OnOpen(f func()) {
	c.dc.OnOpen(f)
}

// OnClose fires when the channel shuts down.
func (c *Channel) OnClose(f func()) {
	c.dc.OnClose(f)
}

// OnMessage delivers incoming frames with their text/binary distinction,
// which the receive path uses to separate metadata from chunks.
func (c *Channel) OnMessage(f func(data []byte, isText bool)) {
	c.dc.OnMessage(func(msg pion.DataChannelMessage) {
		f(msg.Data, msg.IsString)
	})
}

// Close closes the underlying data channel.
func (c *Channel) Close() error {
	return c.dc.Close()
}
