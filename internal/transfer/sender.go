package transfer

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Sender streams one file over a ready data channel: a single metadata
// text frame followed by fixed-size binary chunks in strict sequential
// order. There is exactly one writer of the outbound offset, the send
// loop itself.
type Sender struct {
	channel Channel
	buffer  []byte
	log     *slog.Logger
}

// NewSender prepares a sender on an open channel and arms its low-buffer
// notification.
func NewSender(ch Channel) *Sender {
	ch.SetBufferedAmountLowThreshold(LowWaterMark)
	return &Sender{
		channel: ch,
		buffer:  make([]byte, ChunkSize),
		log:     slog.Default(),
	}
}

// Send transmits the file described by meta from r. onProgress is invoked
// after the metadata frame and after every chunk; it may be nil. Send
// returns nil once the final chunk is written and the outbound buffer has
// drained, at which point the transfer is complete on our side.
func (s *Sender) Send(ctx context.Context, meta Metadata, r io.Reader, onProgress func(Progress)) error {
	if !s.channel.Open() {
		return NewFileError("send", meta.Name, ErrChannelNotOpen)
	}

	frame, err := meta.Encode()
	if err != nil {
		return NewFileError("encode metadata", meta.Name, err)
	}
	if err := s.channel.SendText(frame); err != nil {
		return NewFileError("send metadata", meta.Name, err)
	}

	var sent int64
	emit := func() {
		if onProgress != nil {
			onProgress(progressFor(sent, meta.Size))
		}
	}
	emit()

	// A zero-byte file is complete after the metadata frame alone.
	if meta.Size == 0 {
		return nil
	}

	for sent < meta.Size {
		if !s.channel.Open() {
			return NewFileError("send", meta.Name, ErrChannelClosed)
		}

		want := meta.Size - sent
		if want > ChunkSize {
			want = ChunkSize
		}

		n, err := io.ReadFull(r, s.buffer[:want])
		if err != nil {
			// The declared size is immutable; a reader that ends
			// early would leave the receiver waiting forever.
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return NewFileError("read", meta.Name, ErrShortRead)
			}
			return NewFileError("read", meta.Name, err)
		}

		if err := s.waitForWindow(ctx); err != nil {
			return NewFileError("send", meta.Name, err)
		}

		if err := s.sendChunk(ctx, s.buffer[:n]); err != nil {
			return NewFileError("send", meta.Name, err)
		}

		sent += int64(n)
		emit()
	}

	s.waitForDrain()
	return nil
}

// sendChunk writes one chunk, retrying the same bytes with backoff on
// transient failure. Delivery must stay ordered and gap-free, so the
// offset never advances past a failed write.
func (s *Sender) sendChunk(ctx context.Context, data []byte) error {
	var lastErr error
	for attempt := 1; attempt <= MaxSendAttempts; attempt++ {
		err := s.channel.SendBinary(data)
		if err == nil {
			return nil
		}
		lastErr = err

		s.log.Warn("chunk send failed, retrying",
			"attempt", attempt, "error", lastErr)

		select {
		case <-ctx.Done():
			return ErrTransferCancelled
		case <-time.After(RetryBackoff):
		}
	}
	return WrapError("send chunk", ErrRetriesExhausted, lastErr.Error())
}

// waitForWindow suspends until the outbound buffer is below the high
// water mark. The low-buffer notification is the fast path; a bounded
// poll covers channels where it never fires.
func (s *Sender) waitForWindow(ctx context.Context) error {
	if s.channel.BufferedAmount() < HighWaterMark {
		return nil
	}

	wait := make(chan struct{}, 1)
	s.channel.OnBufferedAmountLow(func() {
		select {
		case wait <- struct{}{}:
		default:
		}
	})

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	deadline := time.After(WindowTimeout)

	for {
		select {
		case <-wait:
			return nil
		case <-ticker.C:
			if s.channel.BufferedAmount() < HighWaterMark {
				return nil
			}
			if !s.channel.Open() {
				return ErrChannelClosed
			}
		case <-deadline:
			return WrapError("wait window", ErrBufferTimeout, "buffer not draining")
		case <-ctx.Done():
			return ErrTransferCancelled
		}
	}
}

// waitForDrain blocks until the outbound buffer empties so the terminal
// event is not reported while bytes are still queued locally.
func (s *Sender) waitForDrain() {
	start := time.Now()
	for s.channel.BufferedAmount() > 0 && time.Since(start) < DrainTimeout {
		if !s.channel.Open() {
			return
		}
		time.Sleep(PollInterval)
	}
}
