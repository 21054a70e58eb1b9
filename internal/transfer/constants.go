package transfer

import "time"

const (
	// ChunkSize is the fixed size of one binary frame on the data
	// channel. The channel's message boundaries are the only framing, so
	// every frame except possibly the last is exactly this long.
	ChunkSize = 16 * 1024

	// HighWaterMark suspends the send loop once the channel's outbound
	// buffer holds this much; keeps memory bounded when the receiver or
	// network is slower than local reads.
	HighWaterMark = 5 * ChunkSize

	// LowWaterMark is the buffered-amount-low threshold that resumes a
	// suspended send loop.
	LowWaterMark = 2 * ChunkSize

	// PollInterval is the fallback polling cadence when the channel's
	// low-buffer notification does not fire.
	PollInterval = 50 * time.Millisecond

	// RetryBackoff is the pause before resending a chunk after a
	// transient write failure.
	RetryBackoff = 200 * time.Millisecond

	// MaxSendAttempts bounds retries of a single chunk before the
	// transfer fails for good.
	MaxSendAttempts = 5

	// WindowTimeout bounds how long a send may stay suspended on a full
	// buffer that is not draining.
	WindowTimeout = 30 * time.Second

	// DrainTimeout bounds the final wait for the outbound buffer to
	// empty after the last chunk.
	DrainTimeout = 30 * time.Second
)
