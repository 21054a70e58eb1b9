package transfer

// Channel is the slice of a negotiated data channel the engine consumes:
// discrete text/binary messages with preserved boundaries and a queryable
// outbound buffer. The pion-backed implementation lives in
// internal/webrtc; tests use an in-memory fake.
type Channel interface {
	// SendText writes one text frame.
	SendText(data []byte) error

	// SendBinary writes one binary frame.
	SendBinary(data []byte) error

	// BufferedAmount reports bytes queued locally but not yet handed to
	// the transport.
	BufferedAmount() uint64

	// SetBufferedAmountLowThreshold arms OnBufferedAmountLow to fire
	// when the buffer drains below n.
	SetBufferedAmountLowThreshold(n uint64)

	// OnBufferedAmountLow registers the low-buffer callback, replacing
	// any previous one.
	OnBufferedAmountLow(f func())

	// Open reports whether the channel is still usable.
	Open() bool
}

// Progress is one engine progress event. Percent is floor(bytes/total*100),
// clamped to 100; a zero-byte transfer reports 100 immediately.
type Progress struct {
	Percent int
	Bytes   int64
	Total   int64
}

func progressFor(bytes, total int64) Progress {
	percent := 100
	if total > 0 {
		percent = int(bytes * 100 / total)
		if percent > 100 {
			percent = 100
		}
	}
	return Progress{Percent: percent, Bytes: bytes, Total: total}
}
