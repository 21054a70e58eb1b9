package transfer

import (
	"bytes"
	"log/slog"
)

// Result is the terminal event of a completed reception: the declared
// name and the reassembled bytes, truncated to exactly the declared size.
type Result struct {
	Name string
	Data []byte
}

// Receiver reassembles one file from incoming channel messages. The
// accumulator is owned exclusively by the receiver and mutated only by
// HandleMessage; arrival order is append order, the channel guarantees
// ordering, so no sequence numbers are needed on the wire.
type Receiver struct {
	meta       *Metadata
	chunks     [][]byte
	received   int64
	done       bool
	onProgress func(Progress)
	log        *slog.Logger
}

// NewReceiver creates an empty receiver. onProgress may be nil.
func NewReceiver(onProgress func(Progress)) *Receiver {
	return &Receiver{
		onProgress: onProgress,
		log:        slog.Default(),
	}
}

// HandleMessage consumes one channel message. The first text frame must
// be the metadata; every later frame must be binary. It returns a non-nil
// Result exactly once, when accumulated bytes reach the declared size.
// Messages that violate the protocol return an error and change nothing.
func (r *Receiver) HandleMessage(data []byte, isText bool) (*Result, error) {
	if r.done {
		return nil, NewError("receive", ErrTransferComplete)
	}

	if isText {
		return r.handleMetadata(data)
	}

	if r.meta == nil {
		return nil, NewError("receive", ErrMetadataMissing)
	}

	// Arrival order is reconstruction order. Copy: the transport may
	// reuse the message buffer after the callback returns.
	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.chunks = append(r.chunks, chunk)
	r.received += int64(len(chunk))

	r.emit()

	if r.received >= r.meta.Size {
		return r.finish(), nil
	}
	return nil, nil
}

func (r *Receiver) handleMetadata(data []byte) (*Result, error) {
	if r.meta != nil {
		// A second text frame mid-transfer is a protocol violation,
		// never a new metadata announcement.
		return nil, NewError("receive", ErrUnexpectedText)
	}

	meta, err := DecodeMetadata(data)
	if err != nil {
		return nil, NewError("receive metadata", err)
	}
	r.meta = &meta
	r.log.Debug("transfer metadata received", "name", meta.Name, "size", meta.Size)

	r.emit()

	// Zero-byte file: complete immediately after metadata.
	if meta.Size == 0 {
		return r.finish(), nil
	}
	return nil, nil
}

// finish concatenates the accumulated chunks and discards them. The final
// chunk may overrun the declared size when the file is not chunk-aligned
// on the sender's side of a resumed stream; the output is truncated to
// exactly the declared size rather than passing overrun bytes through.
func (r *Receiver) finish() *Result {
	r.done = true

	data := bytes.Join(r.chunks, nil)
	if int64(len(data)) > r.meta.Size {
		r.log.Warn("truncating overrun bytes",
			"received", len(data), "declared", r.meta.Size)
		data = data[:r.meta.Size]
	}
	r.chunks = nil

	return &Result{Name: r.meta.Name, Data: data}
}

func (r *Receiver) emit() {
	if r.onProgress != nil {
		r.onProgress(progressFor(r.received, r.meta.Size))
	}
}

// Metadata returns the declared metadata, or nil before the first frame.
func (r *Receiver) Metadata() *Metadata {
	return r.meta
}

// Done reports whether the transfer has completed; further chunks are
// rejected once it has.
func (r *Receiver) Done() bool {
	return r.done
}
