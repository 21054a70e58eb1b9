package transfer

import (
	"errors"
	"fmt"
)

var (
	ErrChannelNotOpen     = errors.New("channel not open")
	ErrChannelClosed      = errors.New("channel closed")
	ErrBufferTimeout      = errors.New("buffer drain timeout")
	ErrRetriesExhausted   = errors.New("send retries exhausted")
	ErrTransferCancelled  = errors.New("transfer cancelled")
	ErrMetadataMissing    = errors.New("chunk received before metadata")
	ErrUnexpectedText     = errors.New("unexpected text frame during transfer")
	ErrTransferComplete   = errors.New("transfer already complete")
	ErrInvalidMetadata    = errors.New("invalid transfer metadata")
	ErrShortRead          = errors.New("file shrank during transfer")
)

// TransferError carries the operation and optional file/detail context for
// an engine failure.
type TransferError struct {
	Op      string
	File    string
	Err     error
	Details string
}

func (e *TransferError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

func NewFileError(op, file string, err error) *TransferError {
	return &TransferError{Op: op, File: file, Err: err}
}

func WrapError(op string, err error, details string) *TransferError {
	return &TransferError{Op: op, Err: err, Details: details}
}
