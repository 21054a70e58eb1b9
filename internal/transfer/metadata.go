package transfer

import (
	"encoding/json"
	"fmt"
)

// Metadata describes the file being transferred. It is the first message
// on the channel, sent exactly once as a text frame, and is immutable for
// the duration of the transfer.
type Metadata struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Encode serializes metadata to its wire form.
func (m Metadata) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMetadata parses and validates a metadata frame.
func DecodeMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if m.Name == "" {
		return Metadata{}, fmt.Errorf("%w: empty name", ErrInvalidMetadata)
	}
	if m.Size < 0 {
		return Metadata{}, fmt.Errorf("%w: negative size %d", ErrInvalidMetadata, m.Size)
	}
	return m, nil
}
