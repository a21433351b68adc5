package figure

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MarshalMsgpack encodes a figure sequence using the struct's msgpack tags.
func MarshalMsgpack(figs []*Figure) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(figs); err != nil {
		return nil, fmt.Errorf("encoding figures: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalMsgpack decodes a sequence produced by MarshalMsgpack.
func UnmarshalMsgpack(data []byte) ([]*Figure, error) {
	var figs []*Figure
	if err := msgpack.Unmarshal(data, &figs); err != nil {
		return nil, fmt.Errorf("decoding figures: %w", err)
	}
	return figs, nil
}
