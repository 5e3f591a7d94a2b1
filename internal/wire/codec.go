// Package wire implements the canonical, field-named, self-describing binary
// encoding carried by the outer websocket binary frame: a msgpack-encoded
// envelope of the domain.Event tagged sum.
package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"roomrelay/internal/domain"
)

// Encode serializes an Event to its canonical binary form. The Kind field
// and the single populated variant field both carry field names in the
// msgpack map, so the encoding is self-describing without an external
// schema.
func Encode(ev domain.Event) ([]byte, error) {
	b, err := msgpack.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %s: %w", ev.Kind, err)
	}
	return b, nil
}

// Decode deserializes a single binary frame into an Event. Malformed frames
// return an error wrapping domain.ErrDecode; the caller is expected to log
// and drop them, not close the connection.
func Decode(frame []byte) (domain.Event, error) {
	var ev domain.Event
	if err := msgpack.Unmarshal(frame, &ev); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return ev, nil
}
