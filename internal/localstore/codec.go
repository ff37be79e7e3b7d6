// internal/localstore/codec.go
//
// Serialization for saved games at rest: JSON inside an S2 compression pass.
// Anything that fails to decompress, parse, or validate decodes to
// ErrCorrupt; readers treat that as "entry absent".

package localstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/connectgame/go-server/internal/game"
)

// ErrCorrupt marks a stored value that cannot be decoded back into a valid
// payload. It is a read-side classification only; the stored bytes are left
// untouched.
var ErrCorrupt = errors.New("localstore: corrupt payload")

func encodePayload(p game.Payload) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return s2.Encode(nil, raw), nil
}

func decodePayload(b []byte) (game.Payload, error) {
	raw, err := s2.Decode(nil, b)
	if err != nil {
		return game.Payload{}, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}
	var p game.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return game.Payload{}, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}
	if err := p.Validate(); err != nil {
		return game.Payload{}, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}
	return p, nil
}
