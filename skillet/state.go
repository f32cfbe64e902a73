package skillet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// StateSize is the size of a persisted state blob: one float32 height.
const StateSize = 4

// ErrStateFormat is returned for truncated or out-of-range state blobs.
var ErrStateFormat = errors.New("skillet: malformed state")

// EncodeHeight returns the persisted form of h (little-endian float32).
func EncodeHeight(h float32) []byte {
	return AppendHeight(make([]byte, 0, StateSize), h)
}

// AppendHeight appends the persisted form of h to dst.
func AppendHeight(dst []byte, h float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(h))
}

// DecodeHeight reads a persisted height. Trailing bytes are ignored.
func DecodeHeight(b []byte) (float32, error) {
	if len(b) < StateSize {
		return 0, fmt.Errorf("%w: %d bytes, need %d", ErrStateFormat, len(b), StateSize)
	}
	h := math.Float32frombits(binary.LittleEndian.Uint32(b))
	if math.IsNaN(float64(h)) || h < -1 || h > 1 {
		return 0, fmt.Errorf("%w: height %v outside [-1, 1]", ErrStateFormat, h)
	}
	return h, nil
}

// State returns the engine's persisted state.
func (e *Engine) State() []byte {
	return EncodeHeight(e.Height())
}

// AppendState appends the engine's persisted state to dst.
func (e *Engine) AppendState(dst []byte) []byte {
	return AppendHeight(dst, e.Height())
}

// LoadState restores height from a state blob. A malformed blob sets the
// default height 0 and returns an error wrapping ErrStateFormat; the engine
// stays usable either way.
func (e *Engine) LoadState(data []byte) error {
	h, err := DecodeHeight(data)
	if err != nil {
		e.SetHeight(0)
		return err
	}
	e.SetHeight(h)
	return nil
}
