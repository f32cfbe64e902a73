// Package skillet implements a headphone height effect: three pinna bands
// colour the signal and two reflections (floor and chest) add delayed copies
// whose delay and level follow a single height control in [-1, 1].
package skillet

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// DefaultSampleRate is assumed until Prepare is called.
const DefaultSampleRate = 44100.0

var (
	// ErrUnsupportedLayout is returned for channel layouts other than mono
	// or stereo with equal input and output counts.
	ErrUnsupportedLayout = errors.New("skillet: unsupported channel layout")
	// ErrInvalidConfig is returned for unusable params or stream settings.
	ErrInvalidConfig = errors.New("skillet: invalid configuration")
)

// SupportsLayout reports whether the engine accepts a bus layout.
func SupportsLayout(inputs, outputs int) bool {
	if inputs != outputs {
		return false
	}
	return outputs == 1 || outputs == 2
}

// Engine is the block processor. Prepare and Process must be called from one
// goroutine at a time; SetHeight may be called from any goroutine.
type Engine struct {
	params Params

	height      atomic.Uint32 // math.Float32bits of the requested height
	appliedBits uint32

	sampleRate float64
	blockSize  int
	channels   int
	prepared   bool

	floor *Reflection
	chest *Reflection
	pinna [NumPinnaBands]*PinnaBand

	// Scratch sized at Prepare.
	liveStore   [][]float32
	live        [][]float32
	srcView     [][]float32
	dstView     [][]float32
	planarStore [][]float32
	planar      [][]float32
}

// New creates an engine from params (nil selects the defaults) and applies
// the initial height to every stage.
func New(params *Params) (*Engine, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		params:     *params,
		sampleRate: DefaultSampleRate,
	}
	e.floor = NewReflection(e.params.Floor, e.sampleRate)
	e.chest = NewFilteredReflection(e.params.Chest, e.params.ChestBand, e.sampleRate)
	for i := range e.pinna {
		e.pinna[i] = NewPinnaBand(e.params.Pinna[i], e.sampleRate)
	}

	e.height.Store(math.Float32bits(e.params.Height))
	e.applyHeight(e.params.Height)
	return e, nil
}

// Prepare sizes all buffers for the stream format and resets stream state.
// It is the only allocating call and must not overlap Process.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int, channels int) error {
	if !SupportsLayout(channels, channels) {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, channels)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidConfig, sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, maxBlockSize)
	}

	e.sampleRate = sampleRate
	for _, b := range e.pinna {
		b.Reconfigure(sampleRate, channels)
	}
	e.floor.Reconfigure(sampleRate, maxBlockSize, channels)
	e.chest.Reconfigure(sampleRate, maxBlockSize, channels)

	if maxBlockSize != e.blockSize || channels != e.channels {
		e.liveStore = newPlanar(channels, maxBlockSize)
		e.planarStore = newPlanar(channels, maxBlockSize)
		e.live = make([][]float32, channels)
		e.planar = make([][]float32, channels)
		e.srcView = make([][]float32, channels)
		e.dstView = make([][]float32, channels)
	}
	e.blockSize = maxBlockSize
	e.channels = channels
	e.prepared = true

	e.applyHeight(e.Height())
	return nil
}

// SetHeight publishes a new height for the next block. Wait-free; safe to
// call concurrently with Process. Callers are expected to pass [-1, 1].
func (e *Engine) SetHeight(h float32) {
	e.height.Store(math.Float32bits(h))
}

// Height returns the most recently published height.
func (e *Engine) Height() float32 {
	return math.Float32frombits(e.height.Load())
}

// applyHeight fans height out to every stage in a fixed order. It runs on the
// processing goroutine, so Process never sees a half-applied height.
func (e *Engine) applyHeight(h float32) {
	hv := float64(h)
	for _, b := range e.pinna {
		b.SetGainForHeight(hv)
	}
	e.floor.SetHeight(hv, false)
	e.chest.SetHeight(hv, true)
	e.appliedBits = math.Float32bits(h)
}

func (e *Engine) applyPendingHeight() {
	bits := e.height.Load()
	if bits == e.appliedBits {
		return
	}
	e.applyHeight(math.Float32frombits(bits))
}

// Process renders src into dst. dst and src may be the same block. Blocks
// longer than the prepared size are processed in prepared-size chunks and
// channels beyond the prepared count pass through. Before Prepare the input
// is copied unchanged. Process does not allocate.
func (e *Engine) Process(dst, src [][]float32, bypassed bool) {
	e.applyPendingHeight()

	channels := len(dst)
	if len(src) < channels {
		channels = len(src)
	}
	if !e.prepared {
		for ch := 0; ch < channels; ch++ {
			copy(dst[ch], src[ch])
		}
		return
	}

	active := channels
	if active > e.channels {
		active = e.channels
	}
	for ch := active; ch < channels; ch++ {
		copy(dst[ch], src[ch])
	}
	if active == 0 {
		return
	}

	n := len(src[0])
	for ch := 0; ch < active; ch++ {
		if len(src[ch]) < n {
			n = len(src[ch])
		}
		if len(dst[ch]) < n {
			n = len(dst[ch])
		}
	}

	for off := 0; off < n; off += e.blockSize {
		end := off + e.blockSize
		if end > n {
			end = n
		}
		for ch := 0; ch < active; ch++ {
			e.srcView[ch] = src[ch][off:end]
			e.dstView[ch] = dst[ch][off:end]
		}
		e.processChunk(e.dstView[:active], e.srcView[:active], bypassed)
	}
}

// processChunk runs the fixed pipeline on at most blockSize samples:
// pinna bands, wet capture, chest band filter, then the mix.
func (e *Engine) processChunk(dst, src [][]float32, bypassed bool) {
	if bypassed && e.params.Bypass == BypassFrozen {
		for ch := range src {
			copy(dst[ch], src[ch])
		}
		return
	}

	n := len(src[0])
	live := e.live[:len(src)]
	for ch := range src {
		live[ch] = e.liveStore[ch][:n]
		copy(live[ch], src[ch])
	}

	for _, b := range e.pinna {
		b.Process(live)
	}

	e.floor.CaptureWet(live)
	e.chest.CaptureWet(live)

	e.chest.FilterWet()

	// While bypassed the dry input is what reaches the output.
	mixSrc := live
	if bypassed {
		mixSrc = src
	}
	e.floor.MixInto(dst, mixSrc, bypassed)
	e.chest.MixInto(dst, dst, bypassed)
}

// ProcessInterleaved processes an interleaved buffer in place.
func (e *Engine) ProcessInterleaved(buf []float32, channels int, bypassed bool) {
	if channels <= 0 {
		return
	}
	if !e.prepared {
		e.applyPendingHeight()
		return
	}
	active := channels
	if active > e.channels {
		active = e.channels
	}
	frames := len(buf) / channels

	for off := 0; off < frames; off += e.blockSize {
		end := off + e.blockSize
		if end > frames {
			end = frames
		}
		n := end - off
		planar := e.planar[:active]
		for ch := 0; ch < active; ch++ {
			planar[ch] = e.planarStore[ch][:n]
		}
		for i := 0; i < n; i++ {
			base := (off + i) * channels
			for ch := 0; ch < active; ch++ {
				planar[ch][i] = buf[base+ch]
			}
		}

		e.Process(planar, planar, bypassed)

		for i := 0; i < n; i++ {
			base := (off + i) * channels
			for ch := 0; ch < active; ch++ {
				buf[base+ch] = planar[ch][i]
			}
		}
	}
}

// Reset clears delay and filter history without reallocating.
func (e *Engine) Reset() {
	for _, b := range e.pinna {
		b.Reset()
	}
	e.floor.Reset()
	e.chest.Reset()
}

// TailSeconds returns how long the output can ring after the input stops:
// the longer reflection delay at the applied height.
func (e *Engine) TailSeconds() float64 {
	ms := math.Max(e.floor.DelayMs(), e.chest.DelayMs())
	if ms < 0 {
		return 0
	}
	return ms * 0.001
}

// Floor returns the unfiltered reflection.
func (e *Engine) Floor() *Reflection { return e.floor }

// Chest returns the band-limited reflection.
func (e *Engine) Chest() *Reflection { return e.chest }

// Pinna returns pinna band i in processing order.
func (e *Engine) Pinna(i int) *PinnaBand { return e.pinna[i] }

// Params returns a copy of the engine's configuration.
func (e *Engine) Params() Params { return e.params }

// SampleRate returns the configured sample rate.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// BlockSize returns the prepared maximum block size.
func (e *Engine) BlockSize() int { return e.blockSize }

// Channels returns the prepared channel count.
func (e *Engine) Channels() int { return e.channels }

// Prepared reports whether Prepare has succeeded.
func (e *Engine) Prepared() bool { return e.prepared }

func newPlanar(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	return out
}
