package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// Biquad implements a second-order IIR filter (no heap allocations in Process).
// Coefficients are designed in float64 and run in float32.
type Biquad struct {
	coeffs biquad.Coefficients

	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients.
func NewBiquad(c biquad.Coefficients) *Biquad {
	b := &Biquad{}
	b.SetCoefficients(c)
	return b
}

// SetCoefficients swaps the transfer function and keeps the sample history,
// so parameter changes do not restart the filter from silence.
func (b *Biquad) SetCoefficients(c biquad.Coefficients) {
	b.coeffs = c
	b.b0 = float32(c.B0)
	b.b1 = float32(c.B1)
	b.b2 = float32(c.B2)
	b.a1 = float32(c.A1)
	b.a2 = float32(c.A2)
}

// Coefficients returns the coefficients currently in use.
func (b *Biquad) Coefficients() biquad.Coefficients {
	return b.coeffs
}

// Process processes one sample through the biquad filter.
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = float32(dspcore.FlushDenormals(float64(output)))

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// ProcessBlock filters buf in place.
func (b *Biquad) ProcessBlock(buf []float32) {
	for i, x := range buf {
		buf[i] = b.Process(x)
	}
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// DelayLine is a fixed-capacity circular buffer read at a fractional delay.
// Capacity is chosen at construction; SetDelay never reallocates.
type DelayLine struct {
	buffer   []float32
	writePos int
	maxDelay float64

	delayInt  int
	delayFrac float32
}

// NewDelayLine creates a delay line able to hold maxDelay samples of delay.
func NewDelayLine(maxDelay float64) *DelayLine {
	if maxDelay < 0 || math.IsNaN(maxDelay) || math.IsInf(maxDelay, 0) {
		maxDelay = 0
	}
	// One extra slot for the interpolation partner of the longest delay and
	// one for the sample being written.
	size := int(math.Floor(maxDelay)) + 2
	return &DelayLine{
		buffer:   make([]float32, size),
		maxDelay: maxDelay,
	}
}

// MaxDelay returns the longest delay in samples the line can produce.
func (d *DelayLine) MaxDelay() float64 {
	return d.maxDelay
}

// Len returns the internal buffer size.
func (d *DelayLine) Len() int {
	return len(d.buffer)
}

// SetDelay sets the delay in samples, clamped to [0, MaxDelay()].
func (d *DelayLine) SetDelay(samples float64) {
	if math.IsNaN(samples) || samples < 0 {
		samples = 0
	}
	if samples > d.maxDelay {
		samples = d.maxDelay
	}
	d.delayInt = int(samples)
	d.delayFrac = float32(samples - float64(d.delayInt))
}

// Delay returns the effective delay in samples.
func (d *DelayLine) Delay() float64 {
	return float64(d.delayInt) + float64(d.delayFrac)
}

// Push writes a sample at the head of the line.
func (d *DelayLine) Push(sample float32) {
	d.buffer[d.writePos] = sample
}

// Pop returns the sample delayed by the current delay relative to the last
// Push and advances the line by one sample.
func (d *DelayLine) Pop() float32 {
	s0 := d.read(d.delayInt)
	out := s0
	if d.delayFrac != 0 {
		s1 := d.read(d.delayInt + 1)
		out = s0 + d.delayFrac*(s1-s0)
	}

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
	return out
}

func (d *DelayLine) read(delay int) float32 {
	size := len(d.buffer)
	pos := d.writePos - delay
	if pos < 0 {
		pos += size
	}
	return d.buffer[pos]
}

// Reset clears the delay line.
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
