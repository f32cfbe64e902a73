package skillet

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-skillet/dsp"
)

// BandStage band-limits a reflection's wet signal with a highpass followed by
// a lowpass. Coefficients depend on the sample rate only.
type BandStage struct {
	params     BandParams
	sampleRate float64
	highpass   []*dsp.Biquad
	lowpass    []*dsp.Biquad
}

func newBandStage(p BandParams, sampleRate float64) *BandStage {
	return &BandStage{params: p, sampleRate: sampleRate}
}

func (b *BandStage) reconfigure(sampleRate float64, channels int) {
	rateChanged := sampleRate != b.sampleRate
	b.sampleRate = sampleRate
	if channels != len(b.highpass) {
		b.highpass = make([]*dsp.Biquad, channels)
		b.lowpass = make([]*dsp.Biquad, channels)
		for ch := 0; ch < channels; ch++ {
			b.highpass[ch] = dsp.NewBiquad(dsp.Identity)
			b.lowpass[ch] = dsp.NewBiquad(dsp.Identity)
		}
		rateChanged = true
	}
	if rateChanged {
		hp := dsp.HighpassCoefficients(sampleRate, b.params.HighpassHz, b.params.Q)
		lp := dsp.LowpassCoefficients(sampleRate, b.params.LowpassHz, b.params.Q)
		for ch := range b.highpass {
			b.highpass[ch].SetCoefficients(hp)
			b.lowpass[ch].SetCoefficients(lp)
		}
	}
	b.reset()
}

func (b *BandStage) process(wet [][]float32, n int) {
	for ch := 0; ch < len(wet) && ch < len(b.highpass); ch++ {
		buf := wet[ch][:n]
		b.highpass[ch].ProcessBlock(buf)
		b.lowpass[ch].ProcessBlock(buf)
	}
}

func (b *BandStage) reset() {
	for ch := range b.highpass {
		b.highpass[ch].Reset()
		b.lowpass[ch].Reset()
	}
}

// Reflection produces a delayed, attenuated copy of its input. A reflection
// built with NewFilteredReflection also band-limits that copy.
type Reflection struct {
	defaultDelayMs float64
	minDelayMs     float64
	delayMs        float64
	wetGain        float32

	sampleRate float64
	blockSize  int

	lines []*dsp.DelayLine
	wet   [][]float32
	n     int // samples captured by the last CaptureWet

	band *BandStage
}

// NewReflection creates a plain reflection. It holds no buffers until
// Reconfigure is called.
func NewReflection(p ReflectionParams, sampleRate float64) *Reflection {
	return &Reflection{
		defaultDelayMs: p.DefaultDelayMs,
		minDelayMs:     p.MinDelayMs,
		delayMs:        p.DefaultDelayMs,
		sampleRate:     sampleRate,
	}
}

// NewFilteredReflection creates a reflection whose wet signal is band-limited.
func NewFilteredReflection(p ReflectionParams, band BandParams, sampleRate float64) *Reflection {
	r := NewReflection(p, sampleRate)
	r.band = newBandStage(band, sampleRate)
	return r
}

// Reconfigure sizes the delay lines and the wet buffer for the given stream
// format and clears history. It allocates and must not overlap processing.
func (r *Reflection) Reconfigure(sampleRate float64, blockSize int, channels int) {
	if channels < 0 {
		channels = 0
	}
	if blockSize < 0 {
		blockSize = 0
	}

	if r.lines == nil || sampleRate != r.sampleRate || channels != len(r.lines) {
		r.sampleRate = sampleRate
		maxDelay := r.MaxDelaySamples()
		r.lines = make([]*dsp.DelayLine, channels)
		for ch := range r.lines {
			r.lines[ch] = dsp.NewDelayLine(maxDelay)
		}
	}

	if blockSize != r.blockSize || channels != len(r.wet) {
		r.blockSize = blockSize
		r.wet = make([][]float32, channels)
		for ch := range r.wet {
			r.wet[ch] = make([]float32, blockSize)
		}
	}

	r.applyDelay()
	if r.band != nil {
		r.band.reconfigure(sampleRate, channels)
	}
	r.Reset()
}

// SetHeight maps height onto the delay and the wet gain. With invert set the
// delay moves the other way for the same height. Height is not range checked.
func (r *Reflection) SetHeight(height float64, invert bool) {
	direction := 1.0
	if invert {
		direction = -1.0
	}
	r.delayMs = direction*height*(r.defaultDelayMs-r.minDelayMs) + r.defaultDelayMs
	r.applyDelay()

	// -50 makes height 1 practically silent while height 0 stays audible.
	r.wetGain = float32(dspcore.DBToLinear(-50.0*(height+1.0) - 6.0))
}

func (r *Reflection) applyDelay() {
	d := r.DelaySamples()
	for _, l := range r.lines {
		l.SetDelay(d)
	}
}

// CaptureWet runs every input sample through the channel's delay line and
// stores the delayed output in the wet buffer. History carries across calls.
func (r *Reflection) CaptureWet(block [][]float32) {
	r.n = 0
	channels := len(block)
	if channels > len(r.lines) {
		channels = len(r.lines)
	}
	for ch := 0; ch < channels; ch++ {
		in := block[ch]
		out := r.wet[ch]
		n := len(in)
		if n > len(out) {
			n = len(out)
		}
		line := r.lines[ch]
		for i := 0; i < n; i++ {
			line.Push(in[i])
			out[i] = line.Pop()
		}
		r.n = n
	}
}

// FilterWet band-limits the wet buffer in place. Plain reflections ignore it.
func (r *Reflection) FilterWet() {
	if r.band == nil {
		return
	}
	r.band.process(r.wet, r.n)
}

// MixInto writes in + wetGain*wet to out. When bypassed it copies in to out
// and leaves the wet signal out. out and in may be the same block.
func (r *Reflection) MixInto(out, in [][]float32, bypassed bool) {
	channels := len(out)
	if len(in) < channels {
		channels = len(in)
	}

	if bypassed {
		for ch := 0; ch < channels; ch++ {
			copy(out[ch], in[ch])
		}
		return
	}

	g := r.wetGain
	for ch := 0; ch < channels; ch++ {
		o := out[ch]
		x := in[ch]
		n := len(o)
		if len(x) < n {
			n = len(x)
		}
		m := n
		if ch >= len(r.wet) {
			m = 0
		} else if r.n < m {
			m = r.n
		}
		w := r.wet[ch]
		for i := 0; i < m; i++ {
			o[i] = x[i] + g*w[i]
		}
		if m < n {
			copy(o[m:n], x[m:n])
		}
	}
}

// Reset clears delay history, the wet buffer and band filter state.
func (r *Reflection) Reset() {
	for _, l := range r.lines {
		l.Reset()
	}
	for _, w := range r.wet {
		for i := range w {
			w[i] = 0
		}
	}
	r.n = 0
	if r.band != nil {
		r.band.reset()
	}
}

// DelayMs returns the current delay in milliseconds.
func (r *Reflection) DelayMs() float64 { return r.delayMs }

// DelaySamples returns the current delay in samples at the configured rate.
func (r *Reflection) DelaySamples() float64 { return r.msToSamples(r.delayMs) }

// MaxDelaySamples returns the delay-line capacity: 2*default - min
// milliseconds at the configured rate.
func (r *Reflection) MaxDelaySamples() float64 {
	return r.msToSamples(r.defaultDelayMs*2 - r.minDelayMs)
}

// WetGain returns the linear gain applied to the wet signal.
func (r *Reflection) WetGain() float32 { return r.wetGain }

// Filtered reports whether the reflection band-limits its wet signal.
func (r *Reflection) Filtered() bool { return r.band != nil }

// SampleRate returns the configured sample rate.
func (r *Reflection) SampleRate() float64 { return r.sampleRate }

// Wet returns the wet samples captured for channel by the last CaptureWet.
func (r *Reflection) Wet(channel int) []float32 {
	if channel < 0 || channel >= len(r.wet) {
		return nil
	}
	return r.wet[channel][:r.n]
}

func (r *Reflection) msToSamples(ms float64) float64 {
	return ms * 0.001 * r.sampleRate
}
