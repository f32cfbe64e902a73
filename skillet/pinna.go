package skillet

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"

	"github.com/cwbudde/algo-skillet/dsp"
)

// PinnaCoefficients designs the section for band p at the given height.
func PinnaCoefficients(p PinnaParams, sampleRate, height float64) biquad.Coefficients {
	gainDB := height * p.GainDBAtMaxHeight
	switch p.Kind {
	case PinnaHighShelf:
		return dsp.HighShelfCoefficients(sampleRate, p.FreqHz, p.Q, gainDB)
	default:
		return dsp.PeakCoefficients(sampleRate, p.FreqHz, p.Q, gainDB)
	}
}

// PinnaBand is one resonance of the outer ear: a fixed-frequency peak or shelf
// whose gain follows height.
type PinnaBand struct {
	params     PinnaParams
	sampleRate float64
	height     float64
	coeffs     biquad.Coefficients
	filters    []*dsp.Biquad
}

// NewPinnaBand creates a band at height 0 with no channel state yet.
func NewPinnaBand(p PinnaParams, sampleRate float64) *PinnaBand {
	b := &PinnaBand{params: p, sampleRate: sampleRate}
	b.coeffs = PinnaCoefficients(p, sampleRate, 0)
	return b
}

// SetGainForHeight redesigns the band for height, keeping frequency and Q.
func (b *PinnaBand) SetGainForHeight(height float64) {
	b.height = height
	b.update()
}

// Reconfigure allocates per-channel state and redesigns the band at the last
// height, since the coefficients depend on the sample rate as well.
func (b *PinnaBand) Reconfigure(sampleRate float64, channels int) {
	if channels < 0 {
		channels = 0
	}
	b.sampleRate = sampleRate
	if channels != len(b.filters) {
		b.filters = make([]*dsp.Biquad, channels)
		for ch := range b.filters {
			b.filters[ch] = dsp.NewBiquad(dsp.Identity)
		}
	}
	b.update()
	b.Reset()
}

func (b *PinnaBand) update() {
	b.coeffs = PinnaCoefficients(b.params, b.sampleRate, b.height)
	for _, f := range b.filters {
		f.SetCoefficients(b.coeffs)
	}
}

// Process filters block in place.
func (b *PinnaBand) Process(block [][]float32) {
	for ch := 0; ch < len(block) && ch < len(b.filters); ch++ {
		b.filters[ch].ProcessBlock(block[ch])
	}
}

// Reset clears filter history.
func (b *PinnaBand) Reset() {
	for _, f := range b.filters {
		f.Reset()
	}
}

// GainDB returns the band's current gain in dB.
func (b *PinnaBand) GainDB() float64 { return b.height * b.params.GainDBAtMaxHeight }

// Coefficients returns the section currently in use.
func (b *PinnaBand) Coefficients() biquad.Coefficients { return b.coeffs }

// Params returns the band's fixed parameters.
func (b *PinnaBand) Params() PinnaParams { return b.params }
