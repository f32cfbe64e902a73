package skillet

import (
	"math"
	"testing"
)

func TestPinnaGainFollowsHeight(t *testing.T) {
	p := NewDefaultParams()
	for i, pp := range p.Pinna {
		b := NewPinnaBand(pp, 48000)
		b.Reconfigure(48000, 2)
		for _, h := range []float64{-1, -0.25, 0, 0.6, 1} {
			b.SetGainForHeight(h)
			want := h * pp.GainDBAtMaxHeight
			if math.Abs(b.GainDB()-want) > 1e-12 {
				t.Fatalf("band %d h=%f: gain got=%f want=%f", i, h, b.GainDB(), want)
			}
			if pp.Kind == PinnaPeak {
				c := b.Coefficients()
				got := c.MagnitudeDB(pp.FreqHz, 48000)
				if math.Abs(got-want) > 0.01 {
					t.Fatalf("band %d h=%f: response at centre got=%f want=%f", i, h, got, want)
				}
			}
		}
	}
}

func TestPinnaShelfReachesGainAtTop(t *testing.T) {
	p := NewDefaultParams().Pinna[2]
	b := NewPinnaBand(p, 96000)
	b.Reconfigure(96000, 1)
	b.SetGainForHeight(1)
	c := b.Coefficients()
	if got := c.MagnitudeDB(40000, 96000); math.Abs(got-p.GainDBAtMaxHeight) > 0.1 {
		t.Fatalf("shelf gain at 40 kHz: got=%f want=%f", got, p.GainDBAtMaxHeight)
	}
	if got := c.MagnitudeDB(50, 96000); math.Abs(got) > 0.05 {
		t.Fatalf("shelf gain at 50 Hz: got=%f want=0", got)
	}
}

func TestPinnaReconfigureUsesLastHeight(t *testing.T) {
	pp := NewDefaultParams().Pinna[0]
	b := NewPinnaBand(pp, 44100)
	b.Reconfigure(44100, 2)
	b.SetGainForHeight(0.5)

	b.Reconfigure(96000, 2)
	want := PinnaCoefficients(pp, 96000, 0.5)
	if b.Coefficients() != want {
		t.Fatalf("coefficients not redesigned at last height: got=%+v want=%+v", b.Coefficients(), want)
	}
	for ch, f := range b.filters {
		if f.Coefficients() != want {
			t.Fatalf("channel %d filter not updated", ch)
		}
	}
}

func TestPinnaAtHeightZeroIsTransparent(t *testing.T) {
	p := NewDefaultParams()
	block := noiseBlock(7, 2, 256)
	want := cloneBlock(block)
	for _, pp := range p.Pinna {
		b := NewPinnaBand(pp, 44100)
		b.Reconfigure(44100, 2)
		b.SetGainForHeight(0)
		b.Process(block)
	}
	if d := maxAbsDiff(block, want); d > 1e-4 {
		t.Fatalf("height 0 should leave the signal alone, max diff %g", d)
	}
}

func TestPinnaBandAboveNyquistPassesThrough(t *testing.T) {
	pp := NewDefaultParams().Pinna[1] // 10 kHz
	b := NewPinnaBand(pp, 16000)
	b.Reconfigure(16000, 1)
	b.SetGainForHeight(1)
	block := noiseBlock(3, 1, 64)
	want := cloneBlock(block)
	b.Process(block)
	if d := maxAbsDiff(block, want); d != 0 {
		t.Fatalf("band above Nyquist should pass through, max diff %g", d)
	}
}
