package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Identity is the pass-through section.
var Identity = biquad.Coefficients{B0: 1}

// PeakCoefficients designs an RBJ peaking EQ centred on freq with the given
// gain. It matches design.Peak without options and does not allocate.
func PeakCoefficients(sampleRate, freq, q, gainDB float64) biquad.Coefficients {
	if !designable(sampleRate, freq, q) || !finite(gainDB) {
		return Identity
	}
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a := math.Pow(10, gainDB/40)

	a0 := 1 + alpha/a
	return biquad.Coefficients{
		B0: (1 + alpha*a) / a0,
		B1: -2 * cw / a0,
		B2: (1 - alpha*a) / a0,
		A1: -2 * cw / a0,
		A2: (1 - alpha/a) / a0,
	}
}

// HighShelfCoefficients designs a high shelf with its midpoint at freq.
func HighShelfCoefficients(sampleRate, freq, q, gainDB float64) biquad.Coefficients {
	if !designable(sampleRate, freq, q) || !finite(gainDB) {
		return Identity
	}
	return design.HighShelf(freq, gainDB, q, sampleRate)
}

// LowpassCoefficients designs a second-order lowpass.
func LowpassCoefficients(sampleRate, freq, q float64) biquad.Coefficients {
	if !designable(sampleRate, freq, q) {
		return Identity
	}
	return design.Lowpass(freq, q, sampleRate)
}

// HighpassCoefficients designs a second-order highpass.
func HighpassCoefficients(sampleRate, freq, q float64) biquad.Coefficients {
	if !designable(sampleRate, freq, q) {
		return Identity
	}
	return design.Highpass(freq, q, sampleRate)
}

// designable reports whether freq sits strictly inside (0, Nyquist). The
// design package answers out-of-range requests with an all-zero section,
// which would mute the signal instead of leaving it alone.
func designable(sampleRate, freq, q float64) bool {
	if !finite(sampleRate) || !finite(freq) || !finite(q) {
		return false
	}
	if sampleRate <= 0 || q <= 0 {
		return false
	}
	return freq > 0 && freq < sampleRate/2
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
