package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-skillet/skillet"
)

// ResponsePoint is one bin of a magnitude response.
type ResponsePoint struct {
	FreqHz float64 `json:"freq_hz"`
	GainDB float64 `json:"gain_db"`
}

// ImpulseResponse renders n samples of the engine's mono response to a unit
// impulse at the given height. A fresh engine is built from params so the
// caller's engines are left untouched.
func ImpulseResponse(params *skillet.Params, height float32, sampleRate float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("impulse length must be > 0, got %d", n)
	}
	e, err := skillet.New(params)
	if err != nil {
		return nil, err
	}
	const block = 512
	if err := e.Prepare(sampleRate, block, 1); err != nil {
		return nil, err
	}
	e.SetHeight(height)

	buf := make([]float32, n)
	buf[0] = 1
	planar := [][]float32{buf}
	e.Process(planar, planar, false)

	out := make([]float64, n)
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nil
}

// MagnitudeResponse returns the magnitude of ir's spectrum from DC to
// Nyquist. ir is zero padded (or truncated) to fftSize, which must be a power
// of two.
func MagnitudeResponse(ir []float64, sampleRate float64, fftSize int) ([]ResponsePoint, error) {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 2, got %d", fftSize)
	}
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("sample rate must be > 0, got %v", sampleRate)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	in := make([]float64, fftSize)
	copy(in, ir)
	bins := make([]complex128, fftSize/2+1)
	plan.Forward(bins, in)

	binHz := sampleRate / float64(fftSize)
	out := make([]ResponsePoint, len(bins))
	for k, c := range bins {
		out[k] = ResponsePoint{
			FreqHz: float64(k) * binHz,
			GainDB: linToDB(cmplx.Abs(c)),
		}
	}
	return out, nil
}

// GainAt returns the gain of the bin nearest freqHz.
func GainAt(resp []ResponsePoint, freqHz float64) float64 {
	if len(resp) == 0 {
		return math.Inf(-1)
	}
	best := 0
	bestDist := math.Inf(1)
	for i, p := range resp {
		if d := math.Abs(p.FreqHz - freqHz); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return resp[best].GainDB
}

// BandAverageDB averages the gain of all bins within [loHz, hiHz].
func BandAverageDB(resp []ResponsePoint, loHz, hiHz float64) float64 {
	var sum float64
	var n int
	for _, p := range resp {
		if p.FreqHz < loHz || p.FreqHz > hiHz {
			continue
		}
		sum += p.GainDB
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
