package skillet

import (
	"math"
	"math/rand"
	"testing"
)

func mustEngine(t *testing.T, params *Params, sampleRate float64, blockSize, channels int) *Engine {
	t.Helper()
	e, err := New(params)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Prepare(sampleRate, blockSize, channels); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return e
}

func silentBlock(channels, frames int) [][]float32 {
	return newPlanar(channels, frames)
}

func impulseBlock(channels, frames int) [][]float32 {
	b := newPlanar(channels, frames)
	for ch := range b {
		b[ch][0] = 1
	}
	return b
}

func noiseBlock(seed int64, channels, frames int) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	b := newPlanar(channels, frames)
	for ch := range b {
		for i := range b[ch] {
			b[ch][i] = float32(rng.Float64()*2 - 1)
		}
	}
	return b
}

func cloneBlock(b [][]float32) [][]float32 {
	out := make([][]float32, len(b))
	for ch := range b {
		out[ch] = append([]float32(nil), b[ch]...)
	}
	return out
}

func maxAbsDiff(a, b [][]float32) float64 {
	var worst float64
	for ch := range a {
		for i := range a[ch] {
			d := math.Abs(float64(a[ch][i] - b[ch][i]))
			if d > worst {
				worst = d
			}
		}
	}
	return worst
}

func argMaxAbs(x []float32, lo, hi int) int {
	best := lo
	for i := lo; i < hi && i < len(x); i++ {
		if math.Abs(float64(x[i])) > math.Abs(float64(x[best])) {
			best = i
		}
	}
	return best
}

func expectedWetGain(height float64) float64 {
	return math.Pow(10, (-50*(height+1)-6)/20)
}
