package main

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-skillet/skillet"
)

func TestRenderAppendsTailAndKeepsChannels(t *testing.T) {
	in := [][]float32{make([]float32, 1000), make([]float32, 1000)}
	in[0][0] = 1
	in[1][0] = 1
	out, err := render(nil, in, 48000, renderOptions{blockSize: 256, appendTail: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("channel count: got=%d want=2", len(out))
	}
	// Floor capacity is 2*10.3-0.1 ms, about 984 samples at 48 kHz.
	if n := len(out[0]); n < 1000+984 || n > 1000+985 {
		t.Fatalf("frames: got=%d want=%d", n, 1000+984)
	}
}

func TestRenderBypassedIsIdentity(t *testing.T) {
	in := [][]float32{make([]float32, 700)}
	for i := range in[0] {
		in[0][i] = float32(math.Sin(float64(i) * 0.1))
	}
	out, err := render(skillet.NewDefaultParams(), in, 44100, renderOptions{blockSize: 128, bypassed: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := range in[0] {
		if out[0][i] != in[0][i] {
			t.Fatalf("sample %d: got=%f want=%f", i, out[0][i], in[0][i])
		}
	}
}

func TestRenderRampEndsAtTargetHeight(t *testing.T) {
	in := [][]float32{make([]float32, 4800)}
	in[0][4000] = 1
	// Ramp from -1 to 1: by the end the reflections are practically silent,
	// so the late impulse should come out with no audible echo.
	out, err := render(nil, in, 48000, renderOptions{blockSize: 64, startH: -1, endH: 1, appendTail: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var tailPeak float64
	for i := 4400; i < len(out[0]); i++ {
		tailPeak = math.Max(tailPeak, math.Abs(float64(out[0][i])))
	}
	if tailPeak > 1e-3 {
		t.Fatalf("expected a quiet tail at height ~1, got peak %g", tailPeak)
	}
}

func TestRenderRejectsBadBlockSize(t *testing.T) {
	if _, err := render(nil, [][]float32{{0}}, 48000, renderOptions{blockSize: 0}); err == nil {
		t.Fatalf("expected error for zero block size")
	}
}
