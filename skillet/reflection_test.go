package skillet

import (
	"math"
	"testing"
)

func floorReflection(sampleRate float64, blockSize, channels int) *Reflection {
	p := NewDefaultParams()
	r := NewReflection(p.Floor, sampleRate)
	r.Reconfigure(sampleRate, blockSize, channels)
	r.SetHeight(0, false)
	return r
}

func chestReflection(sampleRate float64, blockSize, channels int) *Reflection {
	p := NewDefaultParams()
	r := NewFilteredReflection(p.Chest, p.ChestBand, sampleRate)
	r.Reconfigure(sampleRate, blockSize, channels)
	r.SetHeight(0, true)
	return r
}

func TestMixIntoBypassCopiesInput(t *testing.T) {
	for _, channels := range []int{1, 2, 3} {
		for _, frames := range []int{1, 7, 64, 512} {
			r := floorReflection(48000, frames, channels)
			in := noiseBlock(int64(channels*1000+frames), channels, frames)
			r.CaptureWet(in)
			out := silentBlock(channels, frames)
			r.MixInto(out, in, true)
			if d := maxAbsDiff(out, in); d != 0 {
				t.Fatalf("channels=%d frames=%d: bypass altered signal, max diff %g", channels, frames, d)
			}
		}
	}
}

func TestMixIntoAddsScaledWet(t *testing.T) {
	r := floorReflection(1000, 32, 1)
	r.SetHeight(0, false)
	in := impulseBlock(1, 32)
	r.CaptureWet(in)
	out := silentBlock(1, 32)
	r.MixInto(out, in, false)

	wet := r.Wet(0)
	g := r.WetGain()
	for i := range out[0] {
		want := in[0][i] + g*wet[i]
		if math.Abs(float64(out[0][i]-want)) > 1e-9 {
			t.Fatalf("sample %d: got=%g want=%g", i, out[0][i], want)
		}
	}
}

func TestHeightZeroUsesDefaultDelayAndGain(t *testing.T) {
	p := NewDefaultParams()
	floor := floorReflection(44100, 256, 2)
	chest := chestReflection(44100, 256, 2)

	if math.Abs(floor.DelayMs()-p.Floor.DefaultDelayMs) > 1e-12 {
		t.Fatalf("floor delay: got=%f want=%f", floor.DelayMs(), p.Floor.DefaultDelayMs)
	}
	if math.Abs(chest.DelayMs()-p.Chest.DefaultDelayMs) > 1e-12 {
		t.Fatalf("chest delay: got=%f want=%f", chest.DelayMs(), p.Chest.DefaultDelayMs)
	}

	want := math.Pow(10, -56.0/20.0)
	for name, r := range map[string]*Reflection{"floor": floor, "chest": chest} {
		if math.Abs(float64(r.WetGain())-want) > 1e-7 {
			t.Fatalf("%s gain: got=%g want=%g", name, r.WetGain(), want)
		}
	}
}

func TestHeightExtremesMoveDelaysInOppositeDirections(t *testing.T) {
	floor := floorReflection(48000, 128, 1)
	chest := chestReflection(48000, 128, 1)

	floor.SetHeight(1, false)
	chest.SetHeight(1, true)
	floorUp, chestUp := floor.DelayMs(), chest.DelayMs()

	floor.SetHeight(-1, false)
	chest.SetHeight(-1, true)
	floorDown, chestDown := floor.DelayMs(), chest.DelayMs()

	if !(floorUp > floorDown) {
		t.Fatalf("floor delay should grow with height: up=%f down=%f", floorUp, floorDown)
	}
	if !(chestUp < chestDown) {
		t.Fatalf("chest delay should shrink with height: up=%f down=%f", chestUp, chestDown)
	}

	p := NewDefaultParams()
	if math.Abs(floorDown-p.Floor.MinDelayMs) > 1e-9 {
		t.Fatalf("floor delay at -1: got=%f want=%f", floorDown, p.Floor.MinDelayMs)
	}
	if math.Abs(chestUp-p.Chest.MinDelayMs) > 1e-9 {
		t.Fatalf("chest delay at +1: got=%f want=%f", chestUp, p.Chest.MinDelayMs)
	}
}

func TestWetGainNonIncreasingInHeight(t *testing.T) {
	heights := []float64{-1, -0.5, 0, 0.5, 1}
	for _, invert := range []bool{false, true} {
		r := floorReflection(44100, 64, 1)
		prev := float32(math.Inf(1))
		for _, h := range heights {
			r.SetHeight(h, invert)
			g := r.WetGain()
			if g > prev {
				t.Fatalf("invert=%v: gain rose at height %f: %g > %g", invert, h, g, prev)
			}
			if math.Abs(float64(g)-expectedWetGain(h)) > 1e-6*expectedWetGain(h)+1e-12 {
				t.Fatalf("gain at %f: got=%g want=%g", h, g, expectedWetGain(h))
			}
			prev = g
		}
	}
}

func TestDelayStaysWithinCapacity(t *testing.T) {
	for _, sr := range []float64{44100, 48000, 96000} {
		for _, r := range []*Reflection{floorReflection(sr, 64, 2), chestReflection(sr, 64, 2)} {
			invert := r.Filtered()
			for i := 0; i <= 200; i++ {
				h := -1 + float64(i)*0.01
				r.SetHeight(h, invert)
				if r.DelaySamples() > r.MaxDelaySamples()*(1+1e-12) {
					t.Fatalf("sr=%f h=%f: delay %f exceeds capacity %f", sr, h, r.DelaySamples(), r.MaxDelaySamples())
				}
				for ch, l := range r.lines {
					if math.Abs(l.Delay()-r.DelaySamples()) > 1e-6 {
						t.Fatalf("sr=%f h=%f ch=%d: line delay %f != %f", sr, h, ch, l.Delay(), r.DelaySamples())
					}
				}
			}
		}
	}
}

func TestCaptureWetKeepsHistoryAcrossBlocks(t *testing.T) {
	// 10.3 ms at 10 kHz is exactly 103 samples; blocks of 32 put it in block 3.
	r := floorReflection(10000, 32, 1)
	var found bool
	for blk := 0; blk < 5; blk++ {
		in := silentBlock(1, 32)
		if blk == 0 {
			in[0][0] = 1
		}
		r.CaptureWet(in)
		for i, v := range r.Wet(0) {
			global := blk*32 + i
			if global == 103 {
				if math.Abs(float64(v)-1) > 1e-4 {
					t.Fatalf("expected delayed impulse at 103, got=%f", v)
				}
				found = true
			} else if math.Abs(float64(v)) > 1e-4 {
				t.Fatalf("unexpected wet energy %f at %d", v, global)
			}
		}
	}
	if !found {
		t.Fatalf("delayed impulse never appeared")
	}
}

func TestFilterWetBandLimitsOnlyFilteredReflection(t *testing.T) {
	const frames = 4096
	dc := silentBlock(1, frames)
	for i := range dc[0] {
		dc[0][i] = 1
	}

	chest := chestReflection(48000, frames, 1)
	chest.CaptureWet(dc)
	chest.FilterWet()
	if tail := chest.Wet(0)[frames-1]; math.Abs(float64(tail)) > 1e-3 {
		t.Fatalf("highpass should remove DC from chest wet: tail=%f", tail)
	}

	floor := floorReflection(48000, frames, 1)
	floor.CaptureWet(dc)
	floor.FilterWet()
	if tail := floor.Wet(0)[frames-1]; tail != 1 {
		t.Fatalf("plain reflection must not filter: tail=%f", tail)
	}
}

func TestReconfigureKeepsMillisecondsAndScalesSamples(t *testing.T) {
	r := floorReflection(44100, 256, 2)
	r.SetHeight(0.3, false)
	ms := r.DelayMs()
	at441 := r.DelaySamples()

	r.Reconfigure(48000, 256, 2)
	if r.DelayMs() != ms {
		t.Fatalf("delay in ms changed on reconfigure: got=%f want=%f", r.DelayMs(), ms)
	}
	ratio := r.DelaySamples() / at441
	if math.Abs(ratio-48000.0/44100.0) > 1e-9 {
		t.Fatalf("sample delay ratio: got=%f want=%f", ratio, 48000.0/44100.0)
	}
	if r.lines[0].MaxDelay() != r.MaxDelaySamples() {
		t.Fatalf("delay line not resized for new rate")
	}
}

func TestReconfigureResizesWetBuffer(t *testing.T) {
	r := floorReflection(48000, 64, 1)
	r.Reconfigure(48000, 256, 2)
	if len(r.wet) != 2 || len(r.wet[0]) != 256 || len(r.lines) != 2 {
		t.Fatalf("unexpected buffer shape: wet=%dx%d lines=%d", len(r.wet), len(r.wet[0]), len(r.lines))
	}
}
