package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-skillet/internal/fitcommon"
	"github.com/cwbudde/algo-skillet/preset"
	"github.com/cwbudde/algo-skillet/skillet"
)

func main() {
	input := flag.String("input", "", "Input WAV file path (mono or stereo)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	height := flag.Float64("height", math.NaN(), "Height in [-1,1]; overrides the preset")
	heightEnd := flag.Float64("height-end", math.NaN(), "Ramp height linearly from -height to this value over the file")
	blockSize := flag.Int("block", 512, "Processing block size in frames")
	sampleRate := flag.Int("sample-rate", 0, "Resample input to this rate before processing (0 = keep)")
	tail := flag.Bool("tail", true, "Append the reflection tail after the input ends")
	bypass := flag.Bool("bypass", false, "Render with the effect bypassed")
	flag.Parse()

	if *input == "" {
		die("missing -input")
	}

	params := skillet.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
		params = p
	}
	if !math.IsNaN(*height) {
		params.Height = skillet.ClampHeight(float32(*height))
	}

	in, sr, err := fitcommon.ReadWAV(*input)
	if err != nil {
		die("Error reading input: %v", err)
	}
	if !skillet.SupportsLayout(len(in), len(in)) {
		die("Unsupported channel count %d (mono or stereo only)", len(in))
	}
	if *sampleRate > 0 && *sampleRate != sr {
		in, err = fitcommon.ResamplePlanar(in, sr, *sampleRate)
		if err != nil {
			die("Error resampling input: %v", err)
		}
		sr = *sampleRate
	}

	opts := renderOptions{
		blockSize:  *blockSize,
		startH:     params.Height,
		endH:       params.Height,
		appendTail: *tail,
		bypassed:   *bypass,
	}
	if !math.IsNaN(*heightEnd) {
		opts.endH = skillet.ClampHeight(float32(*heightEnd))
	}

	fmt.Printf("Rendering %s (%d ch, %d Hz, %d frames), height %.3f -> %.3f...\n",
		*input, len(in), sr, len(in[0]), opts.startH, opts.endH)

	out, err := render(params, in, float64(sr), opts)
	if err != nil {
		die("Error rendering: %v", err)
	}

	if peak := fitcommon.Peak(out); peak > 1 {
		fmt.Printf("Warning: output peaks at %.2f dBFS and will clip\n", 20*math.Log10(peak))
	}
	if err := fitcommon.WriteWAV(*output, out, sr); err != nil {
		die("Error writing WAV: %v", err)
	}
	fmt.Printf("Wrote %s (%d frames, RMS %.1f dBFS)\n", *output, len(out[0]), 20*math.Log10(fitcommon.RMS(out[0])+1e-12))
}

type renderOptions struct {
	blockSize  int
	startH     float32
	endH       float32
	appendTail bool
	bypassed   bool
}

// render runs in through a fresh engine block by block, publishing the ramped
// height before each block the way a host automation lane would.
func render(params *skillet.Params, in [][]float32, sampleRate float64, opts renderOptions) ([][]float32, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("no input channels")
	}
	if opts.blockSize < 1 {
		return nil, fmt.Errorf("block size must be >= 1, got %d", opts.blockSize)
	}
	e, err := skillet.New(params)
	if err != nil {
		return nil, err
	}
	if err := e.Prepare(sampleRate, opts.blockSize, len(in)); err != nil {
		return nil, err
	}

	frames := len(in[0])
	total := frames
	if opts.appendTail {
		total += int(math.Ceil(math.Max(e.Floor().MaxDelaySamples(), e.Chest().MaxDelaySamples())))
	}

	out := make([][]float32, len(in))
	for ch := range out {
		out[ch] = make([]float32, total)
		copy(out[ch], in[ch])
	}

	blockDst := make([][]float32, len(in))
	for off := 0; off < total; off += opts.blockSize {
		end := off + opts.blockSize
		if end > total {
			end = total
		}
		pos := 0.0
		if frames > 1 {
			pos = math.Min(1, float64(off)/float64(frames-1))
		}
		h := opts.startH + float32(pos)*(opts.endH-opts.startH)
		e.SetHeight(h)
		for ch := range blockDst {
			blockDst[ch] = out[ch][off:end]
		}
		e.Process(blockDst, blockDst, opts.bypassed)
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
