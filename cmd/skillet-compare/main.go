package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-skillet/analysis"
	"github.com/cwbudde/algo-skillet/internal/fitcommon"
	"github.com/cwbudde/algo-skillet/preset"
	"github.com/cwbudde/algo-skillet/skillet"
)

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render the candidate from -dry")
	dryPath := flag.String("dry", "", "Dry WAV to process when no candidate is given")
	presetPath := flag.String("preset", "", "Preset JSON path for the rendered candidate (optional)")
	height := flag.Float64("height", 0, "Height in [-1,1] for the rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *referencePath == "" {
		die("missing -reference")
	}
	ref, err := loadMono(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	switch {
	case *candidatePath != "":
		cand, err = loadMono(*candidatePath, *sampleRate)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
	case *dryPath != "":
		params := skillet.NewDefaultParams()
		if *presetPath != "" {
			if params, err = preset.LoadJSON(*presetPath); err != nil {
				die("failed to load preset: %v", err)
			}
		}
		dry, err := loadMono(*dryPath, *sampleRate)
		if err != nil {
			die("failed to read dry input: %v", err)
		}
		wet, err := renderCandidate(params, dry, float32(fitcommon.Clamp(*height, -1, 1)), *sampleRate)
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		cand = wet
		if *writeCandidate != "" {
			if err := fitcommon.WriteWAV(*writeCandidate, [][]float32{toFloat32(wet)}, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
	default:
		die("need -candidate or -dry")
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Component        Raw          Norm   Weight  Contribution\n")
	fmt.Printf("─────────────────────────────────────────────────────────\n")
	printComp := func(name string, raw string, norm, weight float64, dominant bool) {
		marker := ""
		if dominant {
			marker = " ◄"
		}
		fmt.Printf("%-16s %-12s %5.1f%%  ×%.2f   → %.4f%s\n", name, raw, norm*100, weight, norm*weight, marker)
	}
	printComp("Time RMSE", fmt.Sprintf("%.6f", metrics.TimeRMSE), metrics.TimeNorm, analysis.WeightTime, metrics.Dominant == "time")
	printComp("Envelope RMSE", fmt.Sprintf("%.1f dB", metrics.EnvelopeRMSEDB), metrics.EnvelopeNorm, analysis.WeightEnvelope, metrics.Dominant == "envelope")
	printComp("Spectral RMSE", fmt.Sprintf("%.1f dB", metrics.SpectralRMSEDB), metrics.SpectralNorm, analysis.WeightSpectral, metrics.Dominant == "spectral")
	fmt.Printf("─────────────────────────────────────────────────────────\n")
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
	fmt.Printf("Dominant factor:  %s\n", metrics.Dominant)
}

func loadMono(path string, sampleRate int) ([]float64, error) {
	x, sr, err := fitcommon.ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	return fitcommon.ResampleIfNeeded(x, sr, sampleRate)
}

// renderCandidate processes a mono dry signal at a fixed height.
func renderCandidate(params *skillet.Params, dry []float64, height float32, sampleRate int) ([]float64, error) {
	p := *params
	p.Height = height
	e, err := skillet.New(&p)
	if err != nil {
		return nil, err
	}
	const block = 512
	if err := e.Prepare(float64(sampleRate), block, 1); err != nil {
		return nil, err
	}
	buf := toFloat32(dry)
	planar := [][]float32{buf}
	e.Process(planar, planar, false)
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nil
}

func toFloat32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
