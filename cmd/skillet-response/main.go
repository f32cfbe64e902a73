package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-skillet/analysis"
	"github.com/cwbudde/algo-skillet/internal/fitcommon"
	"github.com/cwbudde/algo-skillet/preset"
	"github.com/cwbudde/algo-skillet/skillet"
)

type band struct {
	name string
	loHz float64
	hiHz float64
}

var bands = []band{
	{"bass (20-300Hz)", 20, 300},
	{"low-mid (300-1kHz)", 300, 1000},
	{"chest (760-2.6kHz)", 760, 2600},
	{"hi-mid (3-6kHz)", 3000, 6000},
	{"pinna-1 (7-9kHz)", 7000, 9000},
	{"pinna-2 (9.5-10.5kHz)", 9500, 10500},
	{"air (12-20kHz)", 12000, 20000},
}

type heightResponse struct {
	Height      float32                  `json:"height"`
	FloorMs     float64                  `json:"floor_delay_ms"`
	ChestMs     float64                  `json:"chest_delay_ms"`
	WetGainDB   float64                  `json:"wet_gain_db"`
	Bands       map[string]float64       `json:"bands_db"`
	Response    []analysis.ResponsePoint `json:"response,omitempty"`
	TailSeconds float64                  `json:"tail_seconds"`
}

func main() {
	heightsRaw := flag.String("heights", "-1,-0.5,0,0.5,1", "Comma-separated heights in [-1,1]")
	presetPath := flag.String("preset", "", "Preset JSON path (optional)")
	sampleRate := flag.Float64("sample-rate", 48000, "Sample rate in Hz")
	fftSize := flag.Int("fft", 8192, "FFT size (power of two)")
	jsonOut := flag.Bool("json", false, "Print responses as JSON")
	full := flag.Bool("full", false, "Include every FFT bin in JSON output")
	flag.Parse()

	heights, err := fitcommon.ParseHeights(*heightsRaw)
	if err != nil {
		die("invalid -heights: %v", err)
	}
	params := skillet.NewDefaultParams()
	if *presetPath != "" {
		if params, err = preset.LoadJSON(*presetPath); err != nil {
			die("failed to load preset: %v", err)
		}
	}

	results := make([]heightResponse, 0, len(heights))
	for _, h := range heights {
		r, err := measure(params, h, *sampleRate, *fftSize)
		if err != nil {
			die("height %.3f: %v", h, err)
		}
		if !*full {
			r.Response = nil
		}
		results = append(results, r)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Magnitude response @ %.0f Hz, FFT %d\n\n", *sampleRate, *fftSize)
	fmt.Printf("%-24s", "band")
	for _, r := range results {
		fmt.Printf("  h=%+5.2f", r.Height)
	}
	fmt.Println()
	fmt.Println(strings.Repeat("─", 24+10*len(results)))
	for _, b := range bands {
		fmt.Printf("%-24s", b.name)
		for _, r := range results {
			fmt.Printf("  %+7.2f", r.Bands[b.name])
		}
		fmt.Println()
	}
	fmt.Println()
	for _, r := range results {
		fmt.Printf("h=%+5.2f  floor=%6.3f ms  chest=%6.3f ms  wet=%7.1f dB  tail=%.4f s\n",
			r.Height, r.FloorMs, r.ChestMs, r.WetGainDB, r.TailSeconds)
	}
}

func measure(params *skillet.Params, height float32, sampleRate float64, fftSize int) (heightResponse, error) {
	if params == nil {
		params = skillet.NewDefaultParams()
	}
	ir, err := analysis.ImpulseResponse(params, height, sampleRate, fftSize)
	if err != nil {
		return heightResponse{}, err
	}
	resp, err := analysis.MagnitudeResponse(ir, sampleRate, fftSize)
	if err != nil {
		return heightResponse{}, err
	}

	p := *params
	p.Height = height
	e, err := skillet.New(&p)
	if err != nil {
		return heightResponse{}, err
	}
	if err := e.Prepare(sampleRate, 64, 1); err != nil {
		return heightResponse{}, err
	}

	out := heightResponse{
		Height:      height,
		FloorMs:     e.Floor().DelayMs(),
		ChestMs:     e.Chest().DelayMs(),
		WetGainDB:   -50*(float64(height)+1) - 6,
		Bands:       make(map[string]float64, len(bands)),
		Response:    resp,
		TailSeconds: e.TailSeconds(),
	}
	for _, b := range bands {
		out.Bands[b.name] = analysis.BandAverageDB(resp, b.loHz, b.hiHz)
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
