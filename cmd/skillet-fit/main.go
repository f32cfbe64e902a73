package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-skillet/internal/fitcommon"
	"github.com/cwbudde/algo-skillet/preset"
	"github.com/cwbudde/algo-skillet/skillet"
)

func main() {
	dryPath := flag.String("dry", "", "Dry (unprocessed) WAV path")
	referencePath := flag.String("reference", "", "Reference WAV path: the dry file processed at an unknown height")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional)")
	outputPreset := flag.String("output-preset", "out/fitted.json", "Path to write the fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	maxSeconds := flag.Float64("max-seconds", 3.0, "Only fit the first N seconds of audio")
	blockSize := flag.Int("render-block-size", 512, "Audio render block size for candidate evaluation")
	gridSteps := flag.Int("grid-steps", 21, "Coarse grid points over [-1,1] evaluated before Mayfly (0 disables)")
	seed := flag.Int64("seed", 1, "Random seed")
	verbose := flag.Bool("verbose", true, "Print each improvement")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size")
	mayflyIters := flag.Int("mayfly-iters", 20, "Mayfly iterations (0 disables)")
	flag.Parse()

	if *dryPath == "" || *referencePath == "" {
		die("-dry and -reference are required")
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *blockSize < 1 {
		die("render-block-size must be >= 1")
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}

	params := skillet.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
		params = p
	}

	dry, err := loadMono(*dryPath, *sampleRate, *maxSeconds)
	if err != nil {
		die("failed to read dry input: %v", err)
	}
	ref, err := loadMono(*referencePath, *sampleRate, *maxSeconds)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	fmt.Printf("Fitting height: dry=%s reference=%s (%d frames @ %d Hz, mayfly %s pop=%d iters=%d)\n",
		*dryPath, *referencePath, len(dry), *sampleRate, *mayflyVariant, *mayflyPop, *mayflyIters)

	cfg := fitConfig{
		sampleRate: *sampleRate,
		blockSize:  *blockSize,
		gridSteps:  *gridSteps,
		variant:    *mayflyVariant,
		pop:        *mayflyPop,
		iters:      *mayflyIters,
		seed:       *seed,
	}
	if *verbose {
		cfg.report = 1
	}
	res, err := fitHeight(params, dry, ref, cfg)
	if err != nil {
		die("fit failed: %v", err)
	}

	fitted := *params
	fitted.Height = res.Best.Height
	if err := os.MkdirAll(filepath.Dir(*outputPreset), 0o755); err != nil {
		die("failed to create output dir: %v", err)
	}
	if err := preset.SaveJSON(*outputPreset, &fitted); err != nil {
		die("failed to write preset: %v", err)
	}

	rp := *reportPath
	if rp == "" {
		rp = *outputPreset + ".report.json"
	}
	if err := writeReport(rp, res); err != nil {
		die("failed to write report: %v", err)
	}

	fmt.Printf("Best height: %+.4f  score=%.5f  similarity=%.2f%%  evals=%d\n",
		res.Best.Height, res.Best.Metrics.Score, res.Best.Metrics.Similarity*100, res.Evals)
	fmt.Printf("Wrote %s and %s\n", *outputPreset, rp)
}

func loadMono(path string, sampleRate int, maxSeconds float64) ([]float64, error) {
	x, sr, err := fitcommon.ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	x, err = fitcommon.ResampleIfNeeded(x, sr, sampleRate)
	if err != nil {
		return nil, err
	}
	if maxSeconds > 0 {
		x = x[:fitcommon.MinInt(len(x), int(maxSeconds*float64(sampleRate)))]
	}
	return x, nil
}

func writeReport(path string, res *fitResult) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
