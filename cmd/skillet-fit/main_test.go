package main

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-skillet/skillet"
)

func TestNewMayflyConfig(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{variant: "ma"},
		{variant: "desma"},
		{variant: "olce"},
		{variant: "eobbma"},
		{variant: "gsasma"},
		{variant: "mpma"},
		{variant: "aoblmoa"},
		{variant: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cfg, err := newMayflyConfig(tt.variant, 10, 1, 20)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("newMayflyConfig(%q) expected error", tt.variant)
				}
				return
			}
			if err != nil {
				t.Fatalf("newMayflyConfig(%q) unexpected error: %v", tt.variant, err)
			}
			if cfg.ProblemSize != 1 {
				t.Fatalf("ProblemSize = %d, want 1", cfg.ProblemSize)
			}
			if cfg.NPop != 10 {
				t.Fatalf("NPop = %d, want 10", cfg.NPop)
			}
			if cfg.MaxIterations != 20 {
				t.Fatalf("MaxIterations = %d, want 20", cfg.MaxIterations)
			}
		})
	}
}

func TestFitHeightGridRecoversKnownHeight(t *testing.T) {
	const sr = 48000
	dry := noise(sr/4, 5)
	params := skillet.NewDefaultParams()
	ref, err := renderAtHeight(params, dry, 0.3, sr, 256)
	if err != nil {
		t.Fatalf("renderAtHeight: %v", err)
	}

	res, err := fitHeight(params, dry, ref, fitConfig{
		sampleRate: sr,
		blockSize:  256,
		gridSteps:  21,
	})
	if err != nil {
		t.Fatalf("fitHeight: %v", err)
	}
	if math.Abs(float64(res.Best.Height)-0.3) > 0.051 {
		t.Fatalf("best height = %f, want ~0.3", res.Best.Height)
	}
	if res.Evals != 21 || len(res.Grid) != 21 {
		t.Fatalf("expected 21 grid evaluations, got evals=%d grid=%d", res.Evals, len(res.Grid))
	}
}

func TestFitHeightMayflyNeverWorsensGrid(t *testing.T) {
	const sr = 48000
	dry := noise(sr/8, 9)
	params := skillet.NewDefaultParams()
	ref, err := renderAtHeight(params, dry, -0.45, sr, 256)
	if err != nil {
		t.Fatalf("renderAtHeight: %v", err)
	}

	grid, err := fitHeight(params, dry, ref, fitConfig{sampleRate: sr, blockSize: 256, gridSteps: 11})
	if err != nil {
		t.Fatalf("grid fit: %v", err)
	}
	full, err := fitHeight(params, dry, ref, fitConfig{
		sampleRate: sr,
		blockSize:  256,
		gridSteps:  11,
		variant:    "desma",
		pop:        4,
		iters:      5,
		seed:       3,
	})
	if err != nil {
		t.Fatalf("mayfly fit: %v", err)
	}
	if full.Best.Metrics.Score > grid.Best.Metrics.Score {
		t.Fatalf("mayfly refinement worsened score: %f > %f", full.Best.Metrics.Score, grid.Best.Metrics.Score)
	}
	if full.Evals <= grid.Evals {
		t.Fatalf("expected mayfly to add evaluations: %d <= %d", full.Evals, grid.Evals)
	}
}

func TestFitHeightRejectsEmptyInput(t *testing.T) {
	if _, err := fitHeight(skillet.NewDefaultParams(), nil, []float64{1}, fitConfig{sampleRate: 48000, blockSize: 64, gridSteps: 3}); err == nil {
		t.Fatalf("expected error for empty dry input")
	}
}

func noise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * (rng.Float64()*2 - 1)
	}
	return out
}
