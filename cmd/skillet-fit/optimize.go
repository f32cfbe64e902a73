package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-skillet/analysis"
	"github.com/cwbudde/algo-skillet/internal/fitcommon"
	"github.com/cwbudde/algo-skillet/skillet"
)

type fitConfig struct {
	sampleRate int
	blockSize  int
	gridSteps  int
	variant    string
	pop        int
	iters      int
	seed       int64
	report     int
}

type evaluation struct {
	Height  float32          `json:"height"`
	Metrics analysis.Metrics `json:"metrics"`
}

type fitResult struct {
	Best  evaluation   `json:"best"`
	Grid  []evaluation `json:"grid"`
	Evals int          `json:"evals"`
}

// fitHeight searches the height whose rendering of dry best matches ref.
// A coarse grid seeds the best score, then mayfly refines over [-1, 1].
func fitHeight(params *skillet.Params, dry []float64, ref []float64, cfg fitConfig) (*fitResult, error) {
	if len(dry) == 0 || len(ref) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	eval := func(h float32) (evaluation, error) {
		wet, err := renderAtHeight(params, dry, h, cfg.sampleRate, cfg.blockSize)
		if err != nil {
			return evaluation{}, err
		}
		return evaluation{Height: h, Metrics: analysis.Compare(ref, wet, cfg.sampleRate)}, nil
	}

	res := &fitResult{Best: evaluation{Metrics: analysis.Metrics{Score: math.Inf(1)}}}
	consider := func(e evaluation) {
		res.Evals++
		if e.Metrics.Score < res.Best.Metrics.Score {
			res.Best = e
			if cfg.report > 0 {
				fmt.Printf("eval %4d  height=%+.4f  score=%.5f\n", res.Evals, e.Height, e.Metrics.Score)
			}
		}
	}

	if cfg.gridSteps > 1 {
		for i := 0; i < cfg.gridSteps; i++ {
			h := float32(-1 + 2*float64(i)/float64(cfg.gridSteps-1))
			e, err := eval(h)
			if err != nil {
				return nil, err
			}
			res.Grid = append(res.Grid, e)
			consider(e)
		}
	}

	if cfg.iters > 0 {
		mcfg, err := newMayflyConfig(cfg.variant, cfg.pop, 1, cfg.iters)
		if err != nil {
			return nil, err
		}
		var evalErr error
		mcfg.Rand = rand.New(rand.NewSource(cfg.seed))
		mcfg.ObjectiveFunc = func(pos []float64) float64 {
			h := float32(2*fitcommon.Clamp(pos[0], 0, 1) - 1)
			e, err := eval(h)
			if err != nil {
				evalErr = err
				return math.Inf(1)
			}
			consider(e)
			return e.Metrics.Score
		}
		if _, err := runMayfly(mcfg); err != nil {
			return nil, err
		}
		if evalErr != nil {
			return nil, evalErr
		}
	}

	if math.IsInf(res.Best.Metrics.Score, 1) {
		return nil, fmt.Errorf("no evaluations ran")
	}
	return res, nil
}

func renderAtHeight(params *skillet.Params, dry []float64, height float32, sampleRate int, blockSize int) ([]float64, error) {
	p := *params
	p.Height = height
	e, err := skillet.New(&p)
	if err != nil {
		return nil, err
	}
	if err := e.Prepare(float64(sampleRate), blockSize, 1); err != nil {
		return nil, err
	}
	buf := make([]float32, len(dry))
	for i, v := range dry {
		buf[i] = float32(v)
	}
	planar := [][]float32{buf}
	e.Process(planar, planar, false)
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
