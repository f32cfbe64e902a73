package skillet

import (
	"fmt"
	"math"
	"strings"
)

// BypassMode selects what the engine does with its internal state while the
// host has the effect bypassed. Output always equals input while bypassed.
type BypassMode int

const (
	// BypassRunning keeps the pinna bands and both reflections running on a
	// shadow copy of the input so un-bypassing never replays stale history.
	BypassRunning BypassMode = iota
	// BypassFrozen skips all processing; delay history and filter state keep
	// whatever they held when bypass started.
	BypassFrozen
)

func (m BypassMode) String() string {
	switch m {
	case BypassRunning:
		return "running"
	case BypassFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("BypassMode(%d)", int(m))
	}
}

// ParseBypassMode parses "running" or "frozen".
func ParseBypassMode(s string) (BypassMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running", "":
		return BypassRunning, nil
	case "frozen":
		return BypassFrozen, nil
	default:
		return BypassRunning, fmt.Errorf("unknown bypass mode %q (expected running or frozen)", s)
	}
}

// ReflectionParams bounds a reflection's delay.
type ReflectionParams struct {
	DefaultDelayMs float64 // delay at height 0
	MinDelayMs     float64 // delay at the height extreme that shortens it
}

// BandParams holds the fixed corners of a band-limited reflection.
type BandParams struct {
	HighpassHz float64
	LowpassHz  float64
	Q          float64
}

// PinnaKind is the filter shape of a pinna band.
type PinnaKind int

const (
	PinnaPeak PinnaKind = iota
	PinnaHighShelf
)

func (k PinnaKind) String() string {
	switch k {
	case PinnaPeak:
		return "peak"
	case PinnaHighShelf:
		return "high_shelf"
	default:
		return fmt.Sprintf("PinnaKind(%d)", int(k))
	}
}

// ParsePinnaKind parses "peak" or "high_shelf".
func ParsePinnaKind(s string) (PinnaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "peak":
		return PinnaPeak, nil
	case "high_shelf", "highshelf":
		return PinnaHighShelf, nil
	default:
		return PinnaPeak, fmt.Errorf("unknown pinna band kind %q (expected peak or high_shelf)", s)
	}
}

// PinnaParams describes one pinna band. Gain at height h is h*GainDBAtMaxHeight.
type PinnaParams struct {
	Kind              PinnaKind
	FreqHz            float64
	Q                 float64
	GainDBAtMaxHeight float64
}

// NumPinnaBands is the fixed number of pinna bands.
const NumPinnaBands = 3

// Params holds the structural configuration of an engine plus its initial height.
type Params struct {
	Height float32
	Bypass BypassMode

	Floor     ReflectionParams
	Chest     ReflectionParams
	ChestBand BandParams

	// Applied in order: two peaks, then the high shelf.
	Pinna [NumPinnaBands]PinnaParams
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		Height: 0,
		Bypass: BypassRunning,
		Floor: ReflectionParams{
			DefaultDelayMs: 10.3,
			MinDelayMs:     0.1,
		},
		Chest: ReflectionParams{
			DefaultDelayMs: 2.0,
			MinDelayMs:     0.0,
		},
		ChestBand: BandParams{
			HighpassHz: 760,
			LowpassHz:  2600,
			Q:          0.707,
		},
		Pinna: [NumPinnaBands]PinnaParams{
			{Kind: PinnaPeak, FreqHz: 8000, Q: 1.94, GainDBAtMaxHeight: 9.76},
			{Kind: PinnaPeak, FreqHz: 10000, Q: 15.3, GainDBAtMaxHeight: 4.83},
			{Kind: PinnaHighShelf, FreqHz: 3450, Q: 0.71, GainDBAtMaxHeight: 2.6},
		},
	}
}

// Validate checks structural values. Height is checked for finiteness only;
// range limiting is the caller's job (see ClampHeight).
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil params", ErrInvalidConfig)
	}
	if !isFinite(float64(p.Height)) {
		return fmt.Errorf("%w: height must be finite", ErrInvalidConfig)
	}
	if p.Bypass != BypassRunning && p.Bypass != BypassFrozen {
		return fmt.Errorf("%w: bypass mode %v", ErrInvalidConfig, p.Bypass)
	}
	if err := p.Floor.validate("floor"); err != nil {
		return err
	}
	if err := p.Chest.validate("chest"); err != nil {
		return err
	}
	b := p.ChestBand
	if !(b.HighpassHz > 0) || !(b.LowpassHz > 0) || !(b.Q > 0) || !isFinite(b.HighpassHz) || !isFinite(b.LowpassHz) || !isFinite(b.Q) {
		return fmt.Errorf("%w: chest band frequencies and Q must be > 0", ErrInvalidConfig)
	}
	for i, pb := range p.Pinna {
		if pb.Kind != PinnaPeak && pb.Kind != PinnaHighShelf {
			return fmt.Errorf("%w: pinna[%d] kind %v", ErrInvalidConfig, i, pb.Kind)
		}
		if !(pb.FreqHz > 0) || !(pb.Q > 0) || !isFinite(pb.FreqHz) || !isFinite(pb.Q) {
			return fmt.Errorf("%w: pinna[%d] frequency and Q must be > 0", ErrInvalidConfig, i)
		}
		if !isFinite(pb.GainDBAtMaxHeight) {
			return fmt.Errorf("%w: pinna[%d] gain must be finite", ErrInvalidConfig, i)
		}
	}
	return nil
}

func (r ReflectionParams) validate(name string) error {
	if !isFinite(r.DefaultDelayMs) || !isFinite(r.MinDelayMs) {
		return fmt.Errorf("%w: %s delays must be finite", ErrInvalidConfig, name)
	}
	if r.MinDelayMs < 0 {
		return fmt.Errorf("%w: %s min_delay_ms must be >= 0", ErrInvalidConfig, name)
	}
	if r.DefaultDelayMs < r.MinDelayMs {
		return fmt.Errorf("%w: %s default_delay_ms must be >= min_delay_ms", ErrInvalidConfig, name)
	}
	return nil
}

// ClampHeight limits h to [-1, 1]. NaN maps to 0.
func ClampHeight(h float32) float32 {
	switch {
	case h != h:
		return 0
	case h < -1:
		return -1
	case h > 1:
		return 1
	}
	return h
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
