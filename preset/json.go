package preset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cwbudde/algo-skillet/skillet"
)

// File is the JSON schema for skillet presets.
type File struct {
	Height     *float32           `json:"height"`
	BypassMode string             `json:"bypass_mode"`
	Floor      *ReflectionSetting `json:"floor"`
	Chest      *ReflectionSetting `json:"chest"`
	ChestBand  *BandSetting       `json:"chest_band"`
	Pinna      []PinnaSetting     `json:"pinna"`
}

// ReflectionSetting is a partial override of a reflection's delay bounds.
type ReflectionSetting struct {
	DefaultDelayMs *float64 `json:"default_delay_ms"`
	MinDelayMs     *float64 `json:"min_delay_ms"`
}

// BandSetting is a partial override of the chest band corners.
type BandSetting struct {
	HighpassHz *float64 `json:"highpass_hz"`
	LowpassHz  *float64 `json:"lowpass_hz"`
	Q          *float64 `json:"q"`
}

// PinnaSetting is a partial override of one pinna band. Index selects the
// band in processing order (0 and 1 are peaks, 2 is the high shelf).
type PinnaSetting struct {
	Index             int      `json:"index"`
	Kind              string   `json:"kind"`
	FreqHz            *float64 `json:"freq_hz"`
	Q                 *float64 `json:"q"`
	GainDBAtMaxHeight *float64 `json:"gain_db_at_max_height"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*skillet.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", path, err)
	}

	p := skillet.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *skillet.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.Height != nil {
		h := *f.Height
		if math.IsNaN(float64(h)) || h < -1 || h > 1 {
			return fmt.Errorf("height must be in [-1,1]")
		}
		dst.Height = h
	}
	if strings.TrimSpace(f.BypassMode) != "" {
		m, err := skillet.ParseBypassMode(f.BypassMode)
		if err != nil {
			return err
		}
		dst.Bypass = m
	}

	if err := applyReflection("floor", &dst.Floor, f.Floor); err != nil {
		return err
	}
	if err := applyReflection("chest", &dst.Chest, f.Chest); err != nil {
		return err
	}

	if f.ChestBand != nil {
		if v := f.ChestBand.HighpassHz; v != nil {
			if *v <= 0 {
				return fmt.Errorf("chest_band.highpass_hz must be > 0")
			}
			dst.ChestBand.HighpassHz = *v
		}
		if v := f.ChestBand.LowpassHz; v != nil {
			if *v <= 0 {
				return fmt.Errorf("chest_band.lowpass_hz must be > 0")
			}
			dst.ChestBand.LowpassHz = *v
		}
		if v := f.ChestBand.Q; v != nil {
			if *v <= 0 {
				return fmt.Errorf("chest_band.q must be > 0")
			}
			dst.ChestBand.Q = *v
		}
		if dst.ChestBand.HighpassHz >= dst.ChestBand.LowpassHz {
			return fmt.Errorf("chest_band.highpass_hz must be below lowpass_hz")
		}
	}

	for _, ps := range f.Pinna {
		if ps.Index < 0 || ps.Index >= skillet.NumPinnaBands {
			return fmt.Errorf("invalid pinna index %d (expected 0..%d)", ps.Index, skillet.NumPinnaBands-1)
		}
		band := &dst.Pinna[ps.Index]
		if strings.TrimSpace(ps.Kind) != "" {
			k, err := skillet.ParsePinnaKind(ps.Kind)
			if err != nil {
				return fmt.Errorf("pinna[%d]: %w", ps.Index, err)
			}
			band.Kind = k
		}
		if ps.FreqHz != nil {
			if *ps.FreqHz <= 0 {
				return fmt.Errorf("pinna[%d].freq_hz must be > 0", ps.Index)
			}
			band.FreqHz = *ps.FreqHz
		}
		if ps.Q != nil {
			if *ps.Q <= 0 {
				return fmt.Errorf("pinna[%d].q must be > 0", ps.Index)
			}
			band.Q = *ps.Q
		}
		if ps.GainDBAtMaxHeight != nil {
			if math.Abs(*ps.GainDBAtMaxHeight) > 24 {
				return fmt.Errorf("pinna[%d].gain_db_at_max_height must be within +/-24 dB", ps.Index)
			}
			band.GainDBAtMaxHeight = *ps.GainDBAtMaxHeight
		}
	}

	return dst.Validate()
}

func applyReflection(name string, dst *skillet.ReflectionParams, s *ReflectionSetting) error {
	if s == nil {
		return nil
	}
	if s.DefaultDelayMs != nil {
		if *s.DefaultDelayMs <= 0 || *s.DefaultDelayMs > 100 {
			return fmt.Errorf("%s.default_delay_ms must be in (0,100]", name)
		}
		dst.DefaultDelayMs = *s.DefaultDelayMs
	}
	if s.MinDelayMs != nil {
		if *s.MinDelayMs < 0 {
			return fmt.Errorf("%s.min_delay_ms must be >= 0", name)
		}
		dst.MinDelayMs = *s.MinDelayMs
	}
	if dst.MinDelayMs > dst.DefaultDelayMs {
		return fmt.Errorf("%s.min_delay_ms must not exceed default_delay_ms", name)
	}
	return nil
}

// ToFile converts params back into a complete preset file.
func ToFile(p *skillet.Params) *File {
	h := p.Height
	f := &File{
		Height:     &h,
		BypassMode: p.Bypass.String(),
		Floor:      reflectionSetting(p.Floor),
		Chest:      reflectionSetting(p.Chest),
		ChestBand: &BandSetting{
			HighpassHz: ptr(p.ChestBand.HighpassHz),
			LowpassHz:  ptr(p.ChestBand.LowpassHz),
			Q:          ptr(p.ChestBand.Q),
		},
	}
	for i, b := range p.Pinna {
		f.Pinna = append(f.Pinna, PinnaSetting{
			Index:             i,
			Kind:              b.Kind.String(),
			FreqHz:            ptr(b.FreqHz),
			Q:                 ptr(b.Q),
			GainDBAtMaxHeight: ptr(b.GainDBAtMaxHeight),
		})
	}
	return f
}

// SaveJSON writes params as an indented preset file.
func SaveJSON(path string, p *skillet.Params) error {
	b, err := json.MarshalIndent(ToFile(p), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func reflectionSetting(r skillet.ReflectionParams) *ReflectionSetting {
	return &ReflectionSetting{
		DefaultDelayMs: ptr(r.DefaultDelayMs),
		MinDelayMs:     ptr(r.MinDelayMs),
	}
}

func ptr[T any](v T) *T { return &v }
