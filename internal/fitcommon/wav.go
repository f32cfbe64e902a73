package fitcommon

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAV decodes path into planar float32 channels.
func ReadWAV(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	return Deinterleave(buf.Data, buf.Format.NumChannels), buf.Format.SampleRate, nil
}

// ReadWAVMono decodes path and averages all channels.
func ReadWAVMono(path string) ([]float64, int, error) {
	planar, sr, err := ReadWAV(path)
	if err != nil {
		return nil, 0, err
	}
	return MixToMono64(planar), sr, nil
}

func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// ResamplePlanar resamples every channel independently.
func ResamplePlanar(in [][]float32, fromRate int, toRate int) ([][]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	out := make([][]float32, len(in))
	for ch, x := range in {
		x64 := make([]float64, len(x))
		for i, v := range x {
			x64[i] = float64(v)
		}
		y, err := ResampleIfNeeded(x64, fromRate, toRate)
		if err != nil {
			return nil, err
		}
		out[ch] = make([]float32, len(y))
		for i, v := range y {
			out[ch][i] = float32(v)
		}
	}
	return out, nil
}

// WriteWAV writes planar channels as 16-bit PCM.
func WriteWAV(path string, planar [][]float32, sampleRate int) error {
	if len(planar) == 0 {
		return fmt.Errorf("no channels to write")
	}
	for ch := 1; ch < len(planar); ch++ {
		if len(planar[ch]) != len(planar[0]) {
			return fmt.Errorf("channel %d length mismatch: %d vs %d", ch, len(planar[ch]), len(planar[0]))
		}
	}
	return WriteInterleavedWAV(path, Interleave(planar), len(planar), sampleRate)
}

func WriteInterleavedWAV(path string, samples []float32, channels int, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

func Interleave(planar [][]float32) []float32 {
	if len(planar) == 0 {
		return nil
	}
	ch := len(planar)
	frames := len(planar[0])
	out := make([]float32, frames*ch)
	for c, x := range planar {
		for i := 0; i < frames && i < len(x); i++ {
			out[i*ch+c] = x[i]
		}
	}
	return out
}

func Deinterleave(data []float32, channels int) [][]float32 {
	if channels < 1 {
		return nil
	}
	frames := len(data) / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
		for i := 0; i < frames; i++ {
			out[c][i] = data[i*channels+c]
		}
	}
	return out
}

func MixToMono64(planar [][]float32) []float64 {
	if len(planar) == 0 {
		return nil
	}
	frames := len(planar[0])
	out := make([]float64, frames)
	scale := 1.0 / float64(len(planar))
	for _, x := range planar {
		for i := 0; i < frames && i < len(x); i++ {
			out[i] += float64(x[i]) * scale
		}
	}
	return out
}

func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns the largest absolute sample across all channels.
func Peak(planar [][]float32) float64 {
	var peak float64
	for _, x := range planar {
		for _, v := range x {
			if a := math.Abs(float64(v)); a > peak {
				peak = a
			}
		}
	}
	return peak
}
