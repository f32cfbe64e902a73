package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-skillet/internal/fitcommon"
	"github.com/cwbudde/algo-skillet/preset"
	"github.com/cwbudde/algo-skillet/skillet"
)

func main() {
	input := flag.String("input", "", "WAV file to loop (mono or stereo)")
	presetPath := flag.String("preset", "", "Preset JSON path (optional)")
	height := flag.Float64("height", 0, "Initial height in [-1,1]")
	blockSize := flag.Int("block", 256, "Engine block size in frames")
	bufferMs := flag.Int("buffer-ms", 40, "Audio device buffer in milliseconds")
	flag.Parse()

	if *input == "" {
		die("missing -input")
	}
	params := skillet.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
		params = p
	}
	params.Height = skillet.ClampHeight(float32(*height))

	planar, sr, err := fitcommon.ReadWAV(*input)
	if err != nil {
		die("failed to read input: %v", err)
	}
	channels := len(planar)
	if !skillet.SupportsLayout(channels, channels) {
		die("unsupported channel count %d (mono or stereo only)", channels)
	}

	e, err := skillet.New(params)
	if err != nil {
		die("engine: %v", err)
	}
	if err := e.Prepare(float64(sr), *blockSize, channels); err != nil {
		die("prepare: %v", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sr,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(*bufferMs) * time.Millisecond,
	})
	if err != nil {
		die("audio device: %v", err)
	}
	<-ready

	src := newLoopSource(e, fitcommon.Interleave(planar), channels)
	player := ctx.NewPlayer(src)
	player.Play()
	defer player.Close()

	p := tea.NewProgram(newModel(src, filepath.Base(*input), sr))
	if _, err := p.Run(); err != nil {
		die("ui: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
