package main

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-skillet/skillet"
)

// loopSource feeds oto: it loops an interleaved clip through the engine and
// encodes the result as little-endian float32. Read runs on oto's goroutine
// and never blocks; the UI talks to it through SetHeight and the atomic
// fields only.
type loopSource struct {
	engine   *skillet.Engine
	clip     []float32 // interleaved
	channels int

	pos      int
	block    []float32
	out      []byte
	pending  []byte
	bypassed atomic.Bool
	restart  atomic.Bool
	peakBits atomic.Uint64

	// engine state published after each block, as float64 bits
	floorMsBits   atomic.Uint64
	chestMsBits   atomic.Uint64
	wetGainDBBits atomic.Uint64
	pinnaDBBits   [skillet.NumPinnaBands]atomic.Uint64
}

func newLoopSource(e *skillet.Engine, clip []float32, channels int) *loopSource {
	return &loopSource{
		engine:   e,
		clip:     clip,
		channels: channels,
		block:    make([]float32, e.BlockSize()*channels),
		out:      make([]byte, e.BlockSize()*channels*4),
	}
}

func (s *loopSource) Read(p []byte) (int, error) {
	if s.restart.CompareAndSwap(true, false) {
		s.pos = 0
		s.pending = nil
		s.engine.Reset()
	}

	n := 0
	for n < len(p) {
		if len(s.pending) == 0 {
			s.render()
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

// render fills one engine block from the clip and queues its bytes.
func (s *loopSource) render() {
	frames := len(s.block) / s.channels
	for i := 0; i < frames; i++ {
		for ch := 0; ch < s.channels; ch++ {
			var v float32
			if len(s.clip) > 0 {
				v = s.clip[s.pos+ch]
			}
			s.block[i*s.channels+ch] = v
		}
		if len(s.clip) > 0 {
			s.pos += s.channels
			if s.pos >= len(s.clip) {
				s.pos = 0
			}
		}
	}

	s.engine.ProcessInterleaved(s.block, s.channels, s.bypassed.Load())

	var peak float64
	buf := s.out
	for i, v := range s.block {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	s.peakBits.Store(math.Float64bits(peak))
	s.publish()
	s.pending = buf
}

func (s *loopSource) publish() {
	s.floorMsBits.Store(math.Float64bits(s.engine.Floor().DelayMs()))
	s.chestMsBits.Store(math.Float64bits(s.engine.Chest().DelayMs()))
	s.wetGainDBBits.Store(math.Float64bits(20 * math.Log10(float64(s.engine.Floor().WetGain())+1e-12)))
	for i := range s.pinnaDBBits {
		s.pinnaDBBits[i].Store(math.Float64bits(s.engine.Pinna(i).GainDB()))
	}
}

// status is what the UI shows of the engine as of the last rendered block.
type status struct {
	floorMs   float64
	chestMs   float64
	wetGainDB float64
	pinnaDB   [skillet.NumPinnaBands]float64
}

func (s *loopSource) status() status {
	st := status{
		floorMs:   math.Float64frombits(s.floorMsBits.Load()),
		chestMs:   math.Float64frombits(s.chestMsBits.Load()),
		wetGainDB: math.Float64frombits(s.wetGainDBBits.Load()),
	}
	for i := range st.pinnaDB {
		st.pinnaDB[i] = math.Float64frombits(s.pinnaDBBits[i].Load())
	}
	return st
}

func (s *loopSource) SetHeight(h float32) { s.engine.SetHeight(skillet.ClampHeight(h)) }

func (s *loopSource) Height() float32 { return s.engine.Height() }

func (s *loopSource) SetBypassed(b bool) { s.bypassed.Store(b) }

func (s *loopSource) Bypassed() bool { return s.bypassed.Load() }

// Peak returns the absolute peak of the last rendered block.
func (s *loopSource) Peak() float64 { return math.Float64frombits(s.peakBits.Load()) }

// Restart asks the audio goroutine to rewind the clip and clear the
// reflections before its next block.
func (s *loopSource) Restart() { s.restart.Store(true) }
