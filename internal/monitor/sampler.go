package monitor

import (
	"math"
	"time"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/window"
)

const (
	frameWindowCap = 60
	// ~2s of samples at 60 fps.
	peakWindowCap = 120
)

// frameSampler derives FPS and frame time from the timestamps of frames
// that were actually rendered. Callers must report timestamps in
// increasing order and never for skipped frames.
type frameSampler struct {
	frameTimes *window.Window
	peaks      *window.Window

	lastRender time.Time
	primed     bool

	frameTimeMs float64
	fps         float64
}

func newFrameSampler() *frameSampler {
	return &frameSampler{
		frameTimes: window.MustNew(frameWindowCap),
		peaks:      window.MustNew(peakWindowCap),
	}
}

// record ingests one render timestamp. The first call only seeds the
// previous timestamp; there is no delta yet and deriving one would divide
// by zero.
func (s *frameSampler) record(now time.Time) {
	if !s.primed {
		s.lastRender = now
		s.primed = true
		return
	}

	deltaMs := float64(now.Sub(s.lastRender)) / float64(time.Millisecond)
	s.lastRender = now
	s.frameTimes.Push(deltaMs)

	mean := s.frameTimes.Mean()
	if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		// Keep the last good values rather than publishing garbage.
		return
	}
	s.frameTimeMs = mean
	s.fps = 1000 / mean
	s.peaks.Push(s.fps)
}

// peakFPS is the running max of recently derived FPS values.
func (s *frameSampler) peakFPS() float64 {
	return s.peaks.Max()
}
