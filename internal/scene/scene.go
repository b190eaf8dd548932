// Package scene provides the synthetic render workload the monitor
// measures. It stands in for a real 3D renderer: it exposes draw-call,
// triangle, and texture counters and burns a bounded amount of CPU per
// frame proportional to scene complexity and resolution.
package scene

import (
	"math"
	"sync/atomic"
)

// Stats are the per-frame complexity counters a renderer would report.
type Stats struct {
	DrawCalls int `json:"draw_calls"`
	Triangles int `json:"triangles"`
	Textures  int `json:"textures"`
}

// Config sets the scene complexity. Zero fields use defaults.
type Config struct {
	DrawCalls int
	Triangles int
	Textures  int
}

const (
	defaultDrawCalls = 96
	defaultTriangles = 350_000
	defaultTextures  = 12

	// Upper bound on per-frame spin iterations so a misconfigured scene
	// cannot stall the render loop.
	maxWorkIterations = 200_000
)

// Scene is a deterministic stand-in workload. Render is called from the
// render loop only; Stats may be read from any goroutine.
type Scene struct {
	stats  Stats
	frames atomic.Uint64
	sink   atomic.Uint64
}

// New builds a scene, applying defaults for unset complexity values.
func New(cfg Config) *Scene {
	s := &Scene{stats: Stats{
		DrawCalls: defaultDrawCalls,
		Triangles: defaultTriangles,
		Textures:  defaultTextures,
	}}
	if cfg.DrawCalls > 0 {
		s.stats.DrawCalls = cfg.DrawCalls
	}
	if cfg.Triangles > 0 {
		s.stats.Triangles = cfg.Triangles
	}
	if cfg.Textures > 0 {
		s.stats.Textures = cfg.Textures
	}
	return s
}

// Stats returns the scene complexity counters.
func (s *Scene) Stats() Stats {
	return s.stats
}

// Frames returns how many frames have been rendered.
func (s *Scene) Frames() uint64 {
	return s.frames.Load()
}

// Render simulates one frame at the given pixel ratio. The work is pure
// arithmetic with a published sink so the compiler cannot drop it.
func (s *Scene) Render(pixelRatio float64) {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}

	iterations := int(float64(s.stats.DrawCalls) * float64(s.stats.Triangles) / 2000 * pixelRatio / 100)
	if iterations > maxWorkIterations {
		iterations = maxWorkIterations
	}
	if iterations < 1 {
		iterations = 1
	}

	frame := s.frames.Add(1)
	acc := float64(frame % 360)
	for i := 0; i < iterations; i++ {
		acc += math.Sin(acc) * 0.5
	}
	s.sink.Store(math.Float64bits(acc))
}
