// Package monitor estimates synthetic GPU statistics from measured frame
// cadence and scene complexity. Nothing here reads real hardware
// counters; utilization, temperature, and power are a closed-form
// heuristic and explicitly illustrative.
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/scene"
)

// HostProbe supplies optional host-process telemetry. Implementations
// return nil pointers when a value is unavailable; the monitor degrades
// to omitting the field, never to failing.
type HostProbe interface {
	Telemetry() (rssBytes *uint64, cpuPct *float64)
}

// Snapshot is a defensive copy of the latest computed metrics. Pointer
// fields serialize as null when the underlying telemetry is unavailable.
type Snapshot struct {
	Timestamp      time.Time `json:"ts"`
	FPS            float64   `json:"fps"`
	FrameTimeMs    float64   `json:"frame_time_ms"`
	PeakFPS        float64   `json:"peak_fps"`
	UtilizationPct int       `json:"utilization_pct"`
	TemperatureC   float64   `json:"temperature_c"`
	PowerW         int       `json:"power_w"`
	DrawCalls      int       `json:"draw_calls"`
	Triangles      int       `json:"triangles"`
	Textures       int       `json:"textures"`
	Theme          Theme     `json:"theme"`

	ProcessRSSBytes *uint64  `json:"process_rss_bytes"`
	ProcessCPUPct   *float64 `json:"process_cpu_pct"`
}

// Monitor owns the mutable estimator state for one rendering session.
type Monitor struct {
	logger    *slog.Logger
	scene     *scene.Scene
	host      HostProbe
	basePower float64

	mu      sync.Mutex
	sampler *frameSampler
	theme   Theme
	state   Snapshot
	sampled bool
}

// New builds a Monitor over the given scene. host may be nil. basePowerW
// is the fallback baseline for unknown themes; <= 0 uses the default.
func New(sc *scene.Scene, theme Theme, basePowerW float64, host HostProbe, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		logger:    logger.With("component", "monitor"),
		scene:     sc,
		host:      host,
		basePower: basePowerW,
		sampler:   newFrameSampler(),
		theme:     theme,
	}
	if _, err := ParseTheme(string(theme)); err != nil {
		m.logger.Warn("unknown theme, using base power fallback", "theme", theme)
	}
	return m
}

// RecordRender ingests the timestamp of an actually rendered frame.
func (m *Monitor) RecordRender(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampler.record(now)
}

// SetTheme switches the active theme used in the power formula.
func (m *Monitor) SetTheme(theme Theme) error {
	parsed, err := ParseTheme(string(theme))
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = parsed
	return nil
}

// Theme returns the active theme.
func (m *Monitor) Theme() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme
}

// Refresh recomputes all derived metrics from the current inputs and
// stores them as the latest state. Called on every polling tick; outputs
// are never cached across ticks.
func (m *Monitor) Refresh(now time.Time) Snapshot {
	stats := m.scene.Stats()

	var rss *uint64
	var cpu *float64
	if m.host != nil {
		rss, cpu = m.host.Telemetry()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	est := EstimateLoad(
		m.sampler.fps,
		m.sampler.peakFPS(),
		stats.DrawCalls,
		stats.Triangles,
		BaselineWatts(m.theme, m.basePower),
	)

	m.state = Snapshot{
		Timestamp:       now,
		FPS:             m.sampler.fps,
		FrameTimeMs:     m.sampler.frameTimeMs,
		PeakFPS:         m.sampler.peakFPS(),
		UtilizationPct:  est.UtilizationPct,
		TemperatureC:    est.TemperatureC,
		PowerW:          est.PowerW,
		DrawCalls:       stats.DrawCalls,
		Triangles:       stats.Triangles,
		Textures:        stats.Textures,
		Theme:           m.theme,
		ProcessRSSBytes: rss,
		ProcessCPUPct:   cpu,
	}
	m.sampled = true
	return m.state
}

// Snapshot returns a copy of the last refreshed state. The live state is
// never handed out.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Ready reports whether at least one refresh has completed.
func (m *Monitor) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampled
}
