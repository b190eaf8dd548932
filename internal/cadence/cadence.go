// Package cadence decides when the render loop is allowed to produce a
// frame. It applies a foreground frame-rate target, a reduced background
// rate while the view is hidden, and a smoothstep ramp when returning to
// the foreground so the frame rate does not jump in one tick.
package cadence

import (
	"fmt"
	"sync"
	"time"
)

// Mode is a named cadence preset.
type Mode string

const (
	ModeBaseline  Mode = "baseline"
	ModeOptimized Mode = "optimized"
)

// Preset bundles the settings a mode switch applies atomically.
type Preset struct {
	TargetFPS     float64
	PixelRatioMax float64
}

var presets = map[Mode]Preset{
	ModeBaseline:  {TargetFPS: 60, PixelRatioMax: 2.0},
	ModeOptimized: {TargetFPS: 30, PixelRatioMax: 1.5},
}

// PresetFor returns the preset for a mode.
func PresetFor(mode Mode) (Preset, bool) {
	p, ok := presets[mode]
	return p, ok
}

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBaseline, ModeOptimized:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown performance mode %q", s)
	}
}

// Config carries the initial controller settings.
type Config struct {
	TargetFPS     float64
	BackgroundFPS float64
	RampDuration  time.Duration
}

// Settings is a read-only view of the current controller state.
type Settings struct {
	Mode          Mode    `json:"mode"`
	TargetFPS     float64 `json:"target_fps"`
	BackgroundFPS float64 `json:"background_fps"`
	PixelRatioMax float64 `json:"pixel_ratio_max"`
	Visible       bool    `json:"visible"`
}

// Controller gates renders against the effective inter-frame interval.
// Safe for concurrent use: the render loop calls ShouldRender while the
// control plane flips mode, rates, and visibility.
type Controller struct {
	mu sync.Mutex

	mode          Mode
	targetFPS     float64
	backgroundFPS float64
	pixelRatioMax float64
	rampDuration  time.Duration

	visible   bool
	rampStart time.Time
	ramping   bool

	lastRender  time.Time
	hasRendered bool
}

// NewController builds a controller in optimized mode. Config values <= 0
// fall back to the optimized preset and conventional defaults.
func NewController(cfg Config) *Controller {
	preset := presets[ModeOptimized]
	c := &Controller{
		mode:          ModeOptimized,
		targetFPS:     preset.TargetFPS,
		backgroundFPS: 5,
		pixelRatioMax: preset.PixelRatioMax,
		rampDuration:  900 * time.Millisecond,
		visible:       true,
	}
	if cfg.TargetFPS > 0 {
		c.targetFPS = cfg.TargetFPS
	}
	if cfg.BackgroundFPS > 0 {
		c.backgroundFPS = cfg.BackgroundFPS
	}
	if cfg.RampDuration > 0 {
		c.rampDuration = cfg.RampDuration
	}
	return c
}

// ShouldRender reports whether a frame is due at now, and when it is,
// consumes the slot by resetting the last-render time. The first call is
// always due.
func (c *Controller) ShouldRender(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasRendered {
		c.lastRender = now
		c.hasRendered = true
		return true
	}

	interval := c.effectiveIntervalLocked(now)
	if now.Sub(c.lastRender) < interval {
		return false
	}
	c.lastRender = now
	return true
}

// EffectiveInterval returns the minimum inter-frame interval in effect at
// now, after visibility and ramp adjustments.
func (c *Controller) EffectiveInterval(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effectiveIntervalLocked(now)
}

func (c *Controller) effectiveIntervalLocked(now time.Time) time.Duration {
	hidden := fpsInterval(c.backgroundFPS)
	if !c.visible {
		return hidden
	}

	target := fpsInterval(c.targetFPS)
	if !c.ramping {
		return target
	}

	elapsed := now.Sub(c.rampStart)
	if elapsed >= c.rampDuration {
		c.ramping = false
		return target
	}

	t := float64(elapsed) / float64(c.rampDuration)
	if t < 0 {
		t = 0
	}
	eased := t * t * (3 - 2*t)
	return hidden + time.Duration(eased*float64(target-hidden))
}

// SetMode applies the preset for the given mode in one step.
func (c *Controller) SetMode(mode Mode) error {
	preset, ok := presets[mode]
	if !ok {
		return fmt.Errorf("unknown performance mode %q", mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	c.targetFPS = preset.TargetFPS
	c.pixelRatioMax = preset.PixelRatioMax
	return nil
}

// SetTargetFPS overrides the foreground frame-rate target.
func (c *Controller) SetTargetFPS(fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("target fps must be > 0, got %v", fps)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetFPS = fps
	return nil
}

// SetBackgroundFPS overrides the hidden frame-rate target.
func (c *Controller) SetBackgroundFPS(fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("background fps must be > 0, got %v", fps)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backgroundFPS = fps
	return nil
}

// SetVisible records a visibility change. A hidden-to-visible transition
// starts the ramp window at now.
func (c *Controller) SetVisible(now time.Time, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if visible == c.visible {
		return
	}
	c.visible = visible
	if visible {
		c.rampStart = now
		c.ramping = true
	} else {
		c.ramping = false
	}
}

// Settings returns a copy of the current controller state.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Settings{
		Mode:          c.mode,
		TargetFPS:     c.targetFPS,
		BackgroundFPS: c.backgroundFPS,
		PixelRatioMax: c.pixelRatioMax,
		Visible:       c.visible,
	}
}

// Mode returns the active cadence mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func fpsInterval(fps float64) time.Duration {
	if fps <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / fps)
}
