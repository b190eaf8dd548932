package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstCallAlwaysRenders(t *testing.T) {
	c := NewController(Config{TargetFPS: 30})
	now := time.Now()
	assert.True(t, c.ShouldRender(now), "first call must be unconditionally due")
	assert.False(t, c.ShouldRender(now.Add(time.Millisecond)), "second call inside the interval must be gated")
}

func TestVisibleIntervalFollowsTargetFPS(t *testing.T) {
	c := NewController(Config{TargetFPS: 50, BackgroundFPS: 5})
	now := time.Now()
	assert.Equal(t, 20*time.Millisecond, c.EffectiveInterval(now))

	require.NoError(t, c.SetTargetFPS(25))
	assert.Equal(t, 40*time.Millisecond, c.EffectiveInterval(now))
}

func TestHiddenIntervalFollowsBackgroundFPS(t *testing.T) {
	c := NewController(Config{TargetFPS: 60, BackgroundFPS: 4})
	now := time.Now()
	c.SetVisible(now, false)
	assert.Equal(t, 250*time.Millisecond, c.EffectiveInterval(now))
}

func TestRenderGatingAtTargetRate(t *testing.T) {
	c := NewController(Config{TargetFPS: 100, BackgroundFPS: 5}) // 10ms interval
	start := time.Now()
	require.True(t, c.ShouldRender(start))

	rendered := 0
	for i := 1; i <= 100; i++ {
		if c.ShouldRender(start.Add(time.Duration(i) * time.Millisecond)) {
			rendered++
		}
	}
	// 100ms of 1ms ticks at a 10ms interval: exactly 10 renders.
	assert.Equal(t, 10, rendered)
}

func TestRampEasesBetweenHiddenAndVisible(t *testing.T) {
	c := NewController(Config{TargetFPS: 50, BackgroundFPS: 5, RampDuration: 900 * time.Millisecond})
	start := time.Now()
	hidden := 200 * time.Millisecond // 1000/5
	visible := 20 * time.Millisecond // 1000/50

	c.SetVisible(start.Add(-time.Second), false)
	c.SetVisible(start, true)

	// Ramp start: still at the hidden interval.
	assert.Equal(t, hidden, c.EffectiveInterval(start))

	// Midpoint: smoothstep(0.5) = 0.5, so halfway between the intervals.
	mid := c.EffectiveInterval(start.Add(450 * time.Millisecond))
	expected := hidden + time.Duration(0.5*float64(visible-hidden))
	assert.InDelta(t, float64(expected), float64(mid), float64(time.Millisecond))

	// Quarter point: smoothstep(0.25) = 0.15625.
	quarter := c.EffectiveInterval(start.Add(225 * time.Millisecond))
	expected = hidden + time.Duration(0.15625*float64(visible-hidden))
	assert.InDelta(t, float64(expected), float64(quarter), float64(time.Millisecond))

	// Past the ramp window: back to the plain visible interval.
	assert.Equal(t, visible, c.EffectiveInterval(start.Add(time.Second)))
}

func TestModeRoundTripRestoresOptimizedPreset(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.SetMode(ModeBaseline))
	require.NoError(t, c.SetTargetFPS(144)) // mangle baseline state
	require.NoError(t, c.SetMode(ModeOptimized))

	settings := c.Settings()
	assert.Equal(t, ModeOptimized, settings.Mode)
	assert.Equal(t, 30.0, settings.TargetFPS)
	assert.Equal(t, 1.5, settings.PixelRatioMax)
}

func TestModeSwitchIsAtomicPreset(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.SetMode(ModeBaseline))
	settings := c.Settings()
	assert.Equal(t, 60.0, settings.TargetFPS)
	assert.Equal(t, 2.0, settings.PixelRatioMax)
}

func TestInitialModeIsOptimized(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, ModeOptimized, c.Mode())
	assert.True(t, c.Settings().Visible)
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"baseline", "optimized"} {
		mode, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), mode)
	}
	_, err := ParseMode("turbo")
	assert.Error(t, err)
}

func TestRateValidation(t *testing.T) {
	c := NewController(Config{})
	assert.Error(t, c.SetTargetFPS(0))
	assert.Error(t, c.SetTargetFPS(-30))
	assert.Error(t, c.SetBackgroundFPS(0))
}

func TestRedundantVisibilityChangeDoesNotRestartRamp(t *testing.T) {
	c := NewController(Config{TargetFPS: 50, BackgroundFPS: 5, RampDuration: 900 * time.Millisecond})
	start := time.Now()
	c.SetVisible(start, true) // already visible: no-op
	assert.Equal(t, 20*time.Millisecond, c.EffectiveInterval(start))
}
