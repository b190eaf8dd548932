package monitor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/scene"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMonitor(t *testing.T) *Monitor {
	t.Helper()
	sc := scene.New(scene.Config{DrawCalls: 96, Triangles: 350_000, Textures: 12})
	return New(sc, ThemeDark, 0, nil, testLogger())
}

func TestFirstRecordOnlySeeds(t *testing.T) {
	m := testMonitor(t)
	start := time.Now()

	m.RecordRender(start)
	snap := m.Refresh(start)
	assert.Zero(t, snap.FPS, "no delta after a single render")
	assert.Zero(t, snap.FrameTimeMs)
}

func TestSteadyCadenceYieldsExpectedFPS(t *testing.T) {
	m := testMonitor(t)
	start := time.Now()

	// 60 fps cadence: one render every 16⅔ ms.
	interval := time.Second / 60
	for i := 0; i <= 120; i++ {
		m.RecordRender(start.Add(time.Duration(i) * interval))
	}

	snap := m.Refresh(start.Add(3 * time.Second))
	assert.InDelta(t, 60, snap.FPS, 0.5)
	assert.InDelta(t, 16.67, snap.FrameTimeMs, 0.2)
	assert.InDelta(t, 60, snap.PeakFPS, 0.5)
}

func TestPeakSurvivesSlowdown(t *testing.T) {
	m := testMonitor(t)
	start := time.Now()

	ts := start
	for i := 0; i < 60; i++ {
		ts = ts.Add(time.Second / 60)
		m.RecordRender(ts)
	}
	// Drop to half the rate for a short stretch; the rolling peak keeps
	// the faster rate while the mean degrades.
	for i := 0; i < 20; i++ {
		ts = ts.Add(time.Second / 30)
		m.RecordRender(ts)
	}

	snap := m.Refresh(ts)
	assert.Less(t, snap.FPS, snap.PeakFPS)
	assert.InDelta(t, 60, snap.PeakFPS, 1.0)
}

func TestRefreshDerivesEstimate(t *testing.T) {
	m := testMonitor(t)
	start := time.Now()
	for i := 0; i <= 30; i++ {
		m.RecordRender(start.Add(time.Duration(i) * time.Second / 30))
	}

	now := start.Add(2 * time.Second)
	snap := m.Refresh(now)
	assert.Equal(t, now, snap.Timestamp)
	assert.Equal(t, 96, snap.DrawCalls)
	assert.Equal(t, 350_000, snap.Triangles)
	assert.Equal(t, 12, snap.Textures)
	assert.Equal(t, ThemeDark, snap.Theme)
	assert.GreaterOrEqual(t, snap.UtilizationPct, 5)
	assert.LessOrEqual(t, snap.UtilizationPct, 100)
	assert.GreaterOrEqual(t, snap.TemperatureC, 40.0)
	assert.LessOrEqual(t, snap.TemperatureC, 75.0)
	assert.Greater(t, snap.PowerW, 0)
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	m := testMonitor(t)
	m.Refresh(time.Now())

	snap := m.Snapshot()
	snap.UtilizationPct = 999
	snap.Theme = "mangled"

	fresh := m.Snapshot()
	assert.NotEqual(t, 999, fresh.UtilizationPct)
	assert.Equal(t, ThemeDark, fresh.Theme)
}

func TestSetTheme(t *testing.T) {
	m := testMonitor(t)
	require.NoError(t, m.SetTheme(ThemeOLED))
	assert.Equal(t, ThemeOLED, m.Theme())
	assert.Error(t, m.SetTheme(Theme("neon")))
	assert.Equal(t, ThemeOLED, m.Theme(), "failed switch must not change the theme")
}

func TestThemeChangesPowerBaseline(t *testing.T) {
	m := testMonitor(t)
	start := time.Now()
	for i := 0; i <= 30; i++ {
		m.RecordRender(start.Add(time.Duration(i) * time.Second / 30))
	}

	dark := m.Refresh(start.Add(2 * time.Second))
	require.NoError(t, m.SetTheme(ThemeLight))
	light := m.Refresh(start.Add(2 * time.Second))

	// Same utilization, baselines 9 W vs 12 W.
	require.Equal(t, dark.UtilizationPct, light.UtilizationPct)
	assert.Equal(t, 3, light.PowerW-dark.PowerW)
}

func TestReadyAfterFirstRefresh(t *testing.T) {
	m := testMonitor(t)
	assert.False(t, m.Ready())
	m.Refresh(time.Now())
	assert.True(t, m.Ready())
}

type staticProbe struct {
	rss uint64
	cpu float64
}

func (p *staticProbe) Telemetry() (*uint64, *float64) {
	return &p.rss, &p.cpu
}

func TestHostTelemetryIsOptional(t *testing.T) {
	sc := scene.New(scene.Config{})

	without := New(sc, ThemeDark, 0, nil, testLogger())
	snap := without.Refresh(time.Now())
	assert.Nil(t, snap.ProcessRSSBytes)
	assert.Nil(t, snap.ProcessCPUPct)

	with := New(sc, ThemeDark, 0, &staticProbe{rss: 1 << 20, cpu: 12.5}, testLogger())
	snap = with.Refresh(time.Now())
	require.NotNil(t, snap.ProcessRSSBytes)
	assert.Equal(t, uint64(1<<20), *snap.ProcessRSSBytes)
	require.NotNil(t, snap.ProcessCPUPct)
	assert.Equal(t, 12.5, *snap.ProcessCPUPct)
}
