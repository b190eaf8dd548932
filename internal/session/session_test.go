package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/scene"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(cfg cadence.Config) (*Session, *scene.Scene, *cadence.Controller) {
	sc := scene.New(scene.Config{DrawCalls: 4, Triangles: 1000})
	mon := monitor.New(sc, monitor.ThemeDark, 0, nil, testLogger())
	ctrl := cadence.NewController(cfg)
	return New(sc, mon, ctrl, testLogger()), sc, ctrl
}

func runFor(t *testing.T, s *Session, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(d + time.Second):
		t.Fatal("render loop did not stop on context cancellation")
	}
}

func TestRunRendersFramesWhileVisible(t *testing.T) {
	s, sc, _ := testSession(cadence.Config{TargetFPS: 60, BackgroundFPS: 5})
	runFor(t, s, 300*time.Millisecond)
	assert.Greater(t, sc.Frames(), uint64(0), "a visible session must produce frames")
}

func TestRunHonorsFrameRateTarget(t *testing.T) {
	s, sc, _ := testSession(cadence.Config{TargetFPS: 20, BackgroundFPS: 5})
	runFor(t, s, 500*time.Millisecond)

	// 20 fps over half a second is 10 frames. Scheduling jitter only ever
	// loses ticks, so bound from above with headroom.
	frames := sc.Frames()
	assert.Greater(t, frames, uint64(0))
	assert.LessOrEqual(t, frames, uint64(15))
}

func TestHiddenSessionRendersSlower(t *testing.T) {
	visible, visibleScene, _ := testSession(cadence.Config{TargetFPS: 60, BackgroundFPS: 2})
	runFor(t, visible, 400*time.Millisecond)

	hidden, hiddenScene, _ := testSession(cadence.Config{TargetFPS: 60, BackgroundFPS: 2})
	hidden.SetVisible(false)
	runFor(t, hidden, 400*time.Millisecond)

	assert.Less(t, hiddenScene.Frames(), visibleScene.Frames())
}

func TestSetVisibleWhileRunningIsSafe(t *testing.T) {
	s, sc, ctrl := testSession(cadence.Config{TargetFPS: 60, BackgroundFPS: 5})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 10; i++ {
		s.SetVisible(i%2 == 0)
		time.Sleep(10 * time.Millisecond)
	}
	s.SetVisible(true)
	time.Sleep(100 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Greater(t, sc.Frames(), uint64(0))
	assert.True(t, ctrl.Settings().Visible)
}

func TestSetVisibleBeforeRunDoesNotBlock(t *testing.T) {
	s, _, ctrl := testSession(cadence.Config{})

	// The restart channel is buffered; repeated flips before the loop
	// starts must coalesce instead of blocking the caller.
	for i := 0; i < 5; i++ {
		s.SetVisible(false)
		s.SetVisible(true)
	}
	assert.True(t, ctrl.Settings().Visible)
}
