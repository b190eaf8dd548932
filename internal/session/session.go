// Package session drives the render loop: a single goroutine that ticks,
// asks the cadence controller whether a frame is due, renders the scene,
// and reports the render timestamp to the monitor.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/scene"
)

// checkPeriod approximates a display refresh callback while visible. The
// cadence controller decides which ticks become frames, so ticking faster
// than the frame-rate target only costs idle wakeups.
const checkPeriod = 4 * time.Millisecond

// Session owns the render loop for one scene.
type Session struct {
	logger     *slog.Logger
	scene      *scene.Scene
	monitor    *monitor.Monitor
	controller *cadence.Controller

	// Buffered to one: coalesces visibility flips into a single ticker
	// rebuild.
	restart chan struct{}
}

// New wires a session over its collaborators.
func New(sc *scene.Scene, mon *monitor.Monitor, ctrl *cadence.Controller, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		logger:     logger.With("component", "session"),
		scene:      sc,
		monitor:    mon,
		controller: ctrl,
		restart:    make(chan struct{}, 1),
	}
}

// SetVisible records a visibility change and retunes the tick rate. A
// hidden session keeps ticking at the background rate rather than
// suspending entirely.
func (s *Session) SetVisible(visible bool) {
	s.controller.SetVisible(time.Now(), visible)
	select {
	case s.restart <- struct{}{}:
	default:
	}
}

// Run executes the render loop until the context is canceled. The ticker
// is rebuilt on visibility changes; the old one is always stopped first
// so at most one ticker drives the loop.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("render loop started")

	ticker := time.NewTicker(s.tickPeriod())
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("render loop stopping", "reason", ctx.Err())
			return nil
		case <-s.restart:
			ticker.Stop()
			ticker = time.NewTicker(s.tickPeriod())
		case now := <-ticker.C:
			if !s.controller.ShouldRender(now) {
				continue
			}
			s.scene.Render(s.controller.Settings().PixelRatioMax)
			// Record the completion time of the frame that actually
			// rendered, never a skipped tick.
			s.monitor.RecordRender(time.Now())
		}
	}
}

func (s *Session) tickPeriod() time.Duration {
	settings := s.controller.Settings()
	if settings.Visible {
		return checkPeriod
	}
	interval := s.controller.EffectiveInterval(time.Now())
	if interval < checkPeriod {
		return checkPeriod
	}
	return interval
}
