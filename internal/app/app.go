// Package app wires up and runs the application services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/aggregate"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/config"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/host"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/httpserver"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/scene"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Run bootstraps the application lifecycle.
func Run(ctx context.Context, baseLogger *slog.Logger, cfg config.Config) error {
	appLogger := baseLogger.With("component", "app")

	theme, err := monitor.ParseTheme(cfg.Theme)
	if err != nil {
		return fmt.Errorf("configured theme: %w", err)
	}

	sc := scene.New(scene.Config{
		DrawCalls: cfg.Scene.DrawCalls,
		Triangles: cfg.Scene.Triangles,
		Textures:  cfg.Scene.Textures,
	})

	var hostProbe monitor.HostProbe
	if cfg.HostTelemetry {
		probe, err := host.NewProbe(baseLogger)
		if err != nil {
			// Missing host telemetry degrades to null fields, never a
			// failed startup.
			appLogger.Warn("host telemetry unavailable", "err", err)
		} else {
			hostProbe = probe
		}
	}

	mon := monitor.New(sc, theme, cfg.BasePowerW, hostProbe, baseLogger)

	controller := cadence.NewController(cadence.Config{
		TargetFPS:     cfg.TargetFPS,
		BackgroundFPS: cfg.BackgroundFPS,
		RampDuration:  cfg.RampDuration,
	})

	sess := session.New(sc, mon, controller, baseLogger)

	aggregator := aggregate.New(mon, controller, aggregate.Config{
		GridFactor: cfg.GridFactor,
	}, baseLogger)

	appLogger.Info("session configured",
		"theme", theme,
		"target_fps", cfg.TargetFPS,
		"background_fps", cfg.BackgroundFPS,
		"draw_calls", cfg.Scene.DrawCalls,
		"triangles", cfg.Scene.Triangles,
	)

	loopCtx, loopCancel := context.WithCancel(ctx)
	defer loopCancel()

	sessionErrCh := make(chan error, 1)
	go func() {
		sessionErrCh <- sess.Run(loopCtx)
	}()

	aggErrCh := make(chan error, 1)
	go func() {
		aggErrCh <- aggregator.Run(loopCtx, cfg.PollInterval)
	}()

	srv := httpserver.New(cfg, baseLogger.With("component", "http"), mon, controller, aggregator, sess)

	appLogger.Info("starting HTTP server", "listen_addr", cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	drainLoops := func() error {
		loopCancel()
		if sessionErrCh != nil {
			if err := <-sessionErrCh; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
		if aggErrCh != nil {
			if err := <-aggErrCh; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
		return nil
	}

	for {
		select {
		case err := <-errCh:
			if err != nil {
				loopCancel()
				return err
			}
			return drainLoops()
		case err := <-sessionErrCh:
			sessionErrCh = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case err := <-aggErrCh:
			aggErrCh = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case <-ctx.Done():
			appLogger.Info("shutdown initiated", "reason", ctx.Err())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("http shutdown: %w", err)
			}

			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			if err := drainLoops(); err != nil {
				return err
			}

			appLogger.Info("shutdown complete")
			return nil
		}
	}
}
