// Command scenebench runs the render session headless for a fixed
// duration and prints the resulting metrics, optionally as a full
// baseline-vs-optimized comparison. Useful for eyeballing the estimation
// model without starting the web server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/aggregate"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/export"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/scene"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/session"
)

type options struct {
	duration   time.Duration
	theme      string
	drawCalls  int
	triangles  int
	compare    bool
	jsonOutput bool
}

func parseFlags() options {
	var opts options
	flag.DurationVar(&opts.duration, "duration", 3*time.Second, "How long to run the session before reporting")
	flag.StringVar(&opts.theme, "theme", "dark", "Active theme for the power baseline")
	flag.IntVar(&opts.drawCalls, "draw-calls", 0, "Override scene draw-call count")
	flag.IntVar(&opts.triangles, "triangles", 0, "Override scene triangle count")
	flag.BoolVar(&opts.compare, "compare", false, "Run a baseline-vs-optimized comparison")
	flag.BoolVar(&opts.jsonOutput, "json", false, "Emit the report as JSON instead of CSV")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	theme, err := monitor.ParseTheme(opts.theme)
	if err != nil {
		logger.Error("invalid theme", "err", err)
		os.Exit(1)
	}

	sc := scene.New(scene.Config{DrawCalls: opts.drawCalls, Triangles: opts.triangles})
	mon := monitor.New(sc, theme, 0, nil, logger)
	controller := cadence.NewController(cadence.Config{})
	sess := session.New(sc, mon, controller, logger)
	aggregator := aggregate.New(mon, controller, aggregate.Config{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = sess.Run(ctx) }()
	go func() { _ = aggregator.Run(ctx, 100*time.Millisecond) }()

	time.Sleep(opts.duration)

	if opts.compare {
		result, err := aggregator.Compare(ctx)
		if err != nil {
			logger.Error("comparison failed", "err", err)
			os.Exit(1)
		}
		emitJSON(logger, result)
		return
	}

	sample := aggregator.Latest()
	if opts.jsonOutput {
		emitJSON(logger, sample)
		return
	}
	if err := export.WriteCSV(os.Stdout, sample, controller.Settings(), aggregator.GridFactor()); err != nil {
		logger.Error("csv export failed", "err", err)
		os.Exit(1)
	}
}

func emitJSON(logger *slog.Logger, payload any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		logger.Error("encode output", "err", err)
		os.Exit(1)
	}
}
