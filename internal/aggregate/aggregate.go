// Package aggregate polls the monitor on a fixed cadence, keeps rolling
// buffers per metric for charting, derives CO₂ figures from power, and
// runs the baseline-vs-optimized comparison measurement.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/window"
)

const (
	metricWindowCap   = 120
	defaultGridFactor = 0.4 // grams CO₂ per Wh, i.e. 400 g/kWh
	defaultSettle     = 300 * time.Millisecond
	defaultWindow     = 2 * time.Second
	defaultResolution = 100 * time.Millisecond
)

// ModeSwitcher flips the cadence mode during a comparison run.
type ModeSwitcher interface {
	SetMode(cadence.Mode) error
}

// Sample is a monitor snapshot extended with the derived emissions rate.
type Sample struct {
	monitor.Snapshot
	CO2GramsPerHour float64 `json:"co2_g_per_h"`
}

// WindowAverage is the mean utilization and power over one sampling
// window.
type WindowAverage struct {
	UtilizationPct float64 `json:"utilization_pct"`
	PowerW         float64 `json:"power_w"`
}

// Comparison captures a two-phase baseline-vs-optimized measurement.
type Comparison struct {
	BaselineUtil         float64 `json:"baseline_util"`
	OptimizedUtil        float64 `json:"optimized_util"`
	BaselinePower        float64 `json:"baseline_power"`
	OptimizedPower       float64 `json:"optimized_power"`
	SavingsW             float64 `json:"savings_w"`
	SavingsPct           float64 `json:"savings_pct"`
	CO2SavedGramsPerHour float64 `json:"co2_saved_g_per_h"`
}

// Config tunes the aggregator. Zero fields use defaults.
type Config struct {
	GridFactor    float64
	SettleDelay   time.Duration
	CompareWindow time.Duration
	Resolution    time.Duration
}

// Aggregator owns the per-metric rolling buffers. Poll and Compare may be
// called from different goroutines.
type Aggregator struct {
	logger     *slog.Logger
	monitor    *monitor.Monitor
	modes      ModeSwitcher
	gridFactor float64
	settle     time.Duration
	compareWin time.Duration
	resolution time.Duration

	mu      sync.Mutex
	series  map[string]*window.Window
	latest  Sample
	running atomic.Bool

	subMu       sync.Mutex
	subscribers map[*subscriber]struct{}
}

// New builds an Aggregator over the given monitor and mode switcher.
func New(mon *monitor.Monitor, modes ModeSwitcher, cfg Config, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		logger:     logger.With("component", "aggregator"),
		monitor:    mon,
		modes:      modes,
		gridFactor: defaultGridFactor,
		settle:     defaultSettle,
		compareWin: defaultWindow,
		resolution: defaultResolution,
		series: map[string]*window.Window{
			"fps":           window.MustNew(metricWindowCap),
			"utilization":   window.MustNew(metricWindowCap),
			"temperature":   window.MustNew(metricWindowCap),
			"power":         window.MustNew(metricWindowCap),
			"co2_rate":      window.MustNew(metricWindowCap),
			"frame_time_ms": window.MustNew(metricWindowCap),
		},
	}
	if cfg.GridFactor > 0 {
		a.gridFactor = cfg.GridFactor
	}
	if cfg.SettleDelay > 0 {
		a.settle = cfg.SettleDelay
	}
	if cfg.CompareWindow > 0 {
		a.compareWin = cfg.CompareWindow
	}
	if cfg.Resolution > 0 {
		a.resolution = cfg.Resolution
	}
	return a
}

// GridFactor returns the configured grid carbon intensity in g/Wh.
func (a *Aggregator) GridFactor() float64 {
	return a.gridFactor
}

// CO2GramsPerHour converts a power draw into an emissions rate.
func (a *Aggregator) CO2GramsPerHour(powerW float64) float64 {
	return powerW * a.gridFactor
}

// Poll recomputes the estimate, buffers the per-metric values, and
// returns the extended snapshot.
func (a *Aggregator) Poll(now time.Time) Sample {
	snap := a.monitor.Refresh(now)
	sample := Sample{
		Snapshot:        snap,
		CO2GramsPerHour: a.CO2GramsPerHour(float64(snap.PowerW)),
	}

	a.mu.Lock()
	a.series["fps"].Push(snap.FPS)
	a.series["utilization"].Push(float64(snap.UtilizationPct))
	a.series["temperature"].Push(snap.TemperatureC)
	a.series["power"].Push(float64(snap.PowerW))
	a.series["co2_rate"].Push(sample.CO2GramsPerHour)
	a.series["frame_time_ms"].Push(snap.FrameTimeMs)
	a.latest = sample
	a.mu.Unlock()

	return sample
}

// Latest returns the last polled sample.
func (a *Aggregator) Latest() Sample {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Series returns a copy of one metric buffer in insertion order. The
// second result is false for unknown metric names.
func (a *Aggregator) Series(name string) ([]float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.series[name]
	if !ok {
		return nil, false
	}
	return w.Values(), true
}

// SeriesNames lists available metric buffers.
func (a *Aggregator) SeriesNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.series))
	for name := range a.series {
		names = append(names, name)
	}
	return names
}

// RunWindowAverage samples utilization and power at the configured
// resolution for the given duration and returns their means. A window too
// short to collect any sample yields zeros, never a division error.
func (a *Aggregator) RunWindowAverage(ctx context.Context, duration time.Duration) (WindowAverage, error) {
	var (
		sumUtil  float64
		sumPower float64
		count    int
	)

	finish := func() WindowAverage {
		if count == 0 {
			return WindowAverage{}
		}
		return WindowAverage{
			UtilizationPct: sumUtil / float64(count),
			PowerW:         sumPower / float64(count),
		}
	}

	ticker := time.NewTicker(a.resolution)
	defer ticker.Stop()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		case <-deadline.C:
			return finish(), nil
		case now := <-ticker.C:
			sample := a.Poll(now)
			sumUtil += float64(sample.UtilizationPct)
			sumPower += float64(sample.PowerW)
			count++
		}
	}
}

// Compare measures baseline then optimized mode sequentially and leaves
// the system in optimized mode. The two phases share the cadence state,
// so only one comparison may run at a time.
func (a *Aggregator) Compare(ctx context.Context) (Comparison, error) {
	if !a.running.CompareAndSwap(false, true) {
		return Comparison{}, fmt.Errorf("comparison already running")
	}
	defer a.running.Store(false)

	measure := func(mode cadence.Mode) (WindowAverage, error) {
		if err := a.modes.SetMode(mode); err != nil {
			return WindowAverage{}, fmt.Errorf("set %s mode: %w", mode, err)
		}
		// Let the cadence controller stabilize before measuring.
		select {
		case <-ctx.Done():
			return WindowAverage{}, ctx.Err()
		case <-time.After(a.settle):
		}
		return a.RunWindowAverage(ctx, a.compareWin)
	}

	baseline, err := measure(cadence.ModeBaseline)
	if err != nil {
		// Best effort: do not leave the session stuck in baseline mode.
		if modeErr := a.modes.SetMode(cadence.ModeOptimized); modeErr != nil {
			a.logger.Warn("failed to restore optimized mode", "err", modeErr)
		}
		return Comparison{}, err
	}

	optimized, err := measure(cadence.ModeOptimized)
	if err != nil {
		return Comparison{}, err
	}

	result := buildComparison(baseline, optimized, a.gridFactor)

	a.logger.Info("comparison complete",
		"baseline_power_w", result.BaselinePower,
		"optimized_power_w", result.OptimizedPower,
		"savings_w", result.SavingsW,
	)
	return result, nil
}

func buildComparison(baseline, optimized WindowAverage, gridFactor float64) Comparison {
	result := Comparison{
		BaselineUtil:   baseline.UtilizationPct,
		OptimizedUtil:  optimized.UtilizationPct,
		BaselinePower:  baseline.PowerW,
		OptimizedPower: optimized.PowerW,
	}
	result.SavingsW = result.BaselinePower - result.OptimizedPower
	if result.BaselinePower > 0 {
		result.SavingsPct = result.SavingsW / result.BaselinePower * 100
	}
	result.CO2SavedGramsPerHour = result.SavingsW * gridFactor
	return result
}
