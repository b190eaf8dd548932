// Package host reads best-effort telemetry about the service's own
// process. Every value is optional: when the platform or permission model
// withholds a reading the probe reports nil and the snapshot field
// serializes as null.
package host

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// Probe samples RSS and CPU usage of the current process.
type Probe struct {
	proc   *process.Process
	logger *slog.Logger
}

// NewProbe attaches to the current process.
func NewProbe(logger *slog.Logger) (*Probe, error) {
	if logger == nil {
		logger = slog.Default()
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("attach to own process: %w", err)
	}
	return &Probe{
		proc:   proc,
		logger: logger.With("component", "host_probe"),
	}, nil
}

// Telemetry returns the current RSS and CPU percentage, each nil when the
// reading fails. Failures are logged at debug level only; missing host
// telemetry never degrades the session.
func (p *Probe) Telemetry() (*uint64, *float64) {
	var rss *uint64
	var cpu *float64

	if mem, err := p.proc.MemoryInfo(); err == nil && mem != nil {
		v := mem.RSS
		rss = &v
	} else if err != nil {
		p.logger.Debug("memory info unavailable", "err", err)
	}

	if pct, err := p.proc.CPUPercent(); err == nil {
		v := pct
		cpu = &v
	} else {
		p.logger.Debug("cpu percent unavailable", "err", err)
	}

	return rss, cpu
}
