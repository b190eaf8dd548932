// Package export serializes the latest metrics snapshot as flat CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/aggregate"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
)

// WriteCSV emits a `metric,value` table with one row per scalar metric
// plus the current settings. No aggregation is applied; this is a pure
// serialization of the snapshot.
func WriteCSV(w io.Writer, sample aggregate.Sample, settings cadence.Settings, gridFactor float64) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"metric", "value"},
		{"fps", formatFloat(sample.FPS)},
		{"frame_time_ms", formatFloat(sample.FrameTimeMs)},
		{"utilization_pct", strconv.Itoa(sample.UtilizationPct)},
		{"temperature_c", formatFloat(sample.TemperatureC)},
		{"power_w", strconv.Itoa(sample.PowerW)},
		{"co2_g_per_h", formatFloat(sample.CO2GramsPerHour)},
		{"draw_calls", strconv.Itoa(sample.DrawCalls)},
		{"triangles", strconv.Itoa(sample.Triangles)},
		{"textures", strconv.Itoa(sample.Textures)},
		{"theme", string(sample.Theme)},
		{"mode", string(settings.Mode)},
		{"target_fps", formatFloat(settings.TargetFPS)},
		{"background_fps", formatFloat(settings.BackgroundFPS)},
		{"pixel_ratio_max", formatFloat(settings.PixelRatioMax)},
		{"grid_factor_g_per_wh", formatFloat(gridFactor)},
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
