package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/aggregate"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
)

func TestWriteCSV(t *testing.T) {
	sample := aggregate.Sample{
		Snapshot: monitor.Snapshot{
			FPS:            29.5,
			FrameTimeMs:    33.9,
			UtilizationPct: 42,
			TemperatureC:   54.7,
			PowerW:         38,
			DrawCalls:      96,
			Triangles:      350_000,
			Textures:       12,
			Theme:          monitor.ThemeDark,
		},
		CO2GramsPerHour: 15.2,
	}
	settings := cadence.Settings{
		Mode:          cadence.ModeOptimized,
		TargetFPS:     30,
		BackgroundFPS: 5,
		PixelRatioMax: 1.5,
		Visible:       true,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample, settings, 0.4))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	assert.Equal(t, []string{"metric", "value"}, records[0])

	byMetric := make(map[string]string, len(records))
	for _, record := range records[1:] {
		require.Len(t, record, 2)
		byMetric[record[0]] = record[1]
	}

	assert.Equal(t, "29.5", byMetric["fps"])
	assert.Equal(t, "33.9", byMetric["frame_time_ms"])
	assert.Equal(t, "42", byMetric["utilization_pct"])
	assert.Equal(t, "54.7", byMetric["temperature_c"])
	assert.Equal(t, "38", byMetric["power_w"])
	assert.Equal(t, "15.2", byMetric["co2_g_per_h"])
	assert.Equal(t, "350000", byMetric["triangles"])
	assert.Equal(t, "dark", byMetric["theme"])
	assert.Equal(t, "optimized", byMetric["mode"])
	assert.Equal(t, "30", byMetric["target_fps"])
	assert.Equal(t, "1.5", byMetric["pixel_ratio_max"])
	assert.Equal(t, "0.4", byMetric["grid_factor_g_per_wh"])
}

func TestWriteCSVZeroSample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, aggregate.Sample{}, cadence.Settings{}, 0))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 16, "header plus fifteen metric rows")
}
