package monitor

import "math"

// Estimation model constants. The blend weights and normalization
// divisors are empirically chosen; they are kept verbatim for output
// compatibility and carry no physical meaning.
const (
	relativeFPSWeight  = 0.7
	complexityWeight   = 0.3
	drawCallNorm       = 200
	triangleNorm       = 500_000
	utilizationFloor   = 5
	utilizationCeil    = 100
	temperatureIdleC   = 40
	temperatureRangeC  = 35
	powerDynamicRangeW = 70
)

// Estimate is one recomputed set of synthetic GPU metrics.
type Estimate struct {
	UtilizationPct int
	TemperatureC   float64
	PowerW         int
}

// Estimation inputs are plain scalars; there is no failure path. The
// utilization score tracks frame rate relative to the rolling peak rather
// than an absolute device maximum: capping the frame rate does not lower
// per-frame work, so a capped scene should still read as loaded. A
// complexity term keeps a steady frame rate over a heavy scene from
// reading as idle.
func EstimateLoad(fps, peakFPS float64, drawCalls, triangles int, baselineW float64) Estimate {
	relative := math.Min(1, fps/math.Max(1, peakFPS))
	complexity := math.Min(1, float64(drawCalls)/drawCallNorm+float64(triangles)/triangleNorm)

	util := int(math.Round(100 * (relativeFPSWeight*relative + complexityWeight*complexity)))
	if util < utilizationFloor {
		util = utilizationFloor
	}
	if util > utilizationCeil {
		util = utilizationCeil
	}

	load := float64(util) / 100
	return Estimate{
		UtilizationPct: util,
		TemperatureC:   temperatureIdleC + temperatureRangeC*load,
		PowerW:         int(math.Round(baselineW + powerDynamicRangeW*load)),
	}
}
