package httpserver

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/aggregate"
)

func (s *Server) registerPrometheus(mux *http.ServeMux) {
	registry := prometheus.NewRegistry()
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "sustainableux",
			Subsystem: "ws",
			Name:      "active_connections",
			Help:      "Current number of active WebSocket clients.",
		}, func() float64 {
			return float64(s.wsActive.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "sustainableux",
			Subsystem: "ws",
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted since start.",
		}, func() float64 {
			return float64(s.wsTotal.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "sustainableux",
			Subsystem: "ws",
			Name:      "rejected_total",
			Help:      "Total WebSocket connection attempts rejected due to capacity.",
		}, func() float64 {
			return float64(s.wsRejected.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "sustainableux",
			Subsystem: "ws",
			Name:      "messages_sent_total",
			Help:      "Total WebSocket messages sent to clients.",
		}, func() float64 {
			return float64(s.wsSent.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "sustainableux",
			Subsystem: "ws",
			Name:      "messages_dropped_total",
			Help:      "Total WebSocket messages dropped due to backpressure.",
		}, func() float64 {
			return float64(s.wsDropped.Load())
		}),
	}

	if statsCollector := newStatsCollector(s.aggregator); statsCollector != nil {
		collectors = append(collectors, statsCollector)
	}

	for _, collector := range collectors {
		registry.MustRegister(collector)
	}

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

type statsCollector struct {
	aggregator *aggregate.Aggregator
	metrics    []statsMetric
}

type statsMetric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	extract   func(sample aggregate.Sample) (float64, bool)
}

func newStatsCollector(agg *aggregate.Aggregator) prometheus.Collector {
	if agg == nil {
		return nil
	}

	collector := &statsCollector{aggregator: agg}

	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName("sustainableux", "gpu", name),
			help,
			nil,
			nil,
		)
	}

	collector.metrics = []statsMetric{
		{
			desc:      desc("fps", "Estimated frames per second of the render loop."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				return sample.FPS, sample.FPS > 0
			},
		},
		{
			desc:      desc("frame_time_milliseconds", "Mean inter-frame time over the rolling window."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				return sample.FrameTimeMs, sample.FrameTimeMs > 0
			},
		},
		{
			desc:      desc("utilization_percent", "Synthetic GPU utilization score."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				return float64(sample.UtilizationPct), true
			},
		},
		{
			desc:      desc("temperature_celsius", "Synthetic GPU temperature."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				return sample.TemperatureC, true
			},
		},
		{
			desc:      desc("power_watts", "Synthetic GPU power draw."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				return float64(sample.PowerW), true
			},
		},
		{
			desc:      desc("co2_grams_per_hour", "Estimated emissions rate derived from power draw."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				return sample.CO2GramsPerHour, true
			},
		},
		{
			desc:      desc("process_rss_bytes", "Resident set size of the service process."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				if sample.ProcessRSSBytes == nil {
					return 0, false
				}
				return float64(*sample.ProcessRSSBytes), true
			},
		},
		{
			desc:      desc("process_cpu_percent", "CPU usage of the service process."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				if sample.ProcessCPUPct == nil {
					return 0, false
				}
				return *sample.ProcessCPUPct, true
			},
		},
		{
			desc:      desc("sample_age_seconds", "Seconds elapsed since the latest sample was computed."),
			valueType: prometheus.GaugeValue,
			extract: func(sample aggregate.Sample) (float64, bool) {
				if sample.Timestamp.IsZero() {
					return 0, false
				}
				age := time.Since(sample.Timestamp).Seconds()
				if age < 0 {
					age = 0
				}
				return age, true
			},
		},
	}

	return collector
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, metric := range c.metrics {
		ch <- metric.desc
	}
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	sample := c.aggregator.Latest()
	if sample.Timestamp.IsZero() {
		return
	}
	for _, metric := range c.metrics {
		value, ok := metric.extract(sample)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(metric.desc, metric.valueType, value)
	}
}
