package api

import (
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/aggregate"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
)

// HelloMessage is the initial payload sent on WebSocket connection.
type HelloMessage struct {
	Type       string           `json:"type"`
	IntervalMS int              `json:"interval_ms"`
	Themes     []monitor.Theme  `json:"themes"`
	Settings   cadence.Settings `json:"settings"`
	GridFactor float64          `json:"grid_factor_g_per_wh"`
	Series     []string         `json:"series"`
}

// NewHelloMessage constructs a hello payload.
func NewHelloMessage(intervalMS int, themes []monitor.Theme, settings cadence.Settings, gridFactor float64, series []string) HelloMessage {
	return HelloMessage{
		Type:       "hello",
		IntervalMS: intervalMS,
		Themes:     themes,
		Settings:   settings,
		GridFactor: gridFactor,
		Series:     series,
	}
}

// StatsMessage wraps a polled sample for transport.
type StatsMessage struct {
	Type string `json:"type"`
	aggregate.Sample
}

// NewStatsMessage constructs a stats payload.
func NewStatsMessage(sample aggregate.Sample) StatsMessage {
	return StatsMessage{
		Type:   "stats",
		Sample: sample,
	}
}

// SettingsMessage announces the cadence settings after a change.
type SettingsMessage struct {
	Type     string           `json:"type"`
	Settings cadence.Settings `json:"settings"`
}

// NewSettingsMessage constructs a settings payload.
func NewSettingsMessage(settings cadence.Settings) SettingsMessage {
	return SettingsMessage{
		Type:     "settings",
		Settings: settings,
	}
}

// ComparisonMessage carries a finished baseline-vs-optimized run.
type ComparisonMessage struct {
	Type string `json:"type"`
	aggregate.Comparison
}

// NewComparisonMessage constructs a comparison payload.
func NewComparisonMessage(result aggregate.Comparison) ComparisonMessage {
	return ComparisonMessage{
		Type:       "comparison",
		Comparison: result,
	}
}

// ErrorMessage communicates an error condition to the client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ClientMessage is a generic envelope used for decoding inbound client messages.
type ClientMessage struct {
	Type string `json:"type"`
}

// SetThemeMessage switches the active theme.
type SetThemeMessage struct {
	Type  string `json:"type"`
	Theme string `json:"theme"`
}

// SetModeMessage switches the cadence mode preset.
type SetModeMessage struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// SetFPSMessage overrides one of the frame-rate targets.
type SetFPSMessage struct {
	Type string  `json:"type"`
	FPS  float64 `json:"fps"`
}

// SetVisibilityMessage reports a visibility change of the client view.
type SetVisibilityMessage struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// PongMessage is the response to a ping.
type PongMessage struct {
	Type string `json:"type"`
}
