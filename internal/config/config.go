package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration sourced from environment variables.
type Config struct {
	ListenAddr       string
	PollInterval     time.Duration
	Theme            string
	TargetFPS        float64
	BackgroundFPS    float64
	RampDuration     time.Duration
	GridFactor       float64
	BasePowerW       float64
	HostTelemetry    bool
	EnablePrometheus bool
	EnablePprof      bool
	LogLevel         slog.Level
	AllowedOrigins   []string
	Scene            SceneConfig
	WS               WebsocketConfig
}

// SceneConfig sets the synthetic scene complexity.
type SceneConfig struct {
	DrawCalls int
	Triangles int
	Textures  int
}

// WebsocketConfig captures tunables for WebSocket handling.
type WebsocketConfig struct {
	MaxClients   int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

// Load parses configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:       ":8080",
		PollInterval:     150 * time.Millisecond,
		Theme:            "dark",
		TargetFPS:        30,
		BackgroundFPS:    5,
		RampDuration:     900 * time.Millisecond,
		GridFactor:       0.4,
		BasePowerW:       10,
		HostTelemetry:    true,
		EnablePrometheus: false,
		EnablePprof:      false,
		LogLevel:         slog.LevelInfo,
		AllowedOrigins:   []string{"*"},
		Scene: SceneConfig{
			DrawCalls: 96,
			Triangles: 350_000,
			Textures:  12,
		},
		WS: WebsocketConfig{
			MaxClients:   1024,
			WriteTimeout: 3 * time.Second,
			ReadTimeout:  30 * time.Second,
		},
	}

	if value := strings.TrimSpace(os.Getenv("APP_LISTEN_ADDR")); value != "" {
		cfg.ListenAddr = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_POLL_INTERVAL")); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_POLL_INTERVAL: %w", err)
		}
		if duration <= 0 {
			return Config{}, fmt.Errorf("APP_POLL_INTERVAL must be > 0")
		}
		cfg.PollInterval = duration
	}

	if value := strings.TrimSpace(os.Getenv("APP_THEME")); value != "" {
		cfg.Theme = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_TARGET_FPS")); value != "" {
		fps, err := parsePositiveFloat(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_TARGET_FPS: %w", err)
		}
		cfg.TargetFPS = fps
	}

	if value := strings.TrimSpace(os.Getenv("APP_BACKGROUND_FPS")); value != "" {
		fps, err := parsePositiveFloat(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_BACKGROUND_FPS: %w", err)
		}
		cfg.BackgroundFPS = fps
	}

	if value := strings.TrimSpace(os.Getenv("APP_RAMP_DURATION")); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_RAMP_DURATION: %w", err)
		}
		if duration <= 0 {
			return Config{}, fmt.Errorf("APP_RAMP_DURATION must be > 0")
		}
		cfg.RampDuration = duration
	}

	if value := strings.TrimSpace(os.Getenv("APP_GRID_FACTOR")); value != "" {
		factor, err := parsePositiveFloat(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_GRID_FACTOR: %w", err)
		}
		cfg.GridFactor = factor
	}

	if value := strings.TrimSpace(os.Getenv("APP_BASE_POWER_W")); value != "" {
		base, err := parsePositiveFloat(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_BASE_POWER_W: %w", err)
		}
		cfg.BasePowerW = base
	}

	if value := strings.TrimSpace(os.Getenv("APP_HOST_TELEMETRY")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_HOST_TELEMETRY: %w", err)
		}
		cfg.HostTelemetry = enabled
	}

	if value := strings.TrimSpace(os.Getenv("APP_ENABLE_PROMETHEUS")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_ENABLE_PROMETHEUS: %w", err)
		}
		cfg.EnablePrometheus = enabled
	}

	if value := strings.TrimSpace(os.Getenv("APP_ENABLE_PPROF")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_ENABLE_PPROF: %w", err)
		}
		cfg.EnablePprof = enabled
	}

	if value := strings.TrimSpace(os.Getenv("APP_LOG_LEVEL")); value != "" {
		level, err := parseLogLevel(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	if value := strings.TrimSpace(os.Getenv("APP_ALLOWED_ORIGINS")); value != "" {
		origins := splitAndTrim(value, ",")
		if len(origins) == 0 {
			return Config{}, fmt.Errorf("APP_ALLOWED_ORIGINS must not be empty")
		}
		cfg.AllowedOrigins = origins
	}

	if value := strings.TrimSpace(os.Getenv("APP_SCENE_DRAW_CALLS")); value != "" {
		count, err := parsePositiveInt(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_SCENE_DRAW_CALLS: %w", err)
		}
		cfg.Scene.DrawCalls = count
	}

	if value := strings.TrimSpace(os.Getenv("APP_SCENE_TRIANGLES")); value != "" {
		count, err := parsePositiveInt(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_SCENE_TRIANGLES: %w", err)
		}
		cfg.Scene.Triangles = count
	}

	if value := strings.TrimSpace(os.Getenv("APP_SCENE_TEXTURES")); value != "" {
		count, err := parsePositiveInt(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_SCENE_TEXTURES: %w", err)
		}
		cfg.Scene.Textures = count
	}

	if value := strings.TrimSpace(os.Getenv("APP_WS_MAX_CLIENTS")); value != "" {
		maxClients, err := parsePositiveInt(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_WS_MAX_CLIENTS: %w", err)
		}
		cfg.WS.MaxClients = maxClients
	}

	if value := strings.TrimSpace(os.Getenv("APP_WS_WRITE_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_WS_WRITE_TIMEOUT: %w", err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("APP_WS_WRITE_TIMEOUT must be > 0")
		}
		cfg.WS.WriteTimeout = timeout
	}

	if value := strings.TrimSpace(os.Getenv("APP_WS_READ_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse APP_WS_READ_TIMEOUT: %w", err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("APP_WS_READ_TIMEOUT must be > 0")
		}
		cfg.WS.ReadTimeout = timeout
	}

	return cfg, nil
}

func parsePositiveFloat(value string) (float64, error) {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("must be > 0, got %v", parsed)
	}
	return parsed, nil
}

func parsePositiveInt(value string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("must be > 0, got %d", parsed)
	}
	return parsed, nil
}

func splitAndTrim(value, sep string) []string {
	raw := strings.Split(value, sep)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(input string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q", input)
	}
}
