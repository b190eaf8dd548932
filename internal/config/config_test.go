package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.PollInterval != 150*time.Millisecond {
		t.Errorf("PollInterval = %v, want 150ms", cfg.PollInterval)
	}
	if cfg.Theme != "dark" {
		t.Errorf("Theme = %q, want %q", cfg.Theme, "dark")
	}
	if cfg.TargetFPS != 30 {
		t.Errorf("TargetFPS = %v, want 30", cfg.TargetFPS)
	}
	if cfg.BackgroundFPS != 5 {
		t.Errorf("BackgroundFPS = %v, want 5", cfg.BackgroundFPS)
	}
	if cfg.RampDuration != 900*time.Millisecond {
		t.Errorf("RampDuration = %v, want 900ms", cfg.RampDuration)
	}
	if cfg.GridFactor != 0.4 {
		t.Errorf("GridFactor = %v, want 0.4", cfg.GridFactor)
	}
	if cfg.BasePowerW != 10 {
		t.Errorf("BasePowerW = %v, want 10", cfg.BasePowerW)
	}
	if !cfg.HostTelemetry {
		t.Error("HostTelemetry should default to true")
	}
	if cfg.EnablePrometheus {
		t.Error("EnablePrometheus should default to false")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.Scene.DrawCalls != 96 || cfg.Scene.Triangles != 350_000 || cfg.Scene.Textures != 12 {
		t.Errorf("Scene defaults = %+v", cfg.Scene)
	}
	if cfg.WS.MaxClients != 1024 {
		t.Errorf("WS.MaxClients = %d, want 1024", cfg.WS.MaxClients)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_LISTEN_ADDR", "127.0.0.1:9090")
	t.Setenv("APP_POLL_INTERVAL", "250ms")
	t.Setenv("APP_THEME", "oled")
	t.Setenv("APP_TARGET_FPS", "48")
	t.Setenv("APP_BACKGROUND_FPS", "2")
	t.Setenv("APP_RAMP_DURATION", "1.5s")
	t.Setenv("APP_GRID_FACTOR", "0.25")
	t.Setenv("APP_BASE_POWER_W", "14")
	t.Setenv("APP_HOST_TELEMETRY", "false")
	t.Setenv("APP_ENABLE_PROMETHEUS", "true")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_ALLOWED_ORIGINS", "example.com, dashboard.example.com")
	t.Setenv("APP_SCENE_DRAW_CALLS", "200")
	t.Setenv("APP_SCENE_TRIANGLES", "500000")
	t.Setenv("APP_WS_MAX_CLIENTS", "8")
	t.Setenv("APP_WS_WRITE_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.Theme != "oled" {
		t.Errorf("Theme = %q", cfg.Theme)
	}
	if cfg.TargetFPS != 48 {
		t.Errorf("TargetFPS = %v", cfg.TargetFPS)
	}
	if cfg.BackgroundFPS != 2 {
		t.Errorf("BackgroundFPS = %v", cfg.BackgroundFPS)
	}
	if cfg.RampDuration != 1500*time.Millisecond {
		t.Errorf("RampDuration = %v", cfg.RampDuration)
	}
	if cfg.GridFactor != 0.25 {
		t.Errorf("GridFactor = %v", cfg.GridFactor)
	}
	if cfg.BasePowerW != 14 {
		t.Errorf("BasePowerW = %v", cfg.BasePowerW)
	}
	if cfg.HostTelemetry {
		t.Error("HostTelemetry should be disabled")
	}
	if !cfg.EnablePrometheus {
		t.Error("EnablePrometheus should be enabled")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	wantOrigins := []string{"example.com", "dashboard.example.com"}
	if len(cfg.AllowedOrigins) != len(wantOrigins) {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	for i, want := range wantOrigins {
		if cfg.AllowedOrigins[i] != want {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want)
		}
	}
	if cfg.Scene.DrawCalls != 200 || cfg.Scene.Triangles != 500_000 {
		t.Errorf("Scene = %+v", cfg.Scene)
	}
	if cfg.WS.MaxClients != 8 {
		t.Errorf("WS.MaxClients = %d", cfg.WS.MaxClients)
	}
	if cfg.WS.WriteTimeout != 5*time.Second {
		t.Errorf("WS.WriteTimeout = %v", cfg.WS.WriteTimeout)
	}
}

func TestLoadWhitespaceIsTrimmed(t *testing.T) {
	t.Setenv("APP_LISTEN_ADDR", "  :9000  ")
	t.Setenv("APP_TARGET_FPS", " 24 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9000")
	}
	if cfg.TargetFPS != 24 {
		t.Errorf("TargetFPS = %v, want 24", cfg.TargetFPS)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"malformed poll interval", "APP_POLL_INTERVAL", "soon"},
		{"negative poll interval", "APP_POLL_INTERVAL", "-1s"},
		{"zero target fps", "APP_TARGET_FPS", "0"},
		{"negative target fps", "APP_TARGET_FPS", "-30"},
		{"malformed background fps", "APP_BACKGROUND_FPS", "slow"},
		{"zero ramp", "APP_RAMP_DURATION", "0s"},
		{"negative grid factor", "APP_GRID_FACTOR", "-0.4"},
		{"malformed telemetry flag", "APP_HOST_TELEMETRY", "maybe"},
		{"unknown log level", "APP_LOG_LEVEL", "verbose"},
		{"zero draw calls", "APP_SCENE_DRAW_CALLS", "0"},
		{"fractional triangles", "APP_SCENE_TRIANGLES", "1.5"},
		{"zero ws clients", "APP_WS_MAX_CLIENTS", "0"},
		{"negative ws write timeout", "APP_WS_WRITE_TIMEOUT", "-3s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q should fail", tc.key, tc.value)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		got, err := parseLogLevel(tc.input)
		if err != nil {
			t.Errorf("parseLogLevel(%q) returned error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
