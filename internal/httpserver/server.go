package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/aggregate"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/config"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/export"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/session"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/version"
)

const (
	readHeaderTimeout = 5 * time.Second
	wsSendQueueSize   = 16
)

// Server wraps the HTTP surface area of the application.
type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	httpServer *http.Server

	monitor    *monitor.Monitor
	controller *cadence.Controller
	aggregator *aggregate.Aggregator
	session    *session.Session

	maxWSClients int64
	wsActive     atomic.Int64
	wsTotal      atomic.Uint64
	wsRejected   atomic.Uint64
	wsSent       atomic.Uint64
	wsDropped    atomic.Uint64
	wsConnIDs    atomic.Uint64
	requestIDs   atomic.Uint64
}

// New assembles a Server with its handlers.
func New(cfg config.Config, logger *slog.Logger, mon *monitor.Monitor, ctrl *cadence.Controller, agg *aggregate.Aggregator, sess *session.Session) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		monitor:    mon,
		controller: ctrl,
		aggregator: agg,
		session:    sess,
	}

	if cfg.WS.MaxClients > 0 {
		s.maxWSClients = int64(cfg.WS.MaxClients)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.HandleFunc("/api/readyz", s.handleReadyz)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/stats.csv", s.handleStatsCSV)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/compare", s.handleCompare)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/", s.staticHandler())

	if cfg.EnablePrometheus {
		s.registerPrometheus(mux)
	}
	if cfg.EnablePprof {
		registerPprof(mux)
	}

	handler := s.withRequestLogging(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Start begins serving HTTP until shutdown is requested.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("listener stopped")
	return nil
}

// Shutdown attempts a graceful shutdown within the supplied context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	resp := readyResponse{Status: "ok"}
	statusCode := http.StatusOK
	if s.monitor == nil || !s.monitor.Ready() {
		resp.Status = "initializing"
		resp.Reason = "waiting_for_samples"
		statusCode = http.StatusServiceUnavailable
	}

	logger := s.loggerFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode readyz response", "err", err)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	info := version.Current()
	logger := s.loggerFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		logger.Error("failed to encode version response", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	sample := s.aggregator.Latest()
	if sample.Timestamp.IsZero() {
		http.Error(w, "no sample available", http.StatusServiceUnavailable)
		return
	}

	logger := s.loggerFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statsResponse{
		Sample:   sample,
		Settings: s.controller.Settings(),
	}); err != nil {
		logger.Error("failed to encode stats", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleStatsCSV(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	sample := s.aggregator.Latest()
	if sample.Timestamp.IsZero() {
		http.Error(w, "no sample available", http.StatusServiceUnavailable)
		return
	}

	logger := s.loggerFromContext(r.Context())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gpu-stats.csv"`)
	if err := export.WriteCSV(w, sample, s.controller.Settings(), s.aggregator.GridFactor()); err != nil {
		logger.Error("failed to write csv export", "err", err)
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	logger := s.loggerFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid settings payload", http.StatusBadRequest)
			return
		}
		if err := s.applySettings(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(settingsResponse{
		Settings: s.controller.Settings(),
		Theme:    s.monitor.Theme(),
	}); err != nil {
		logger.Error("failed to encode settings", "err", err)
	}
}

func (s *Server) applySettings(req settingsRequest) error {
	if req.Theme != "" {
		if err := s.monitor.SetTheme(monitor.Theme(req.Theme)); err != nil {
			return err
		}
	}
	if req.Mode != "" {
		mode, err := cadence.ParseMode(req.Mode)
		if err != nil {
			return err
		}
		if err := s.controller.SetMode(mode); err != nil {
			return err
		}
	}
	if req.TargetFPS != nil {
		if err := s.controller.SetTargetFPS(*req.TargetFPS); err != nil {
			return err
		}
	}
	if req.BackgroundFPS != nil {
		if err := s.controller.SetBackgroundFPS(*req.BackgroundFPS); err != nil {
			return err
		}
	}
	if req.Visible != nil && s.session != nil {
		s.session.SetVisible(*req.Visible)
	}
	return nil
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	logger := s.loggerFromContext(r.Context())
	result, err := s.aggregator.Compare(r.Context())
	if err != nil {
		logger.Warn("comparison failed", "err", err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error("failed to encode comparison", "err", err)
	}
}

type statsResponse struct {
	aggregate.Sample
	Settings cadence.Settings `json:"settings"`
}

type settingsRequest struct {
	Theme         string   `json:"theme"`
	Mode          string   `json:"mode"`
	TargetFPS     *float64 `json:"target_fps"`
	BackgroundFPS *float64 `json:"background_fps"`
	Visible       *bool    `json:"visible"`
}

type settingsResponse struct {
	Settings cadence.Settings `json:"settings"`
	Theme    monitor.Theme    `json:"theme"`
}

type readyResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func registerPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func originPatterns(origins []string) []string {
	for _, origin := range origins {
		if origin == "*" {
			return nil
		}
	}
	dst := make([]string, len(origins))
	copy(dst, origins)
	return dst
}
