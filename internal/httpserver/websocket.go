package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/api"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/cadence"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/monitor"
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	reqLogger := s.loggerFromContext(r.Context())
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.reserveWS() {
		reqLogger.Warn("websocket rejected", "reason", "capacity")
		http.Error(w, "websocket capacity reached", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseWS()

	opts := &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.cfg.AllowedOrigins),
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		reqLogger.Warn("websocket accept failed", "err", err)
		return
	}
	defer closeWebsocket(reqLogger, conn)

	connID := s.wsConnIDs.Add(1)
	s.wsTotal.Add(1)
	logger := reqLogger.With("ws_id", connID)

	outbound := newWSOutbound(wsSendQueueSize, &s.wsDropped)

	hello := api.NewHelloMessage(
		int(s.cfg.PollInterval/time.Millisecond),
		monitor.Themes(),
		s.controller.Settings(),
		s.aggregator.GridFactor(),
		s.aggregator.SeriesNames(),
	)

	ctx, cancel := context.WithCancel(r.Context())

	writerDone := make(chan struct{})
	go s.wsWriter(ctx, conn, outbound, cancel, logger, writerDone)

	statsCh, unsubscribe := s.aggregator.Subscribe()
	defer func() {
		unsubscribe()
		outbound.close()
		cancel()
		<-writerDone
	}()

	if !s.enqueueMessage(outbound, hello, logger) {
		return
	}

	messageCh := make(chan []byte, 8)
	readErrCh := make(chan error, 1)
	go s.readMessages(ctx, conn, messageCh, readErrCh)

	for {
		select {
		case sample, ok := <-statsCh:
			if !ok {
				return
			}
			if !s.enqueueMessage(outbound, api.NewStatsMessage(sample), logger) {
				return
			}
		case data, ok := <-messageCh:
			if !ok {
				messageCh = nil
				continue
			}
			if err := s.handleClientMessage(ctx, outbound, data, logger); err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
					return
				}
				logger.Warn("client message handling error", "err", err)
				return
			}
		case err := <-readErrCh:
			if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				logger.Warn("websocket read error", "err", err)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) readMessages(ctx context.Context, conn *websocket.Conn, out chan<- []byte, errCh chan<- error) {
	defer close(out)
	for {
		readCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.WS.ReadTimeout > 0 {
			readCtx, cancel = context.WithTimeout(ctx, s.cfg.WS.ReadTimeout)
		}
		msgType, data, err := conn.Read(readCtx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			errCh <- err
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		select {
		case out <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleClientMessage(ctx context.Context, outbound *wsOutbound, data []byte, logger *slog.Logger) error {
	var envelope api.ClientMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		logger.Debug("invalid client message", "err", err)
		return nil
	}

	sendSettings := func() error {
		if !s.enqueueMessage(outbound, api.NewSettingsMessage(s.controller.Settings()), logger) {
			return fmt.Errorf("failed to enqueue settings update")
		}
		return nil
	}

	switch envelope.Type {
	case "set_theme":
		var msg api.SetThemeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return s.mustEnqueueError(outbound, "invalid set_theme payload", logger)
		}
		if err := s.monitor.SetTheme(monitor.Theme(msg.Theme)); err != nil {
			return s.mustEnqueueError(outbound, err.Error(), logger)
		}
		logger.Info("theme changed", "theme", msg.Theme)
	case "set_mode":
		var msg api.SetModeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return s.mustEnqueueError(outbound, "invalid set_mode payload", logger)
		}
		mode, err := cadence.ParseMode(msg.Mode)
		if err != nil {
			return s.mustEnqueueError(outbound, err.Error(), logger)
		}
		if err := s.controller.SetMode(mode); err != nil {
			return s.mustEnqueueError(outbound, err.Error(), logger)
		}
		logger.Info("performance mode changed", "mode", mode)
		return sendSettings()
	case "set_target_fps":
		var msg api.SetFPSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return s.mustEnqueueError(outbound, "invalid set_target_fps payload", logger)
		}
		if err := s.controller.SetTargetFPS(msg.FPS); err != nil {
			return s.mustEnqueueError(outbound, err.Error(), logger)
		}
		return sendSettings()
	case "set_background_fps":
		var msg api.SetFPSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return s.mustEnqueueError(outbound, "invalid set_background_fps payload", logger)
		}
		if err := s.controller.SetBackgroundFPS(msg.FPS); err != nil {
			return s.mustEnqueueError(outbound, err.Error(), logger)
		}
		return sendSettings()
	case "set_visibility":
		var msg api.SetVisibilityMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return s.mustEnqueueError(outbound, "invalid set_visibility payload", logger)
		}
		if s.session != nil {
			s.session.SetVisible(msg.Visible)
		}
		logger.Info("visibility changed", "visible", msg.Visible)
		return sendSettings()
	case "compare":
		// The comparison takes several seconds; run it off the read path
		// and deliver the result as its own message.
		go func() {
			result, err := s.aggregator.Compare(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					_ = s.enqueueError(outbound, err.Error(), logger)
				}
				return
			}
			if !s.enqueueMessage(outbound, api.NewComparisonMessage(result), logger) {
				logger.Warn("failed to enqueue comparison result")
			}
		}()
	case "ping":
		if !s.enqueueMessage(outbound, api.PongMessage{Type: "pong"}, logger) {
			return fmt.Errorf("failed to enqueue pong response")
		}
	default:
		logger.Debug("unknown message type", "type", envelope.Type)
	}
	return nil
}

func (s *Server) mustEnqueueError(outbound *wsOutbound, msg string, logger *slog.Logger) error {
	if !s.enqueueError(outbound, msg, logger) {
		return fmt.Errorf("failed to enqueue error message")
	}
	return nil
}

func (s *Server) wsWriter(ctx context.Context, conn *websocket.Conn, outbound *wsOutbound, cancel context.CancelFunc, logger *slog.Logger, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-outbound.channel():
			if !ok {
				return
			}
			if err := s.writeRaw(ctx, conn, msg); err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					logger.Warn("websocket write failed", "err", err)
				}
				cancel()
				return
			}
			s.wsSent.Add(1)
		}
	}
}

func (s *Server) writeRaw(ctx context.Context, conn *websocket.Conn, data []byte) error {
	writeCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.WS.WriteTimeout > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, s.cfg.WS.WriteTimeout)
	}
	if cancel != nil {
		defer cancel()
	}
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (s *Server) enqueueMessage(outbound *wsOutbound, payload any, logger *slog.Logger) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal websocket payload", "err", err)
		return false
	}
	if !outbound.enqueue(data) {
		logger.Warn("websocket outbound queue unavailable")
		return false
	}
	return true
}

func (s *Server) enqueueError(outbound *wsOutbound, msg string, logger *slog.Logger) bool {
	return s.enqueueMessage(outbound, api.ErrorMessage{Type: "error", Message: msg}, logger)
}

func (s *Server) reserveWS() bool {
	if s.maxWSClients <= 0 {
		s.wsActive.Add(1)
		return true
	}

	for {
		current := s.wsActive.Load()
		if current >= s.maxWSClients {
			s.wsRejected.Add(1)
			return false
		}
		if s.wsActive.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (s *Server) releaseWS() {
	s.wsActive.Add(-1)
}

func closeWebsocket(logger *slog.Logger, conn *websocket.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil && logger != nil {
		logger.Debug("websocket close failed", "err", err)
	}
}

// wsOutbound is a bounded send queue with drop-oldest backpressure. The
// mutex serializes enqueue and close: the comparison runner may still try
// to enqueue after the connection handler has torn down.
type wsOutbound struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
	drops  *atomic.Uint64
}

func newWSOutbound(size int, dropCounter *atomic.Uint64) *wsOutbound {
	if size <= 0 {
		size = 1
	}
	return &wsOutbound{
		ch:    make(chan []byte, size),
		drops: dropCounter,
	}
}

func (o *wsOutbound) enqueue(msg []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		o.countDrop()
		return false
	}

	select {
	case o.ch <- msg:
		return true
	default:
	}

	// Queue full: evict the oldest message to make room.
	select {
	case <-o.ch:
		o.countDrop()
	default:
	}

	select {
	case o.ch <- msg:
		return true
	default:
		o.countDrop()
		return false
	}
}

func (o *wsOutbound) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}

func (o *wsOutbound) channel() <-chan []byte {
	return o.ch
}

func (o *wsOutbound) countDrop() {
	if o.drops != nil {
		o.drops.Add(1)
	}
}
