package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/3bebepapa/agentforge-v2.0/internal/metrics"
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     NewCheckOrigin(s.config.AppURL, s.config.AppEnv == "development"),
	}
}

// handleWebSocket accepts a persistent connection: admission limits, upgrade,
// hub registration, then the read pump until the transport closes.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	allowed, reason := s.limits.Acquire(ip)
	if !allowed {
		metrics.ConnectionsRejectedTotal.WithLabelValues(string(reason)).Inc()
		slog.Warn("WebSocket connection rejected", "ip", ip, "reason", reason)
		if reason == LimitReasonRate {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "connection rate limit exceeded"})
		}
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "connection limit reached"})
	}
	defer s.limits.Release(ip)

	sessionID := c.QueryParam("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade writes its own error response.
		return nil
	}
	conn.SetReadLimit(s.config.MaxMessageSize)

	id, err := s.hub.Accept(conn, sessionID)
	if err != nil {
		slog.Error("Failed to register connection", "error", err)
		_ = conn.Close()
		return nil
	}

	// Read pump — blocks until the connection closes or errors. Close frames,
	// transport errors, and oversized messages all land here and end in the
	// disconnect procedure.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.hub.HandleInbound(id, data)
	}

	s.hub.Disconnect(id)

	return nil
}
