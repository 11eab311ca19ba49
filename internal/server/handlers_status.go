package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/3bebepapa/agentforge-v2.0/internal/hub"
)

type statusResponse struct {
	Status    string    `json:"status"`
	Stats     hub.Stats `json:"stats"`
	Timestamp string    `json:"timestamp"`
}

// handleStatus is the read-only introspection surface. It is the only path
// that surfaces a structured error to its caller — routing problems on the
// persistent connections never do.
func (s *Server) handleStatus(c echo.Context) error {
	stats, err := s.hub.Stats()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:    "running",
		Stats:     stats,
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}
