package handlers

import (
	"context"
	"net/http"

	"SafeSignal/pkg/logger"
	"SafeSignal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// handleMonitorSocket binds one connection to one alert for the life of the
// socket. Authorization runs once at connect; an unauthorized subscriber is
// closed without a message. Monitors only receive; inbound frames are
// ignored.
func (h *Handlers) handleMonitorSocket(c *gin.Context) {
	if middleware.UserID(c) == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	alertID := c.Param("id")

	conn, err := h.hub.Upgrade(c.Writer, c.Request, middleware.UserID(c), middleware.UserEmail(c))
	if err != nil {
		logger.Warnf("monitor upgrade failed: %v", err)
		return
	}
	// the hub drops every subscription when the connection unregisters, so
	// disconnect cleanup needs no OnClose hook here
	conn.Start()

	alert, owner, latest, err := h.stream.Subscribe(context.Background(), conn, alertID)
	if err != nil {
		logger.Infof("monitor %s rejected for alert %s: %v", conn.ID, alertID, err)
		conn.Close()
		return
	}

	h.sendAck(conn, gin.H{
		"type":            "alert_status",
		"alert":           alert,
		"owner_name":      owner.DisplayName(),
		"latest_location": latest,
	})
}
