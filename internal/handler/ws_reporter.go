package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"SafeSignal/internal/models"
	"SafeSignal/internal/service"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/logger"
	"SafeSignal/pkg/middleware"
	"SafeSignal/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// reporterMessage is the inbound envelope on the reporter socket. Optional
// coordinates are pointers so a missing field is distinguishable from zero.
type reporterMessage struct {
	Type string `json:"type"`

	AlertID   string   `json:"alert_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Altitude  *float64 `json:"altitude"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`

	TriggerMethod string `json:"trigger_method"`
	UserAgent     string `json:"user_agent"`
	IPAddress     string `json:"ip_address"`

	Reason   string `json:"reason"`
	SafeWord string `json:"safe_word"`
}

// handleReporterSocket upgrades the connection for the alert owner's device.
// Unauthenticated connects are rejected before the upgrade, with no message.
func (h *Handlers) handleReporterSocket(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.hub.Upgrade(c.Writer, c.Request, user.ID, user.Email)
	if err != nil {
		logger.Warnf("reporter upgrade failed for user %d: %v", user.ID, err)
		return
	}
	conn.OnMessage = func(data []byte) {
		h.routeReporterMessage(conn, data)
	}
	conn.Start()
}

// routeReporterMessage answers every inbound frame with exactly one ack,
// success or error. Service errors never close the socket.
func (h *Handlers) routeReporterMessage(conn *websocket.Connection, data []byte) {
	var msg reporterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(conn, "", errors.Validation("malformed message"))
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case "location_update":
		h.handleLocationUpdate(ctx, conn, msg)
	case "alert_trigger":
		h.handleSocketTrigger(ctx, conn, msg)
	case "alert_cancel":
		h.handleSocketCancel(ctx, conn, msg)
	case "safe_word_check":
		h.handleSocketSafeWord(ctx, conn, msg)
	default:
		h.sendError(conn, msg.AlertID, errors.Validationf("unknown message type %q", msg.Type))
	}
}

func (h *Handlers) handleLocationUpdate(ctx context.Context, conn *websocket.Connection, msg reporterMessage) {
	if msg.AlertID == "" || msg.Latitude == nil || msg.Longitude == nil {
		h.sendError(conn, msg.AlertID, errors.Validation("alert_id, latitude and longitude are required"))
		return
	}

	sample, err := h.stream.Publish(ctx, conn, service.PublishInput{
		AlertID:   msg.AlertID,
		Latitude:  *msg.Latitude,
		Longitude: *msg.Longitude,
		Accuracy:  msg.Accuracy,
		Altitude:  msg.Altitude,
		Speed:     msg.Speed,
		Heading:   msg.Heading,
	})
	if err != nil {
		h.sendError(conn, msg.AlertID, err)
		return
	}
	h.sendAck(conn, gin.H{"type": "location_saved", "data": sample})
}

func (h *Handlers) handleSocketTrigger(ctx context.Context, conn *websocket.Connection, msg reporterMessage) {
	var user models.User
	if err := h.db.First(&user, conn.UserID).Error; err != nil {
		h.sendError(conn, "", errors.Forbidden("unknown user"))
		return
	}

	alert, err := h.alerts.Trigger(ctx, &user, service.TriggerInput{
		Latitude:      msg.Latitude,
		Longitude:     msg.Longitude,
		TriggerMethod: msg.TriggerMethod,
		Client: service.ClientMeta{
			UserAgent: msg.UserAgent,
			IPAddress: msg.IPAddress,
		},
	})
	if err != nil {
		h.sendError(conn, "", err)
		return
	}
	h.sendAck(conn, gin.H{"type": "alert_triggered", "alert": alert})
}

func (h *Handlers) handleSocketCancel(ctx context.Context, conn *websocket.Connection, msg reporterMessage) {
	alert, err := h.ownedAlert(conn, msg.AlertID)
	if err != nil {
		h.sendError(conn, msg.AlertID, err)
		return
	}

	ok, err := h.alerts.Cancel(ctx, alert, msg.Reason, service.ClientMeta{
		UserAgent: msg.UserAgent,
		IPAddress: msg.IPAddress,
	})
	if err != nil {
		h.sendError(conn, msg.AlertID, err)
		return
	}
	if !ok {
		h.sendError(conn, msg.AlertID, errors.InvalidTransition("alert can no longer be cancelled"))
		return
	}
	h.sendAck(conn, gin.H{"type": "alert_cancelled", "alert_id": alert.ID})
}

func (h *Handlers) handleSocketSafeWord(ctx context.Context, conn *websocket.Connection, msg reporterMessage) {
	if msg.AlertID == "" {
		h.sendError(conn, "", errors.Validation("alert_id is required"))
		return
	}
	alert, err := h.ownedAlert(conn, msg.AlertID)
	if err != nil {
		h.sendError(conn, msg.AlertID, err)
		return
	}

	valid, err := h.alerts.VerifySafeWord(ctx, alert, msg.SafeWord)
	if err != nil {
		h.sendError(conn, msg.AlertID, err)
		return
	}
	h.sendAck(conn, gin.H{"type": "safe_word_result", "valid": valid, "alert_id": alert.ID})
}

func (h *Handlers) ownedAlert(conn *websocket.Connection, alertID string) (*models.Alert, error) {
	alert, err := models.AlertByID(h.db, alertID)
	if err != nil {
		return nil, errors.NotFound("alert not found")
	}
	if alert.UserID != conn.UserID {
		return nil, errors.Forbidden("not your alert")
	}
	return alert, nil
}

func (h *Handlers) sendAck(conn *websocket.Connection, payload gin.H) {
	if err := conn.SendJSON(payload); err != nil {
		logger.Warnf("ack dropped on %s: %v", conn.ID, err)
	}
}

func (h *Handlers) sendError(conn *websocket.Connection, alertID string, err error) {
	payload := gin.H{
		"type":    "error",
		"code":    errors.GetCode(err),
		"message": errors.GetMessage(err),
	}
	if alertID != "" {
		payload["alert_id"] = alertID
	}
	h.sendAck(conn, payload)
}
