package handlers

import (
	"SafeSignal/internal/models"
	"SafeSignal/internal/service"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/middleware"
	"SafeSignal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handlers) currentUser(c *gin.Context) (*models.User, error) {
	var user models.User
	if err := h.db.First(&user, middleware.UserID(c)).Error; err != nil {
		return nil, errors.Forbidden("unknown user")
	}
	return &user, nil
}

func clientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: c.ClientIP(),
	}
}

// loadAlert fetches the alert and enforces ownership.
func (h *Handlers) loadAlert(c *gin.Context) (*models.Alert, error) {
	alert, err := models.AlertByID(h.db, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("alert not found")
		}
		return nil, err
	}
	if alert.UserID != middleware.UserID(c) {
		return nil, errors.Forbidden("not your alert")
	}
	return alert, nil
}

func (h *Handlers) handleAlertTrigger(c *gin.Context) {
	var req struct {
		Latitude      *float64 `json:"latitude"`
		Longitude     *float64 `json:"longitude"`
		Accuracy      *float64 `json:"accuracy"`
		TriggerMethod string   `json:"trigger_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}
	user, err := h.currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	alert, err := h.alerts.Trigger(c.Request.Context(), user, service.TriggerInput{
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Accuracy:      req.Accuracy,
		TriggerMethod: req.TriggerMethod,
		Client:        clientMeta(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "alert triggered", alert)
}

func (h *Handlers) handleAlertCancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	alert, err := h.loadAlert(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, err := h.alerts.Cancel(c.Request.Context(), alert, req.Reason, clientMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Error(c, errors.InvalidTransition("alert can no longer be cancelled"))
		return
	}
	response.Success(c, "alert cancelled", alert)
}

func (h *Handlers) handleAlertResolve(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	alert, err := h.loadAlert(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.alerts.Resolve(c.Request.Context(), alert, req.Notes, clientMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "alert resolved", alert)
}

func (h *Handlers) handleSafeWordCheck(c *gin.Context) {
	var req struct {
		SafeWord string `json:"safe_word"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	alert, err := h.loadAlert(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	valid, err := h.alerts.VerifySafeWord(c.Request.Context(), alert, req.SafeWord)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "safe word checked", gin.H{"valid": valid, "alert_id": alert.ID})
}

// handleAlertStatus is readable by the owner or by an active emergency
// contact with a matching forwarded email, mirroring monitor authorization.
func (h *Handlers) handleAlertStatus(c *gin.Context) {
	alert, err := models.AlertByID(h.db, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			response.Error(c, errors.NotFound("alert not found"))
			return
		}
		response.Error(c, err)
		return
	}

	if alert.UserID != middleware.UserID(c) {
		isContact, err := models.IsEmergencyContactEmail(h.db, alert.UserID, middleware.UserEmail(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		if !isContact {
			response.Error(c, errors.Forbidden("not authorized to view this alert"))
			return
		}
	}

	latest, err := models.LatestSampleForAlert(h.db, alert.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "alert status", gin.H{
		"alert":           alert,
		"latest_location": latest,
	})
}

func (h *Handlers) handleAlertHistory(c *gin.Context) {
	alerts, err := models.AlertsForUser(h.db, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "alert history", gin.H{"alerts": alerts})
}
