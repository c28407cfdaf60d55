package handlers

import (
	"SafeSignal/internal/models"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/middleware"
	"SafeSignal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// handleMonitorEvents is the SSE fallback for monitors that cannot hold a
// websocket. Same authorization as the monitor socket: owner, or active
// contact by email.
func (h *Handlers) handleMonitorEvents(c *gin.Context) {
	if h.events == nil {
		response.Error(c, errors.NotFound("event stream not enabled"))
		return
	}

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
			response.Error(c, errors.Forbidden("not authorized to monitor this alert"))
			return
		}
	}

	h.events.Serve(c, "sse_"+uuid.NewString(), alert.ID)
}
