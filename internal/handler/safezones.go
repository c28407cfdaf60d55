package handlers

import (
	"fmt"
	"strconv"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/middleware"
	"SafeSignal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type safeZoneRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    int      `json:"radius_meters"`
	IsActive  *bool    `json:"is_active"`
}

func (h *Handlers) handleListSafeZones(c *gin.Context) {
	var zones []models.SafeZone
	err := h.db.Where("user_id = ?", middleware.UserID(c)).
		Order("id asc").
		Find(&zones).Error
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "safe zones", gin.H{"zones": zones})
}

func (h *Handlers) handleCreateSafeZone(c *gin.Context) {
	var req safeZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		response.Error(c, errors.Validation("latitude and longitude are required"))
		return
	}

	zone := models.SafeZone{
		UserID:    middleware.UserID(c),
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Radius:    req.Radius,
		IsActive:  true,
	}
	if req.IsActive != nil {
		zone.IsActive = *req.IsActive
	}
	if err := zone.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.Create(&zone).Error; err != nil {
		response.Error(c, err)
		return
	}

	h.auditor.Record(zone.UserID, nil, models.AuditSafeZoneCreated,
		fmt.Sprintf("Safe zone created: %s", zone.Name),
		models.JSONMap{"zone_id": zone.ID, "radius_meters": zone.Radius},
		clientMeta(c))
	response.Success(c, "safe zone created", zone)
}

func (h *Handlers) loadSafeZone(c *gin.Context) (*models.SafeZone, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, errors.Validation("invalid safe zone id")
	}
	var zone models.SafeZone
	if err := h.db.First(&zone, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("safe zone not found")
		}
		return nil, err
	}
	if zone.UserID != middleware.UserID(c) {
		return nil, errors.Forbidden("not your safe zone")
	}
	return &zone, nil
}

func (h *Handlers) handleUpdateSafeZone(c *gin.Context) {
	zone, err := h.loadSafeZone(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req safeZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		zone.Name = req.Name
	}
	if req.Latitude != nil {
		zone.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		zone.Longitude = *req.Longitude
	}
	if req.Radius != 0 {
		zone.Radius = req.Radius
	}
	if req.IsActive != nil {
		zone.IsActive = *req.IsActive
	}
	if err := zone.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.Save(zone).Error; err != nil {
		response.Error(c, err)
		return
	}

	h.auditor.Record(zone.UserID, nil, models.AuditSafeZoneModified,
		fmt.Sprintf("Safe zone updated: %s", zone.Name),
		models.JSONMap{"zone_id": zone.ID, "is_active": zone.IsActive},
		clientMeta(c))
	response.Success(c, "safe zone updated", zone)
}

func (h *Handlers) handleDeleteSafeZone(c *gin.Context) {
	zone, err := h.loadSafeZone(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.Delete(zone).Error; err != nil {
		response.Error(c, err)
		return
	}

	h.auditor.Record(zone.UserID, nil, models.AuditSafeZoneModified,
		fmt.Sprintf("Safe zone removed: %s", zone.Name),
		models.JSONMap{"zone_id": zone.ID},
		clientMeta(c))
	response.Success(c, "safe zone deleted", nil)
}
