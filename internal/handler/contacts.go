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

type contactRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	PhoneNumber  string `json:"phone_number"`
	Email        string `json:"email"`
	Priority     int    `json:"priority"`
	IsActive     *bool  `json:"is_active"`
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	var contacts []models.EmergencyContact
	err := h.db.Where("user_id = ?", middleware.UserID(c)).
		Order("priority asc").Order("name asc").
		Find(&contacts).Error
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "contacts", gin.H{"contacts": contacts})
}

func (h *Handlers) handleCreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	contact := models.EmergencyContact{
		UserID:       middleware.UserID(c),
		Name:         req.Name,
		Relationship: req.Relationship,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		Priority:     req.Priority,
		IsActive:     true,
	}
	if contact.Priority == 0 {
		contact.Priority = 1
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}
	if err := contact.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.Create(&contact).Error; err != nil {
		response.Error(c, err)
		return
	}

	h.auditor.Record(contact.UserID, nil, models.AuditContactAdded,
		fmt.Sprintf("Emergency contact added: %s", contact.Name),
		models.JSONMap{"contact_id": contact.ID, "priority": contact.Priority},
		clientMeta(c))
	response.Success(c, "contact created", contact)
}

func (h *Handlers) loadContact(c *gin.Context) (*models.EmergencyContact, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, errors.Validation("invalid contact id")
	}
	var contact models.EmergencyContact
	if err := h.db.First(&contact, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("contact not found")
		}
		return nil, err
	}
	if contact.UserID != middleware.UserID(c) {
		return nil, errors.Forbidden("not your contact")
	}
	return &contact, nil
}

func (h *Handlers) handleUpdateContact(c *gin.Context) {
	contact, err := h.loadContact(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		contact.Name = req.Name
	}
	if req.Relationship != "" {
		contact.Relationship = req.Relationship
	}
	if req.PhoneNumber != "" {
		contact.PhoneNumber = req.PhoneNumber
	}
	if req.Email != "" {
		contact.Email = req.Email
	}
	if req.Priority != 0 {
		contact.Priority = req.Priority
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}
	if err := contact.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.Save(contact).Error; err != nil {
		response.Error(c, err)
		return
	}

	h.auditor.Record(contact.UserID, nil, models.AuditContactModified,
		fmt.Sprintf("Emergency contact updated: %s", contact.Name),
		models.JSONMap{"contact_id": contact.ID, "is_active": contact.IsActive},
		clientMeta(c))
	response.Success(c, "contact updated", contact)
}

func (h *Handlers) handleDeleteContact(c *gin.Context) {
	contact, err := h.loadContact(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.Delete(contact).Error; err != nil {
		response.Error(c, err)
		return
	}

	h.auditor.Record(contact.UserID, nil, models.AuditContactModified,
		fmt.Sprintf("Emergency contact removed: %s", contact.Name),
		models.JSONMap{"contact_id": contact.ID},
		clientMeta(c))
	response.Success(c, "contact deleted", nil)
}
