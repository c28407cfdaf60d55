package service

import (
	"SafeSignal/internal/models"
	"SafeSignal/pkg/logger"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
)

// ClientMeta carries the client fingerprint recorded on state-changing
// operations.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// Auditor appends audit entries. Writes are best-effort: a failed write is
// logged and never fails the operation that produced it.
type Auditor struct {
	db *gorm.DB
}

func NewAuditor(db *gorm.DB) *Auditor {
	return &Auditor{db: db}
}

func (a *Auditor) Record(userID uint, alertID *string, action, description string, meta models.JSONMap, client ClientMeta) {
	if meta == nil {
		meta = models.JSONMap{}
	}
	if client.UserAgent != "" {
		ua := user_agent.New(client.UserAgent)
		browser, version := ua.Browser()
		meta["client_browser"] = browser + " " + version
		meta["client_os"] = ua.OS()
		meta["client_mobile"] = ua.Mobile()
	}

	entry := models.AuditEntry{
		UserID:      userID,
		AlertID:     alertID,
		Action:      action,
		Description: description,
		IPAddress:   client.IPAddress,
		UserAgent:   client.UserAgent,
		Metadata:    meta,
	}
	if err := a.db.Create(&entry).Error; err != nil {
		logger.Errorf("audit write failed for action %s: %v", action, err)
	}
}
