package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit action tags. Closed set; add here before using a new one.
const (
	AuditAlertTriggered   = "ALERT_TRIGGERED"
	AuditAlertCancelled   = "ALERT_CANCELLED"
	AuditAlertDispatched  = "ALERT_DISPATCHED"
	AuditAlertResolved    = "ALERT_RESOLVED"
	AuditAlertTimeout     = "ALERT_TIMEOUT"
	AuditLocationUpdated  = "LOCATION_UPDATED"
	AuditContactAdded     = "CONTACT_ADDED"
	AuditContactModified  = "CONTACT_MODIFIED"
	AuditSafeZoneCreated  = "SAFE_ZONE_CREATED"
	AuditSafeZoneModified = "SAFE_ZONE_MODIFIED"
)

// JSONMap stores a free-form metadata blob as a JSON column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported type for JSONMap: %T", value)
}

// AuditEntry is an append-only fact. Entries are never updated or deleted.
type AuditEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"userId" gorm:"index"`
	AlertID     *string   `json:"alertId,omitempty" gorm:"size:36;index"`
	Action      string    `json:"action" gorm:"size:30;index"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ipAddress" gorm:"size:45"`
	UserAgent   string    `json:"userAgent"`
	Metadata    JSONMap   `json:"metadata" gorm:"type:json"`
	Timestamp   time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}
