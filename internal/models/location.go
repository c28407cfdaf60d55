package models

import (
	"time"

	"gorm.io/gorm"
)

// LocationSample is one position report tied to an alert. Samples are
// immutable once created and only exist while their alert is non-terminal.
type LocationSample struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	AlertID        string    `json:"alertId" gorm:"size:36;index"`
	Latitude       float64   `json:"latitude" gorm:"type:decimal(9,6)"`
	Longitude      float64   `json:"longitude" gorm:"type:decimal(9,6)"`
	Accuracy       *float64  `json:"accuracy,omitempty"`
	Altitude       *float64  `json:"altitude,omitempty"`
	Speed          *float64  `json:"speed,omitempty"`
	Heading        *float64  `json:"heading,omitempty"`
	Timestamp      time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
	InSafeZone     bool      `json:"inSafeZone"`
	NearestZoneID  *uint     `json:"nearestZoneId,omitempty"`
	CreatedAt      time.Time `json:"-" gorm:"autoCreateTime"`
}

// LatestSampleForAlert returns the most recent sample, or nil when the alert
// has none yet.
func LatestSampleForAlert(db *gorm.DB, alertID string) (*LocationSample, error) {
	var sample LocationSample
	err := db.Where("alert_id = ?", alertID).
		Order("timestamp desc").Order("id desc").
		First(&sample).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}
