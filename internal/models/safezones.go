package models

import (
	"time"

	"SafeSignal/pkg/errors"

	"gorm.io/gorm"
)

const (
	SafeZoneMinRadiusMeters = 50
	SafeZoneMaxRadiusMeters = 5000
)

type SafeZone struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index"`
	Name      string    `json:"name" gorm:"size:100"`
	Latitude  float64   `json:"latitude" gorm:"type:decimal(9,6)"`
	Longitude float64   `json:"longitude" gorm:"type:decimal(9,6)"`
	Radius    int       `json:"radiusMeters" gorm:"column:radius_meters;default:500"`
	IsActive  bool      `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Center implements geo.Zone.
func (z *SafeZone) Center() (float64, float64) { return z.Latitude, z.Longitude }

// RadiusMeters implements geo.Zone.
func (z *SafeZone) RadiusMeters() float64 { return float64(z.Radius) }

func (z *SafeZone) Validate() error {
	if z.Name == "" {
		return errors.Validation("safe zone name is required")
	}
	if z.Latitude < -90 || z.Latitude > 90 || z.Longitude < -180 || z.Longitude > 180 {
		return errors.Validation("safe zone center is out of range")
	}
	if z.Radius < SafeZoneMinRadiusMeters || z.Radius > SafeZoneMaxRadiusMeters {
		return errors.Validationf("safe zone radius must be between %d and %d meters",
			SafeZoneMinRadiusMeters, SafeZoneMaxRadiusMeters)
	}
	return nil
}

// ActiveZonesForUser returns the user's active zones in creation order, the
// stable order the evaluator expects.
func ActiveZonesForUser(db *gorm.DB, userID uint) ([]SafeZone, error) {
	var zones []SafeZone
	err := db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("id asc").
		Find(&zones).Error
	return zones, err
}
