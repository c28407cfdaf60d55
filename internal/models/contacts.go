package models

import (
	"regexp"
	"time"

	"SafeSignal/pkg/errors"

	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,17}$`)

type EmergencyContact struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"userId" gorm:"index"`
	Name         string    `json:"name" gorm:"size:100"`
	Relationship string    `json:"relationship" gorm:"size:50"`
	PhoneNumber  string    `json:"phoneNumber" gorm:"size:15"`
	Email        string    `json:"email" gorm:"size:254;index"`
	Priority     int       `json:"priority" gorm:"default:1"` // 1 is highest
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (c *EmergencyContact) Validate() error {
	if c.Name == "" {
		return errors.Validation("contact name is required")
	}
	if !phonePattern.MatchString(c.PhoneNumber) {
		return errors.Validation("contact phone number is invalid")
	}
	if c.Email == "" {
		return errors.Validation("contact email is required")
	}
	if c.Priority < 1 {
		return errors.Validation("contact priority must be at least 1")
	}
	return nil
}

// ActiveContactsForUser returns active contacts in dispatch order: priority
// ascending, ties broken by name.
func ActiveContactsForUser(db *gorm.DB, userID uint) ([]EmergencyContact, error) {
	var contacts []EmergencyContact
	err := db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("priority asc").Order("name asc").
		Find(&contacts).Error
	return contacts, err
}

// IsEmergencyContactEmail reports whether email belongs to one of the user's
// active emergency contacts. Used for monitor authorization.
func IsEmergencyContactEmail(db *gorm.DB, userID uint, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	err := db.Model(&EmergencyContact{}).
		Where("user_id = ? AND is_active = ? AND email = ?", userID, true, email).
		Count(&count).Error
	return count > 0, err
}
