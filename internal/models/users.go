package models

import (
	"strings"
	"time"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex"`
	Email       string    `json:"email" gorm:"size:254;index"`
	FirstName   string    `json:"firstName" gorm:"size:150"`
	LastName    string    `json:"lastName" gorm:"size:150"`
	PhoneNumber string    `json:"phoneNumber" gorm:"size:15"`
	SafeWord    string    `json:"-" gorm:"size:50"` // shared secret for self-cancelling an alert
	ActiveAlert bool      `json:"activeAlert"`      // true while a non-terminal alert exists
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// DisplayName prefers the full name over the username.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}
