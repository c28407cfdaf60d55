package models

import "gorm.io/gorm"

// Migrate creates or updates the schema for every core model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&EmergencyContact{},
		&SafeZone{},
		&Alert{},
		&LocationSample{},
		&DispatchRecord{},
		&AuditEntry{},
	)
}
