package model

import (
	"time"

	"gorm.io/gorm"
)

// Device is a managed ISG endpoint. UID and IPAddress are unique across all
// stored devices; the unique indexes are the final arbiter for that rule.
type Device struct {
	ID            uint   `gorm:"primarykey"`
	UID           string `gorm:"uniqueIndex;size:64;not null"`
	IPAddress     string `gorm:"uniqueIndex;size:100;not null"`
	Port          int    `gorm:"not null"`
	AdminUsername string `gorm:"size:100;not null"`
	AdminPassword string `gorm:"size:256;not null"` // stored as given, not hashed
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == 0 {
		d.ID = GenerateID()
	}
	return nil
}
