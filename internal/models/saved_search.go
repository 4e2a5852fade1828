package models

import (
	"time"

	"gorm.io/datatypes"
)

// SavedSearch stores criteria exactly as submitted; interpretation happens in package search.
type SavedSearch struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	UserID                uint           `gorm:"not null;index" json:"user_id"`
	Name                  string         `gorm:"size:255;not null" json:"name"`
	Criteria              datatypes.JSON `gorm:"not null" json:"criteria"`
	NotificationFrequency *string        `gorm:"size:16" json:"notification_frequency"`
	IsActive              bool           `gorm:"not null;default:true" json:"is_active"`
	LastNotifiedAt        *time.Time     `json:"last_notified_at"`
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (SavedSearch) TableName() string {
	return "saved_searches"
}
