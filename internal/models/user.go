package models

import (
	"time"

	"estatehub/internal/domain"
)

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:255;not null" json:"name"`
	Email           string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash    string     `gorm:"size:255" json:"-"`
	Role            string     `gorm:"size:20;not null;default:'user';index" json:"role"`
	GoogleID        *string    `gorm:"uniqueIndex;size:255" json:"-"`
	FacebookID      *string    `gorm:"uniqueIndex;size:255" json:"-"`
	AvatarURL       string     `gorm:"size:512" json:"avatar_url"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	SavedSearches []SavedSearch `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

// UserSummary is the owner snippet attached to listing results.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (UserSummary) TableName() string {
	return "users"
}
