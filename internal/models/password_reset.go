package models

import "time"

// PasswordResetToken holds the hashed reset token for one email. A new request replaces it.
type PasswordResetToken struct {
	Email     string    `gorm:"primaryKey;size:255"`
	TokenHash string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
