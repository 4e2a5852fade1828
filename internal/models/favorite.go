package models

import "time"

// Favorite bookmarks one listing for one user.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_fav_user_listing,unique" json:"user_id"`
	ListingID uint      `gorm:"not null;index:idx_fav_user_listing,unique" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"listing,omitempty"`
}

func (Favorite) TableName() string {
	return "favorites"
}
