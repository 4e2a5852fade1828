package models

import "time"

// Listing is owned by the listings module; the saved-search engine only reads it.
type Listing struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	AdTypeID     *uint     `gorm:"index" json:"ad_type_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	City         string    `gorm:"size:100;index" json:"city"`
	State        string    `gorm:"size:100;index" json:"state"`
	PropertyType string    `gorm:"size:50;index" json:"property_type"`
	ListingType  string    `gorm:"size:20;index" json:"listing_type"` // sale | rent
	Price        float64   `gorm:"type:decimal(14,2);not null;index" json:"price"`
	Bedrooms     int       `gorm:"not null;default:0" json:"bedrooms"`
	Bathrooms    int       `gorm:"not null;default:0" json:"bathrooms"`
	Area         float64   `gorm:"type:decimal(10,2);not null;default:0" json:"area"`
	IsFurnished  bool      `gorm:"not null;default:false" json:"is_furnished"`
	Status       string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User           *UserSummary    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AdType         *AdType         `gorm:"foreignKey:AdTypeID" json:"ad_type,omitempty"`
	PropertyImages []PropertyImage `gorm:"foreignKey:ListingID" json:"property_images"`
}

func (Listing) TableName() string {
	return "listings"
}

type AdType struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Price        float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	DurationDays int       `gorm:"not null;default:30" json:"duration_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AdType) TableName() string {
	return "ad_types"
}

type PropertyImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func (PropertyImage) TableName() string {
	return "property_images"
}
