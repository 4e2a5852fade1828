package repository

import (
	"context"

	"estatehub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add is a no-op when the pair already exists.
func (r *FavoriteRepository) Add(ctx context.Context, userID, listingID uint) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, ListingID: listingID}).Error
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&models.Favorite{})
	return res.RowsAffected > 0, res.Error
}

func (r *FavoriteRepository) IsFavorite(ctx context.Context, userID, listingID uint) (bool, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&c).Error
	return c > 0, err
}

// ListByUserID returns one page of the user's favorites, newest first, with listing details.
func (r *FavoriteRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Favorite, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Favorite{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	list := []models.Favorite{}
	if total == 0 {
		return list, 0, nil
	}
	err := q.Preload("Listing").Preload("Listing.PropertyImages").
		Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
