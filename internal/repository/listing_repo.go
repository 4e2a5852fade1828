package repository

import (
	"context"
	"database/sql"

	"estatehub/internal/models"
	"estatehub/internal/search"

	"gorm.io/gorm"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Search runs the plan and returns one page with owner, ad type and images attached.
// Count and page read share one read-only transaction so total matches the page.
func (r *ListingRepository) Search(ctx context.Context, plan search.Plan, limit, offset int) ([]models.Listing, int64, error) {
	var total int64
	list := []models.Listing{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := plan.Filter(tx.Model(&models.Listing{})).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 || int64(offset) >= total {
			return nil
		}
		return withAssociations(plan.Apply(tx.Model(&models.Listing{}))).
			Limit(limit).Offset(offset).Find(&list).Error
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func withAssociations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("AdType").
		Preload("PropertyImages", func(db *gorm.DB) *gorm.DB { return db.Order("is_primary DESC").Order("id ASC") })
}

func (r *ListingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var l models.Listing
	if err := withAssociations(r.db.WithContext(ctx)).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateStatus returns gorm.ErrRecordNotFound when no listing has this id.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id uint, status string) (*models.Listing, error) {
	var l models.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&l, id).Error; err != nil {
			return err
		}
		return tx.Model(&l).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	l.Status = status
	return &l, nil
}
