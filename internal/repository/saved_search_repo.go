package repository

import (
	"context"

	"estatehub/internal/models"

	"gorm.io/gorm"
)

type SavedSearchRepository struct {
	db *gorm.DB
}

func NewSavedSearchRepository(db *gorm.DB) *SavedSearchRepository {
	return &SavedSearchRepository{db: db}
}

func (r *SavedSearchRepository) Create(ctx context.Context, s *models.SavedSearch) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetByID returns gorm.ErrRecordNotFound when no row has this id, regardless of owner.
func (r *SavedSearchRepository) GetByID(ctx context.Context, id uint) (*models.SavedSearch, error) {
	var s models.SavedSearch
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUserID returns one page of the user's searches, newest first, and the user's total.
func (r *SavedSearchRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.SavedSearch, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.SavedSearch{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	list := []models.SavedSearch{}
	if total == 0 {
		return list, 0, nil
	}
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// Update writes only the given columns and reloads s from the same transaction.
func (r *SavedSearchRepository) Update(ctx context.Context, s *models.SavedSearch, fields map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.SavedSearch{ID: s.ID}).Updates(fields).Error; err != nil {
				return err
			}
		}
		return tx.First(s, s.ID).Error
	})
}

func (r *SavedSearchRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.SavedSearch{}, id).Error
}
