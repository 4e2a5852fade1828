package repository

import (
	"context"

	"estatehub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Put stores the token for t.Email, replacing any earlier one.
func (r *PasswordResetRepository) Put(ctx context.Context, t *models.PasswordResetToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at"}),
	}).Create(t).Error
}

func (r *PasswordResetRepository) Get(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PasswordResetRepository) Delete(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.PasswordResetToken{}).Error
}
