package repository

import (
	"context"
	"errors"

	"estatehub/internal/domain"
	"estatehub/internal/models"

	"gorm.io/gorm"
)

var ErrUnknownProvider = errors.New("unknown login provider")

// UserRepository reads and writes accounts. Lookups return gorm.ErrRecordNotFound for a miss,
// and Create returns gorm.ErrDuplicatedKey when the email or provider id is taken.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return first(r.db.WithContext(ctx).Where("email = ?", email))
}

// GetByProviderID finds the account linked to a social login, provider being "google" or "facebook".
func (r *UserRepository) GetByProviderID(ctx context.Context, provider, id string) (*models.User, error) {
	col, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	return first(r.db.WithContext(ctx).Where(col+" = ?", id))
}

// Update writes the mutable account columns. Email and role are never changed here.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Model(u).
		Select("name", "password_hash", "avatar_url", "google_id", "facebook_id", "is_active", "email_verified_at").
		Updates(u).Error
}

func first(q *gorm.DB) (*models.User, error) {
	var u models.User
	if err := q.Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case domain.ProviderGoogle:
		return "google_id", nil
	case domain.ProviderFacebook:
		return "facebook_id", nil
	}
	return "", ErrUnknownProvider
}
