package repositories

import (
	"context"
	"time"

	"researchhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// userTokenRepository implements UserTokenRepository interface
type userTokenRepository struct {
	db *gorm.DB
}

// NewUserTokenRepository creates a new user token repository
func NewUserTokenRepository(db *gorm.DB) UserTokenRepository {
	return &userTokenRepository{db: db}
}

// Create creates a new single-use token
func (r *userTokenRepository) Create(ctx context.Context, token *models.UserToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByTokenHash gets an unused token by purpose and hash
func (r *userTokenRepository) GetByTokenHash(ctx context.Context, purpose, tokenHash string) (*models.UserToken, error) {
	var token models.UserToken
	err := r.db.WithContext(ctx).
		Where("purpose = ?", purpose).
		Where("token_hash = ?", tokenHash).
		Where("used_at IS NULL").
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed marks a token as consumed
func (r *userTokenRepository) MarkUsed(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.UserToken{}).
		Where("id = ?", id).
		Update("used_at", &now).Error
}

// DeleteExpired deletes expired tokens (cleanup job)
func (r *userTokenRepository) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.UserToken{}).Error
}
