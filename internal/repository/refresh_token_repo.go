package repository

import (
	"context"
	"time"

	"gameauth/internal/domain"

	"gorm.io/gorm"
)

// RefreshTokenRepository provides DB access for refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create inserts a new active token record. The unique index on token_hash
// makes a hash collision an error, never a silent overwrite.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	err := r.db.WithContext(ctx).Create(t).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke sets the revocation timestamp if the record is still active and
// reports whether this call actually revoked it. A false return with no
// error means someone else consumed the token first.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id int64) (bool, error) {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// RevokeFamily revokes every currently-active record in the family.
func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", now).Error
}
