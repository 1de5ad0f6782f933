package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/course_enrollment/internal/hash"
	"github.com/Skotchmaster/course_enrollment/internal/models"
)

// AddRefreshToken stores the digest of token; rec.TokenHash is filled in here.
func (r *GormRepo) AddRefreshToken(ctx context.Context, token string, rec *models.RefreshToken) error {
	rec.TokenHash = hash.Sha256Hex(token)
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *GormRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	if err := r.DB.WithContext(ctx).
		Where("token_hash = ?", hash.Sha256Hex(token)).
		First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// DeleteRefreshToken revokes a token. Deleting an unknown token is not an error.
func (r *GormRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).
		Where("token_hash = ?", hash.Sha256Hex(token)).
		Delete(&models.RefreshToken{}).Error
}

// PurgeExpiredRefreshTokens deletes the user's refresh-token records that
// expired before now and returns how many were removed.
func (r *GormRepo) PurgeExpiredRefreshTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND expires_at < ?", userID, now.UTC()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
