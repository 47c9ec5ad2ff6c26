package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/restoran/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.DB.WithContext(ctx).Omit("User").Create(token).Error; err != nil {
		return fmt.Errorf("store refresh token: %w", translate(err))
	}
	return nil
}

func refreshUsable(db *gorm.DB, jti, hash string, now time.Time) error {
	var token models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&token).Error; err != nil {
		return err
	}
	if token.Revoked || token.Token != hash || token.ExpiresAt <= now.Unix() {
		return ErrRefreshInvalid
	}
	return nil
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction. The
// revoke is conditional on the row still being live, so two concurrent
// rotations of the same token cannot both succeed.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, next *models.RefreshToken, now time.Time) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := refreshUsable(tx, oldJTI, oldHash, now); err != nil {
			return err
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshInvalid
		}

		return tx.Omit("User").Create(next).Error
	})
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", translate(err))
	}
	return nil
}

// RevokeRefreshToken is idempotent; an unknown hash is not an error.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	if err := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", hash).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
