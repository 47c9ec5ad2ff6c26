package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/restoran/internal/models"
	"github.com/Skotchmaster/restoran/internal/transport"
)

// CreateAccountWithProfile inserts both rows or neither.
func (r *GormRepo) CreateAccountWithProfile(ctx context.Context, acc *models.Account, profile *models.Profile) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(acc).Error; err != nil {
			return err
		}
		profile.UserID = acc.ID
		return tx.Omit(clause.Associations).Create(profile).Error
	})
	if err != nil {
		return fmt.Errorf("create account %q: %w", acc.Username, translate(err))
	}
	acc.Profile = profile
	return nil
}

func (r *GormRepo) IdentityTaken(ctx context.Context, username, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check identity: %w", err)
	}
	return count > 0, nil
}

func (r *GormRepo) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&acc).Error; err != nil {
		return nil, fmt.Errorf("find account by username: %w", err)
	}
	return &acc, nil
}

func (r *GormRepo) FindAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).First(&acc, id).Error; err != nil {
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return &acc, nil
}

func (r *GormRepo) ListAccounts(ctx context.Context, offset, limit int) (int64, []models.Account, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count accounts: %w", err)
	}

	var items []models.Account
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("list accounts: %w", err)
	}
	return total, items, nil
}

// DeleteAccount removes the account with its profile, refresh tokens and
// reviews, and detaches the restaurants it owned.
func (r *GormRepo) DeleteAccount(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acc models.Account
		if err := tx.First(&acc, id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Restaurant{}).Where("owner_id = ?", id).Update("owner_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&acc).Error
	})
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

func (r *GormRepo) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var p models.Profile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, fmt.Errorf("find profile of %d: %w", userID, err)
	}
	return &p, nil
}

func (r *GormRepo) UpdateProfile(ctx context.Context, userID uint, req transport.UpdateProfileRequest) (*models.Profile, error) {
	var p models.Profile
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&p).Error; err != nil {
			return err
		}

		if req.DisplayName != nil {
			p.DisplayName = *req.DisplayName
		}
		if req.ContactEmail != nil {
			p.ContactEmail = *req.ContactEmail
		}
		if req.PhoneNumber != nil {
			p.PhoneNumber = *req.PhoneNumber
		}
		if req.AvatarURL != nil {
			p.AvatarURL = *req.AvatarURL
		}

		return tx.Omit(clause.Associations).Save(&p).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update profile of %d: %w", userID, err)
	}
	return &p, nil
}
