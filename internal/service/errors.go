package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/logging"
	"github.com/Skotchmaster/restoran/internal/models"
)

// storeError maps a repository error onto the client-facing taxonomy. The raw
// cause is logged and kept only as the wrapped error.
func storeError(ctx context.Context, op string, err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, notFound, err)
	}
	logging.FromContext(ctx).Error(op+"_failed", "status", 500, "error", err)
	return apperr.Internal(err)
}

func canManage(actor *models.Account, ownerID *uint) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RoleAdmin || (ownerID != nil && *ownerID == actor.ID)
}
