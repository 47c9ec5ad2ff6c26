package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrDuplicate        = errors.New("duplicate key")
	ErrInvalidReference = errors.New("foreign key violation")
	ErrRefreshInvalid   = errors.New("refresh token expired or revoked")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// translate folds driver-specific constraint errors into package sentinels.
// gorm's postgres translator only knows pgx errors, so lib/pq codes are
// checked here as well.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
