// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"inertus/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError reports whether err is a unique constraint violation on any
// supported driver.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key")
}

// lookupError maps a single-row lookup failure to a NOT_FOUND or INTERNAL_ERROR AppError.
func lookupError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	return models.NewInternalError(err)
}

// newestFirst orders by creation time with the primary key as tie-breaker.
func newestFirst(table string) string {
	return table + ".created_at DESC, " + table + ".id DESC"
}

func paginate(db *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}
	return db
}
