package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"inertus/internal/cache"
	"inertus/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, cache.NewStore(nil))
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		wantCode     string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			wantCode: models.CodeNotFound,
		},
		{
			name:   "Driver Error",
			userID: 5,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
					WithArgs(5, 1).
					WillReturnError(errors.New("connection reset"))
			},
			wantCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.wantCode != "" {
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantCode, appErr.Code)
			} else if assert.NoError(t, err) {
				assert.Equal(t, "testuser", user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByIDUsesCache(t *testing.T) {
	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := NewUserRepository(db, cache.NewStore(rdb))
	ctx := context.Background()

	u := &models.User{Username: "cached", Email: "cached@example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Username)
	assert.True(t, mr.Exists(cache.UserKey(u.ID)))
	assert.NotContains(t, mustGet(t, mr, cache.UserKey(u.ID)), "password", "hash is never cached")

	require.NoError(t, db.Exec("UPDATE users SET username = ? WHERE id = ?", "renamed", u.ID).Error)
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Username, "second read is served from cache")
	assert.Equal(t, "cached@example.com", got.Email)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestUserRepository_CreateDuplicateIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, cache.NewStore(nil))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "dup", Email: "dup@example.com", PasswordHash: "h"}))

	err := repo.Create(ctx, &models.User{Username: "dup", Email: "other@example.com", PasswordHash: "h"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	err = repo.Create(ctx, &models.User{Username: "other", Email: "dup@example.com", PasswordHash: "h"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestUserRepository_LookupMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, cache.NewStore(nil))

	u, err := repo.GetByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{&pgconn.PgError{Code: "23505"}, true},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), false},
		{errors.New("UNIQUE constraint failed: users.username"), true},
		{errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'username'"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isUniqueConstraintError(tt.err), "%v", tt.err)
	}
}
