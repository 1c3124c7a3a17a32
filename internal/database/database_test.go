package database

import (
	"testing"

	"inertus/internal/config"
	"inertus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		dbType string
		want   string
	}{
		{"postgres", "postgres"},
		{"postgresql", "postgres"},
		{"mysql", "mysql"},
		{"mariadb", "mysql"},
		{"sqlite", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBType: tt.dbType, DBName: ":memory:"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestConnect_SQLiteMigratesSchema(t *testing.T) {
	db, err := Connect(&config.Config{Env: "test", DBType: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "%T table missing", m)
	}

	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	dup := models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	assert.Error(t, db.Create(&dup).Error, "username must be unique")
}

func TestPersistentModels_IncludesOutbox(t *testing.T) {
	var found bool
	for _, m := range PersistentModels() {
		if _, ok := m.(*models.OutboxEvent); ok {
			found = true
		}
	}
	assert.True(t, found)
}
