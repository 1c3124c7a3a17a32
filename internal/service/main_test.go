package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inertus/internal/config"
	"inertus/internal/database"
	"inertus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{Env: "test", DBType: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

type sentNotification struct {
	UserID  uint
	Content string
	Kind    string
}

// senderStub records notifications instead of storing them.
type senderStub struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (s *senderStub) CreateNotification(_ context.Context, userID uint, content, kind string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, sentNotification{UserID: userID, Content: content, Kind: kind})
	return &models.Notification{UserID: userID, Content: content, Type: kind}, nil
}

func (s *senderStub) all() []sentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentNotification(nil), s.sent...)
}

// publisherStub records published payloads and fails while err is set.
type publisherStub struct {
	mu        sync.Mutex
	err       error
	published map[string][][]byte
}

func (p *publisherStub) Publish(_ context.Context, room string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.published == nil {
		p.published = make(map[string][][]byte)
	}
	p.published[room] = append(p.published[room], payload)
	return nil
}

func (p *publisherStub) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *publisherStub) count(room string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published[room])
}
