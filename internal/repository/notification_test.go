package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"inertus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func pendingEvent(n *models.Notification) (*models.OutboxEvent, error) {
	return &models.OutboxEvent{
		UserID:        n.UserID,
		Room:          "user_1",
		Payload:       `{"type":"notification"}`,
		Status:        models.OutboxPending,
		NextAttemptAt: time.Now().UTC(),
	}, nil
}

func TestNotificationRepository_CreateWithOutboxIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "notified")
	repo := NewNotificationRepository(db)

	n := &models.Notification{UserID: u.ID, Content: "hello", Type: models.NotificationGeneral}
	ev, err := repo.CreateWithOutbox(ctx, n, pendingEvent)
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.Equal(t, n.ID, ev.NotificationID)

	_, err = repo.CreateWithOutbox(ctx, &models.Notification{UserID: u.ID, Content: "broken"},
		func(*models.Notification) (*models.OutboxEvent, error) { return nil, errors.New("encode failed") })
	require.Error(t, err)

	var notes, events int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&notes).Error)
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.EqualValues(t, 1, notes, "failed build rolls the notification back")
	assert.EqualValues(t, 1, events)

	list, err := repo.ListByUser(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Content)
}

func TestNotificationRepository_LongContent(t *testing.T) {
	db := setupTestDB(t)

	stmt := &gorm.Statement{DB: db}
	require.NoError(t, stmt.Parse(&models.Notification{}))
	field := stmt.Schema.LookUpField("Content")
	require.NotNil(t, field)
	assert.Equal(t, "text", field.TagSettings["TYPE"], "content is unbounded text")
	assert.Zero(t, field.Size)

	ctx := context.Background()
	u := createUser(t, db, "reader")
	repo := NewNotificationRepository(db)

	content := "someone commented on your post " + `"` + strings.Repeat("t", 200) + `"` + strings.Repeat("!", 100)
	require.Greater(t, len(content), 255)
	_, err := repo.CreateWithOutbox(ctx, &models.Notification{UserID: u.ID, Content: content, Type: models.NotificationComment}, pendingEvent)
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, content, list[0].Content)
}

func TestOutboxRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "outboxed")
	notes := NewNotificationRepository(db)
	outbox := NewOutboxRepository(db)

	ev, err := notes.CreateWithOutbox(ctx, &models.Notification{UserID: u.ID, Content: "x"}, pendingEvent)
	require.NoError(t, err)

	now := time.Now().UTC().Add(time.Second)
	due, err := outbox.DuePending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	later := now.Add(time.Minute)
	require.NoError(t, outbox.MarkFailed(ctx, ev.ID, 1, later, "redis down", false))
	due, err = outbox.DuePending(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "rescheduled event is not due yet")

	due, err = outbox.DuePending(ctx, later.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)
	assert.Equal(t, "redis down", due[0].LastError)

	require.NoError(t, outbox.MarkDelivered(ctx, ev.ID, later))
	got, err := outbox.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutboxDelivered, got.Status)
	assert.Equal(t, 2, got.Attempts)
	assert.NotNil(t, got.DeliveredAt)
	assert.Empty(t, got.LastError)

	require.NoError(t, outbox.MarkFailed(ctx, ev.ID, 9, later, "late", true))
	got, err = outbox.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutboxDelivered, got.Status, "delivered events are final")
}

func TestOutboxRepository_Abandon(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "abandoned")
	ev, err := NewNotificationRepository(db).CreateWithOutbox(ctx, &models.Notification{UserID: u.ID, Content: "x"}, pendingEvent)
	require.NoError(t, err)
	outbox := NewOutboxRepository(db)

	require.NoError(t, outbox.MarkFailed(ctx, ev.ID, 8, time.Now().UTC(), "gave up", true))

	due, err := outbox.DuePending(ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	got, err := outbox.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutboxAbandoned, got.Status)
	assert.Equal(t, "gave up", got.LastError)
}
