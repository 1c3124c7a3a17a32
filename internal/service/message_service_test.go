package service

import (
	"context"
	"fmt"
	"testing"

	"inertus/internal/cache"
	"inertus/internal/models"
	"inertus/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMessageService(db *gorm.DB, sender NotificationSender) *MessageService {
	return NewMessageService(
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db, cache.NewStore(nil)),
		sender,
	)
}

func TestMessageService_ListMessages(t *testing.T) {
	db := setupTestDB(t)
	sender := &senderStub{}
	svc := newMessageService(db, sender)
	ctx := context.Background()

	me := createUser(t, db, "me")
	friend := createUser(t, db, "friend")

	for i := 1; i <= 2; i++ {
		_, err := svc.SendMessage(ctx, SendMessageInput{SenderID: me.ID, SenderUsername: "me", ReceiverID: friend.ID, Content: fmt.Sprintf("out %d", i)})
		require.NoError(t, err)
	}
	for i := 1; i <= 3; i++ {
		_, err := svc.SendMessage(ctx, SendMessageInput{SenderID: friend.ID, SenderUsername: "friend", ReceiverID: me.ID, Content: fmt.Sprintf("in %d", i)})
		require.NoError(t, err)
	}

	inbox, err := svc.ListMessages(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, inbox.Sent, 2)
	require.Len(t, inbox.Received, 3)
	assert.Equal(t, "out 2", inbox.Sent[0].Content)
	assert.Equal(t, "in 3", inbox.Received[0].Content)

	sent := sender.all()
	require.Len(t, sent, 5)
	assert.Equal(t, friend.ID, sent[0].UserID)
	assert.Equal(t, models.NotificationMessage, sent[0].Kind)
	assert.Equal(t, "New message from me", sent[0].Content)
}

func TestMessageService_UnknownReceiver(t *testing.T) {
	db := setupTestDB(t)
	svc := newMessageService(db, nil)
	ctx := context.Background()
	me := createUser(t, db, "me")

	_, err := svc.SendMessage(ctx, SendMessageInput{SenderID: me.ID, ReceiverID: 999, Content: "hello?"})
	assertAppError(t, err, models.CodeNotFound)

	_, err = svc.Receiver(ctx, 999)
	assertAppError(t, err, models.CodeNotFound)

	summary, err := svc.Receiver(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "me", summary.Username)

	_, err = svc.SendMessage(ctx, SendMessageInput{SenderID: me.ID, ReceiverID: me.ID, Content: "note to self"})
	require.NoError(t, err)

	inbox, err := svc.ListMessages(ctx, me.ID)
	require.NoError(t, err)
	assert.Len(t, inbox.Sent, 1)
	assert.Len(t, inbox.Received, 1)
}

func TestMessageService_EmptyInbox(t *testing.T) {
	db := setupTestDB(t)
	svc := newMessageService(db, nil)
	me := createUser(t, db, "lonely")

	inbox, err := svc.ListMessages(context.Background(), me.ID)
	require.NoError(t, err)
	assert.NotNil(t, inbox.Sent)
	assert.NotNil(t, inbox.Received)
}
