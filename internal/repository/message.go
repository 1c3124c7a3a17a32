package repository

import (
	"context"

	"inertus/internal/models"

	"gorm.io/gorm"
)

// MessageRepository stores direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListSent(ctx context.Context, userID uint) ([]models.Message, error)
	ListReceived(ctx context.Context, userID uint) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	return wrapInternal(r.db.WithContext(ctx).Create(msg).Error)
}

// ListSent returns messages sent by userID, newest first, with their receivers.
func (r *messageRepository) ListSent(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).Preload("Receiver").
		Where("sender_id = ?", userID).
		Order(newestFirst("messages")).
		Find(&msgs).Error
	return msgs, wrapInternal(err)
}

// ListReceived returns messages addressed to userID, newest first, with their senders.
func (r *messageRepository) ListReceived(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).Preload("Sender").
		Where("receiver_id = ?", userID).
		Order(newestFirst("messages")).
		Find(&msgs).Error
	return msgs, wrapInternal(err)
}
