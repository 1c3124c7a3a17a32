package repository

import (
	"context"
	"time"

	"inertus/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository stores notifications and their outbox events.
type NotificationRepository interface {
	// CreateWithOutbox persists n and the outbox event built from it in one transaction.
	CreateWithOutbox(ctx context.Context, n *models.Notification, build func(*models.Notification) (*models.OutboxEvent, error)) (*models.OutboxEvent, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
}

// OutboxRepository tracks delivery of outbox events.
type OutboxRepository interface {
	DuePending(ctx context.Context, now time.Time, limit int) ([]models.OutboxEvent, error)
	GetByID(ctx context.Context, id uint) (*models.OutboxEvent, error)
	MarkDelivered(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint, attempts int, next time.Time, lastErr string, abandon bool) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateWithOutbox(
	ctx context.Context,
	n *models.Notification,
	build func(*models.Notification) (*models.OutboxEvent, error),
) (*models.OutboxEvent, error) {
	var event *models.OutboxEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(n).Error; err != nil {
			return err
		}
		ev, err := build(n)
		if err != nil {
			return err
		}
		ev.NotificationID = n.ID
		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return event, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(newestFirst("notifications"))
	if err := paginate(q, limit, offset).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// DuePending returns pending events whose next attempt is at or before now, oldest schedule first.
func (r *outboxRepository) DuePending(ctx context.Context, now time.Time, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.OutboxPending, now).
		Order("next_attempt_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	return events, wrapInternal(err)
}

func (r *outboxRepository) GetByID(ctx context.Context, id uint) (*models.OutboxEvent, error) {
	var ev models.OutboxEvent
	if err := r.db.WithContext(ctx).First(&ev, id).Error; err != nil {
		return nil, lookupError(err, "OutboxEvent", id)
	}
	return &ev, nil
}

// MarkDelivered is a no-op for events that are no longer pending.
func (r *outboxRepository) MarkDelivered(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND status = ?", id, models.OutboxPending).
		Updates(map[string]interface{}{
			"status":       models.OutboxDelivered,
			"delivered_at": at,
			"attempts":     gorm.Expr("attempts + 1"),
			"last_error":   "",
		}).Error
	return wrapInternal(err)
}

// MarkFailed records a failed attempt; abandon moves the event out of the pending set for good.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uint, attempts int, next time.Time, lastErr string, abandon bool) error {
	status := models.OutboxPending
	if abandon {
		status = models.OutboxAbandoned
	}
	err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND status = ?", id, models.OutboxPending).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
		}).Error
	return wrapInternal(err)
}
