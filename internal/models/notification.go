package models

import "time"

// Notification types.
const (
	NotificationGeneral   = "general"
	NotificationMessage   = "message"
	NotificationComment   = "comment"
	NotificationGroupJoin = "group_join"
)

// Notification is a persisted feed entry for one user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Type      string    `gorm:"size:50;not null;default:'general'" json:"type"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// OutboxStatus is the delivery state of an OutboxEvent.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxDelivered OutboxStatus = "delivered"
	OutboxAbandoned OutboxStatus = "abandoned"
)

// OutboxEvent is a live notification payload awaiting publication to a room.
// It is written in the same transaction as its Notification.
type OutboxEvent struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	NotificationID uint         `gorm:"not null;index" json:"notification_id"`
	UserID         uint         `gorm:"not null" json:"user_id"`
	Room           string       `gorm:"size:64;not null" json:"room"`
	Payload        string       `gorm:"type:text;not null" json:"payload"`
	Status         OutboxStatus `gorm:"size:20;not null;default:'pending';index:idx_outbox_due,priority:1" json:"status"`
	Attempts       int          `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt  time.Time    `gorm:"not null;index:idx_outbox_due,priority:2" json:"next_attempt_at"`
	DeliveredAt    *time.Time   `json:"delivered_at,omitempty"`
	LastError      string       `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
