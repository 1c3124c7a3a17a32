package service

import (
	"context"
	"fmt"

	"inertus/internal/models"
	"inertus/internal/repository"
)

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	notifier    NotificationSender
}

type SendMessageInput struct {
	SenderID       uint
	SenderUsername string
	ReceiverID     uint
	Content        string
}

// Inbox holds a user's sent and received messages, each newest first.
type Inbox struct {
	Sent     []models.Message `json:"sent"`
	Received []models.Message `json:"received"`
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notifier NotificationSender,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// Receiver returns the public summary of a prospective receiver.
func (s *MessageService) Receiver(ctx context.Context, id uint) (*models.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

// SendMessage stores the message and notifies the receiver. Sending to oneself is allowed.
func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	receiver, err := s.userRepo.GetByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		Content:    in.Content,
		SenderID:   in.SenderID,
		ReceiverID: receiver.ID,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, receiver.ID,
		fmt.Sprintf("New message from %s", displayName(in.SenderUsername)),
		models.NotificationMessage)
	return msg, nil
}

func (s *MessageService) ListMessages(ctx context.Context, userID uint) (*Inbox, error) {
	sent, err := s.messageRepo.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.messageRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sent == nil {
		sent = []models.Message{}
	}
	if received == nil {
		received = []models.Message{}
	}
	return &Inbox{Sent: sent, Received: received}, nil
}
