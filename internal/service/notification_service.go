package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"inertus/internal/middleware"
	"inertus/internal/models"
	"inertus/internal/notifications"
	"inertus/internal/observability"
	"inertus/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is the number of delivery attempts before an outbox event is abandoned.
	DefaultMaxAttempts = 8
	// DispatchBatchSize bounds how many due events one dispatcher pass handles.
	DispatchBatchSize = 100

	baseBackoff = time.Second
	maxBackoff  = 5 * time.Minute
)

var errNoPublisher = errors.New("no live publisher configured")

// NotificationSender is the part of NotificationService other services depend on.
type NotificationSender interface {
	CreateNotification(ctx context.Context, userID uint, content, kind string) (*models.Notification, error)
}

type NotificationService struct {
	notifRepo   repository.NotificationRepository
	outboxRepo  repository.OutboxRepository
	publisher   notifications.Publisher
	maxAttempts int
	now         func() time.Time
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	outboxRepo repository.OutboxRepository,
	publisher notifications.Publisher,
	maxAttempts int,
) *NotificationService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &NotificationService{
		notifRepo:   notifRepo,
		outboxRepo:  outboxRepo,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Backoff returns the delay before the next delivery attempt after attempts failures.
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	// 2^9 seconds already exceeds the cap.
	if attempts >= 9 {
		return maxBackoff
	}
	d := baseBackoff << uint(attempts)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// CreateNotification stores the notification with its outbox event and tries one
// immediate delivery. A failed delivery is left to the dispatcher and is not an error.
func (s *NotificationService) CreateNotification(ctx context.Context, userID uint, content, kind string) (*models.Notification, error) {
	ctx, span := observability.StartSpan(ctx, "notification.create",
		attribute.Int64("user.id", int64(userID)),
		attribute.String("notification.type", kind),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if kind == "" {
		kind = models.NotificationGeneral
	}
	n := &models.Notification{UserID: userID, Content: content, Type: kind}

	var event *models.OutboxEvent
	event, err = s.notifRepo.CreateWithOutbox(ctx, n, func(saved *models.Notification) (*models.OutboxEvent, error) {
		payload, encErr := notifications.NewNotificationEvent(saved.UserID, saved.Content, saved.CreatedAt.UTC())
		if encErr != nil {
			return nil, encErr
		}
		return &models.OutboxEvent{
			UserID:        saved.UserID,
			Room:          notifications.Room(saved.UserID),
			Payload:       string(payload),
			Status:        models.OutboxPending,
			NextAttemptAt: s.now(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	observability.NotificationsCreated.WithLabelValues(kind).Inc()

	// The notification is committed; delivery failures only reschedule the event.
	_ = s.deliver(ctx, event)
	return n, nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.notifRepo.ListByUser(ctx, userID, limit, offset)
}

// DispatchPending delivers every due outbox event once and returns how many were delivered.
func (s *NotificationService) DispatchPending(ctx context.Context) (int, error) {
	events, err := s.outboxRepo.DuePending(ctx, s.now(), DispatchBatchSize)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for i := range events {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if s.deliver(ctx, &events[i]) == nil {
			delivered++
		}
	}
	return delivered, nil
}

func (s *NotificationService) deliver(ctx context.Context, ev *models.OutboxEvent) (err error) {
	ctx, span := observability.StartSpan(ctx, "outbox.deliver",
		attribute.Int64("outbox.id", int64(ev.ID)),
		attribute.Int("outbox.attempts", ev.Attempts),
	)
	defer func() { observability.EndSpan(span, err) }()

	logger := middleware.LoggerFrom(ctx).With(
		zap.Uint("outbox_id", ev.ID),
		zap.String("room", ev.Room),
	)

	pubErr := errNoPublisher
	if s.publisher != nil {
		pubErr = s.publisher.Publish(ctx, ev.Room, []byte(ev.Payload))
	}
	if pubErr == nil {
		if err = s.outboxRepo.MarkDelivered(ctx, ev.ID, s.now()); err != nil {
			logger.Error("failed to mark outbox event delivered", zap.Error(err))
			return err
		}
		observability.OutboxDelivered.Inc()
		return nil
	}

	attempts := ev.Attempts + 1
	abandon := attempts >= s.maxAttempts
	next := s.now().Add(Backoff(attempts))
	observability.OutboxFailures.WithLabelValues(strconv.FormatBool(abandon)).Inc()

	if abandon {
		logger.Error("abandoning outbox event", zap.Int("attempts", attempts), zap.Error(pubErr))
	} else {
		logger.Warn("outbox delivery failed, rescheduling",
			zap.Int("attempts", attempts),
			zap.Time("next_attempt_at", next),
			zap.Error(pubErr))
	}

	if markErr := s.outboxRepo.MarkFailed(ctx, ev.ID, attempts, next, pubErr.Error(), abandon); markErr != nil {
		logger.Error("failed to record outbox failure", zap.Error(markErr))
	}
	return pubErr
}

// notify sends a notification on behalf of another operation. Failures are logged and
// never fail the caller.
func notify(ctx context.Context, sender NotificationSender, userID uint, content, kind string) {
	if sender == nil {
		return
	}
	if _, err := sender.CreateNotification(ctx, userID, content, kind); err != nil {
		middleware.LoggerFrom(ctx).Warn("failed to create notification",
			zap.Uint("recipient_id", userID),
			zap.String("type", kind),
			zap.Error(err))
	}
}
