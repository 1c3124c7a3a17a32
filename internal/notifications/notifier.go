package notifications

import (
	"context"
	"errors"
	"runtime/debug"

	"inertus/internal/middleware"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher delivers an encoded event to every socket in room.
type Publisher interface {
	Publish(ctx context.Context, room string, payload []byte) error
}

// ErrNoRedis is returned by a Notifier created without a Redis client.
var ErrNoRedis = errors.New("notifier: redis unavailable")

// Notifier publishes events into Redis so that every instance's hub can forward them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends payload on the room's channel.
func (n *Notifier) Publish(ctx context.Context, room string, payload []byte) error {
	if n.rdb == nil {
		return ErrNoRedis
	}
	return n.rdb.Publish(ctx, Channel(room), payload).Err()
}

// Subscribe listens on every notification channel and calls onMessage for each message
// until ctx is done. A panicking callback is logged and does not stop the subscription.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return ErrNoRedis
	}

	sub := n.rdb.PSubscribe(ctx, ChannelPattern)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						middleware.Logger.Error("panic in notification subscriber",
							zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
					}
				}()
				onMessage(msg.Channel, msg.Payload)
			}()
		}
	}
}
