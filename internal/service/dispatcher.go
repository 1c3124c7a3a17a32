package service

import (
	"context"
	"time"

	"inertus/internal/middleware"

	"go.uber.org/zap"
)

// Dispatcher periodically retries undelivered outbox events.
type Dispatcher struct {
	svc      *NotificationService
	interval time.Duration
}

func NewDispatcher(svc *NotificationService, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Dispatcher{svc: svc, interval: interval}
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	middleware.Logger.Info("outbox dispatcher started", zap.Duration("interval", d.interval))
	for {
		select {
		case <-ctx.Done():
			middleware.Logger.Info("outbox dispatcher stopped")
			return nil
		case <-ticker.C:
			n, err := d.svc.DispatchPending(ctx)
			if err != nil && ctx.Err() == nil {
				middleware.Logger.Error("outbox dispatch pass failed", zap.Error(err))
				continue
			}
			if n > 0 {
				middleware.Logger.Debug("outbox events delivered", zap.Int("count", n))
			}
		}
	}
}
