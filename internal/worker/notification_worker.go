package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NotificationWorker owns the background pool that delivers chat and email notifications.
type NotificationWorker struct {
	dispatcher *events.AsyncDispatcher
	logger     *zap.Logger
}

// StartNotificationWorker registers notification handlers and starts the dispatcher workers.
func StartNotificationWorker(dispatcher *events.AsyncDispatcher, notifications *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	dispatcher.Start()
	return &NotificationWorker{dispatcher: dispatcher, logger: logger}
}

// Stop drains queued notifications until ctx ends.
func (w *NotificationWorker) Stop(ctx context.Context) {
	if w == nil {
		return
	}
	if err := w.dispatcher.Close(ctx); err != nil {
		w.logger.Warn("notification queue not drained before shutdown", zap.Error(err))
		return
	}
	w.logger.Info("notification worker stopped")
}
