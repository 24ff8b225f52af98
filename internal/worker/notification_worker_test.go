package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

type countingMail struct {
	mu   sync.Mutex
	sent []notify.Mail
}

func (m *countingMail) SendMail(_ context.Context, mail notify.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func (m *countingMail) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestWorkerDeliversAndDrains(t *testing.T) {
	logger := zap.NewNop()
	dispatcher := events.NewAsyncDispatcher(events.DispatcherOptions{Workers: 2, QueueSize: 16}, logger)
	mail := &countingMail{}
	notifications := service.NewNotificationService(dispatcher, nil, mail, logger)

	w := StartNotificationWorker(dispatcher, notifications, logger)
	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Publish(events.NewEvent(events.EventUserWelcome, "", events.Actor{}, events.UserWelcomePayload{
			Email: "new@corp.local", Name: "New", Password: "x",
		})))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	w.Stop(ctx)
	assert.Equal(t, 5, mail.count())
	assert.ErrorIs(t, dispatcher.Publish(events.Event{Type: events.EventUserWelcome}), events.ErrDispatcherClosed)
}
