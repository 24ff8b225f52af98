package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
)

type fakeChat struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (c *fakeChat) SendChat(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return c.err
}

type fakeMail struct {
	mu   sync.Mutex
	sent []notify.Mail
}

func (m *fakeMail) SendMail(_ context.Context, mail notify.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func newNotificationFixture() (*recordingDispatcher, *fakeChat, *fakeMail) {
	d := &recordingDispatcher{}
	chat := &fakeChat{}
	mail := &fakeMail{}
	svc := NewNotificationService(d, chat, mail, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	svc.RegisterHandlers()
	return d, chat, mail
}

func deliver(t *testing.T, d *recordingDispatcher, event events.Event) error {
	t.Helper()
	handlers := d.handlers[event.Type]
	require.Len(t, handlers, 1)
	return handlers[0](context.Background(), event)
}

func ref() events.TicketRef {
	return events.TicketRef{
		ID: "t1", ExternalKey: "TCK-00000001", Title: "VPN down",
		Category: domain.TicketCategoryNetwork, Priority: domain.TicketPriorityHigh,
		CreatorID: "u-emma", CreatorName: "Emma", CreatorEmail: "emma@corp.local",
	}
}

func TestNotificationRoutesTicketEvents(t *testing.T) {
	d, chat, mail := newNotificationFixture()
	actor := events.Actor{UserID: "u-ivan", Name: "Ivan"}

	require.NoError(t, deliver(t, d, events.NewEvent(events.EventTicketCreated, "t1", actor, events.TicketCreatedPayload{Ticket: ref()})))
	require.NoError(t, deliver(t, d, events.NewEvent(events.EventTicketStatusChanged, "t1", actor, events.TicketStatusChangedPayload{
		Ticket: ref(), OldStatus: domain.TicketStatusOpen, NewStatus: domain.TicketStatusResolved,
	})))
	require.NoError(t, deliver(t, d, events.NewEvent(events.EventTicketAssigned, "t1", actor, events.TicketAssignedPayload{
		Ticket: ref(), AssigneeID: "u-alex", AssigneeName: "Alex", AssigneeEmail: "alex@corp.local",
	})))

	assert.Len(t, chat.texts, 3)
	require.Len(t, mail.sent, 2)
	assert.Equal(t, "emma@corp.local", mail.sent[0].To)
	assert.Equal(t, "alex@corp.local", mail.sent[1].To)
}

func TestCommentEmailSkipsOwnComments(t *testing.T) {
	d, chat, mail := newNotificationFixture()

	own := events.NewEvent(events.EventCommentAdded, "t1", events.Actor{UserID: "u-emma", Name: "Emma"},
		events.CommentAddedPayload{Ticket: ref(), AuthorID: "u-emma", Preview: "any news?"})
	require.NoError(t, deliver(t, d, own))
	assert.Empty(t, mail.sent)

	reply := events.NewEvent(events.EventCommentAdded, "t1", events.Actor{UserID: "u-ivan", Name: "Ivan"},
		events.CommentAddedPayload{Ticket: ref(), AuthorID: "u-ivan", Preview: "on it"})
	require.NoError(t, deliver(t, d, reply))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "emma@corp.local", mail.sent[0].To)
	assert.Len(t, chat.texts, 2)
}

func TestVerificationAndWelcomeEmails(t *testing.T) {
	d, chat, mail := newNotificationFixture()

	require.NoError(t, deliver(t, d, events.NewEvent(events.EventVerificationCodeIssued, "", events.Actor{}, events.VerificationCodePayload{
		Email: "emma@corp.local", Name: "Emma", Code: "123456", ExpiresAt: time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC),
	})))
	require.NoError(t, deliver(t, d, events.NewEvent(events.EventUserWelcome, "", events.Actor{}, events.UserWelcomePayload{
		Email: "new@corp.local", Name: "New", Password: "Welcome@123",
	})))

	require.Len(t, mail.sent, 2)
	assert.Contains(t, mail.sent[0].HTMLBody, "123456")
	assert.Equal(t, "new@corp.local", mail.sent[1].To)
	assert.Empty(t, chat.texts)
}

func TestNotificationSinkFailureStillSendsEmail(t *testing.T) {
	d, chat, mail := newNotificationFixture()
	chat.err = errors.New("telegram down")

	err := deliver(t, d, events.NewEvent(events.EventTicketStatusChanged, "t1", events.Actor{Name: "Ivan"}, events.TicketStatusChangedPayload{
		Ticket: ref(), OldStatus: domain.TicketStatusOpen, NewStatus: domain.TicketStatusClosed,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram down")
	assert.Len(t, mail.sent, 1)
}

func TestNotificationRejectsWrongPayload(t *testing.T) {
	d, _, _ := newNotificationFixture()
	err := deliver(t, d, events.NewEvent(events.EventTicketCreated, "t1", events.Actor{}, "oops"))
	assert.Error(t, err)
}
