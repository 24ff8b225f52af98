package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	events   []events.Event
	handlers map[events.EventType][]events.EventHandler
	err      error
}

func (d *recordingDispatcher) Publish(event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = map[events.EventType][]events.EventHandler{}
	}
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []realtime.Frame
}

func (b *recordingBroadcaster) Broadcast(frame realtime.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame)
}

func (b *recordingBroadcaster) all() []realtime.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]realtime.Frame(nil), b.frames...)
}

type fixture struct {
	store      *memstore.Store
	dispatcher *recordingDispatcher
	live       *recordingBroadcaster
	tickets    *TicketService
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      memstore.New(),
		dispatcher: &recordingDispatcher{},
		live:       &recordingBroadcaster{},
		clock:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:     f.store.Tickets(),
		CommentRepo:    f.store.Comments(),
		AttachmentRepo: f.store.Attachments(),
		UserRepo:       f.store.Users(),
		Dispatcher:     f.dispatcher,
		Live:           f.live,
		Logger:         zap.NewNop(),
	})
	f.tickets.now = f.now
	return f
}

func (f *fixture) now() time.Time { return f.clock }

func (f *fixture) user(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret-pass", 4)
	require.NoError(t, err)
	u := &domain.User{Name: name, Email: name + "@corp.local", PasswordHash: hash, Role: role, Active: true}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) ticket(t *testing.T, creator *domain.User) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title:       "Laptop will not boot",
		Description: "Black screen after the update",
		Category:    domain.TicketCategoryHardware,
	})
	require.NoError(t, err)
	return ticket
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
			ImportDefaultPassword: "Welcome@123",
		},
		Verification: config.VerificationConfig{CodeTTLMinutes: 10},
	}
}

func strPtr(s string) *string { return &s }
