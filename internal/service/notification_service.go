package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
)

// NotificationService turns domain events into chat and email messages.
// Its handlers run on dispatcher workers, never on the request path.
type NotificationService struct {
	dispatcher events.Dispatcher
	chat       notify.ChatSink
	mail       notify.MailSink
	logger     *zap.Logger
	now        func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, chat notify.ChatSink, mail notify.MailSink, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		chat:       chat,
		mail:       mail,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventVerificationCodeIssued, n.handleVerificationCode)
	n.dispatcher.Subscribe(events.EventUserWelcome, n.handleUserWelcome)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.sendChat(ctx, event, notify.TicketCreatedChat(payload))
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	chatErr := n.sendChat(ctx, event, notify.StatusChangedChat(payload, event.Actor.Name))
	if payload.Ticket.CreatorEmail == "" {
		return chatErr
	}
	mail, err := notify.StatusChangedMail(payload, event.Actor.Name)
	if err != nil {
		return errors.Join(chatErr, err)
	}
	return errors.Join(chatErr, n.sendMail(ctx, event, mail))
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	chatErr := n.sendChat(ctx, event, notify.AssignedChat(payload, event.Actor.Name))
	if payload.AssigneeEmail == "" {
		return chatErr
	}
	mail, err := notify.AssignedMail(payload, event.Actor.Name)
	if err != nil {
		return errors.Join(chatErr, err)
	}
	return errors.Join(chatErr, n.sendMail(ctx, event, mail))
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	chatErr := n.sendChat(ctx, event, notify.CommentAddedChat(payload, event.Actor.Name))
	// The creator is not emailed about their own comments.
	if payload.Ticket.CreatorEmail == "" || payload.AuthorID == payload.Ticket.CreatorID {
		return chatErr
	}
	mail, err := notify.CommentMail(payload, event.Actor.Name)
	if err != nil {
		return errors.Join(chatErr, err)
	}
	return errors.Join(chatErr, n.sendMail(ctx, event, mail))
}

func (n *NotificationService) handleVerificationCode(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.VerificationCodePayload)
	if !ok {
		return unexpectedPayload(event)
	}
	mail, err := notify.VerificationMail(payload, n.now())
	if err != nil {
		return err
	}
	return n.sendMail(ctx, event, mail)
}

func (n *NotificationService) handleUserWelcome(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserWelcomePayload)
	if !ok {
		return unexpectedPayload(event)
	}
	mail, err := notify.WelcomeMail(payload)
	if err != nil {
		return err
	}
	return n.sendMail(ctx, event, mail)
}

func (n *NotificationService) sendChat(ctx context.Context, event events.Event, text string) error {
	if n.chat == nil {
		return nil
	}
	if err := n.chat.SendChat(ctx, text); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	n.logger.Info("chat notification sent",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID))
	return nil
}

func (n *NotificationService) sendMail(ctx context.Context, event events.Event, mail notify.Mail) error {
	if n.mail == nil {
		return nil
	}
	if err := n.mail.SendMail(ctx, mail); err != nil {
		return fmt.Errorf("email to %s: %w", mail.To, err)
	}
	n.logger.Info("email notification sent",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("to", mail.To))
	return nil
}

func unexpectedPayload(event events.Event) error {
	return fmt.Errorf("event %s: unexpected payload %T", event.Type, event.Payload)
}
