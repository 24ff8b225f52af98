package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketAssigned         EventType = "ticket_assigned"
	EventCommentAdded           EventType = "comment_added"
	EventVerificationCodeIssued EventType = "verification_code_issued"
	EventUserWelcome            EventType = "user_welcome"
)

// Actor identifies who triggered the event.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Event is a domain event handed to the notification pipeline.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps a fresh event id and timestamp.
func NewEvent(eventType EventType, ticketID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketRef is the part of a ticket every notification template needs.
type TicketRef struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"external_key"`
	Title       string                `json:"title"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatorID   string                `json:"creator_id"`
	CreatorName string                `json:"creator_name"`
	// CreatorEmail receives status and comment emails.
	CreatorEmail string `json:"creator_email,omitempty"`
}

// RefOf builds a TicketRef from a ticket and its creator's email.
func RefOf(ticket *domain.Ticket, creatorEmail string) TicketRef {
	return TicketRef{
		ID:           ticket.ID,
		ExternalKey:  ticket.ExternalKey,
		Title:        ticket.Title,
		Category:     ticket.Category,
		Priority:     ticket.Priority,
		CreatorID:    ticket.CreatorID,
		CreatorName:  ticket.CreatorName,
		CreatorEmail: creatorEmail,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket      TicketRef `json:"ticket"`
	Description string    `json:"description"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    TicketRef           `json:"ticket"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket        TicketRef `json:"ticket"`
	AssigneeID    string    `json:"assignee_id"`
	AssigneeName  string    `json:"assignee_name"`
	AssigneeEmail string    `json:"assignee_email"`
}

// CommentAddedPayload payload. Preview is already truncated for display.
type CommentAddedPayload struct {
	Ticket    TicketRef `json:"ticket"`
	CommentID string    `json:"comment_id"`
	AuthorID  string    `json:"author_id"`
	Preview   string    `json:"preview"`
}

// VerificationCodePayload payload.
type VerificationCodePayload struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserWelcomePayload payload.
type UserWelcomePayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"-"`
}
