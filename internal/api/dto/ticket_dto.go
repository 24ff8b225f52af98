package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title" validate:"required,max=500"`
	Description string                `json:"description" validate:"required"`
	Category    domain.TicketCategory `json:"category" validate:"required,oneof=hardware software network email system new_hire other"`
	ExtraData   map[string]any        `json:"extra_data"`
	Extra       map[string]any        `json:"extra"`
}

// Payload returns the extra data, accepting either key.
func (r CreateTicketRequest) Payload() map[string]any {
	if r.ExtraData != nil {
		return r.ExtraData
	}
	return r.Extra
}

// UpdateTicketRequest payload. Keys left out are not changed; "assignee_id": null
// unassigns and "extra_data": null clears the extra data.
type UpdateTicketRequest struct {
	Title       Nullable[string]         `json:"title"`
	Description Nullable[string]         `json:"description"`
	Category    Nullable[string]         `json:"category"`
	Priority    Nullable[string]         `json:"priority"`
	Status      Nullable[string]         `json:"status"`
	AssigneeID  Nullable[string]         `json:"assignee_id"`
	ExtraData   Nullable[map[string]any] `json:"extra_data"`
}

// ToPatch converts the request into a domain patch.
func (r UpdateTicketRequest) ToPatch() (domain.TicketPatch, error) {
	var patch domain.TicketPatch
	for field, value := range map[string]Nullable[string]{
		"title": r.Title, "description": r.Description, "category": r.Category,
		"priority": r.Priority, "status": r.Status,
	} {
		if value.Set && value.Null {
			return patch, apperrors.NewValidationError(field+" cannot be null", map[string]any{"field": field})
		}
	}

	if r.Title.Set {
		patch.Title = domain.Some(r.Title.Value)
	}
	if r.Description.Set {
		patch.Description = domain.Some(r.Description.Value)
	}
	if r.Category.Set {
		patch.Category = domain.Some(domain.TicketCategory(r.Category.Value))
	}
	if r.Priority.Set {
		patch.Priority = domain.Some(domain.TicketPriority(r.Priority.Value))
	}
	if r.Status.Set {
		patch.Status = domain.Some(domain.TicketStatus(r.Status.Value))
	}
	if r.AssigneeID.Set {
		if r.AssigneeID.Null {
			patch.AssigneeID = domain.Some[*string](nil)
		} else {
			id := r.AssigneeID.Value
			patch.AssigneeID = domain.Some(&id)
		}
	}
	if r.ExtraData.Set {
		patch.ExtraData = domain.Some(r.ExtraData.Value)
	}
	return patch, nil
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

// TicketSummary is the list view of a ticket.
type TicketSummary struct {
	ID           string                `json:"id"`
	ExternalKey  string                `json:"external_key"`
	Title        string                `json:"title"`
	Category     domain.TicketCategory `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	CreatorID    string                `json:"creator_id"`
	CreatorName  string                `json:"creator_name"`
	AssigneeID   *string               `json:"assignee_id"`
	AssigneeName *string               `json:"assignee_name"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketResponse is the full ticket.
type TicketResponse struct {
	TicketSummary
	Description string         `json:"description"`
	ExtraData   map[string]any `json:"extra_data"`
	ClosedAt    *time.Time     `json:"closed_at"`
}

// TicketDetailResponse adds the comment thread and attachments.
type TicketDetailResponse struct {
	TicketResponse
	Comments    []CommentResponse    `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// CommentResponse is one comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse is attachment metadata.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketSummary maps a ticket for listings.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		ExternalKey:  t.ExternalKey,
		Title:        t.Title,
		Category:     t.Category,
		Priority:     t.Priority,
		Status:       t.Status,
		CreatorID:    t.CreatorID,
		CreatorName:  t.CreatorName,
		AssigneeID:   t.AssigneeID,
		AssigneeName: t.AssigneeName,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketSummaries maps a ticket list.
func NewTicketSummaries(tickets []domain.Ticket) []TicketSummary {
	out := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketSummary(&tickets[i]))
	}
	return out
}

// NewTicketResponse maps a full ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketSummary: NewTicketSummary(t),
		Description:   t.Description,
		ExtraData:     t.ExtraData,
		ClosedAt:      t.ClosedAt,
	}
}

// NewTicketDetailResponse maps a ticket with its thread.
func NewTicketDetailResponse(d *domain.TicketDetail) TicketDetailResponse {
	comments := make([]CommentResponse, 0, len(d.Comments))
	for i := range d.Comments {
		comments = append(comments, NewCommentResponse(&d.Comments[i]))
	}
	attachments := make([]AttachmentResponse, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		attachments = append(attachments, AttachmentResponse{ID: a.ID, FileName: a.FileName, SizeBytes: a.SizeBytes, CreatedAt: a.CreatedAt})
	}
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(&d.Ticket),
		Comments:       comments,
		Attachments:    attachments,
	}
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}
