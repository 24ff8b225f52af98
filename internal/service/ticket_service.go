package service

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const maxTitleLength = 500

// TicketService coordinates ticket workflows: creation, the per-role update rules,
// comments, and the notifications each of them triggers.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	dispatcher  events.Dispatcher
	live        realtime.Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
	Live           realtime.Broadcaster
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	ExtraData   map[string]any
}

// TicketListFilter holds optional equality filters.
type TicketListFilter struct {
	Status   *domain.TicketStatus
	Category *domain.TicketCategory
	Priority *domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		dispatcher:  deps.Dispatcher,
		live:        deps.Live,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateTicket files a new ticket. It always starts open, medium priority, unassigned.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if creator == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if !input.Category.Valid() {
		return nil, invalidEnum("category", string(input.Category))
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		CreatorID:   creator.ID,
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		ExtraData:   input.ExtraData,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	ticket.CreatorName = creator.Name

	s.broadcast(realtime.Frame{Type: realtime.FrameTicketCreated, TicketID: ticket.ID, Status: ticket.Status})
	s.publishEvent(events.NewEvent(events.EventTicketCreated, ticket.ID, actorOf(creator), events.TicketCreatedPayload{
		Ticket:      events.RefOf(ticket, creator.Email),
		Description: ticket.Description,
	}))
	return ticket, nil
}

// ListTickets returns tickets visible to actor, newest first. Employees only see their own.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, invalidEnum("status", string(*filter.Status))
	}
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, invalidEnum("category", string(*filter.Category))
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, invalidEnum("priority", string(*filter.Priority))
	}

	repoFilter := repository.TicketFilter{
		Status:   filter.Status,
		Category: filter.Category,
		Priority: filter.Priority,
	}
	if !actor.IsIT() {
		creatorID := actor.ID
		repoFilter.CreatorID = &creatorID
	}
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	return tickets, nil
}

// GetTicket returns a ticket with its comment thread and attachments.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, id string) (*domain.TicketDetail, error) {
	ticket, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoError(err, "comment")
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoError(err, "attachment")
	}
	return &domain.TicketDetail{Ticket: *ticket, Comments: comments, Attachments: attachments}, nil
}

// UpdateTicket validates patch against the actor's permissions and applies it
// atomically. Notifications go out only after the change is committed.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	var assignee *domain.User
	if actor.IsIT() && patch.AssigneeID.Set && patch.AssigneeID.Value != nil {
		user, err := s.users.GetByID(ctx, *patch.AssigneeID.Value)
		if err != nil || !user.Active {
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, mapRepoError(err, "user")
			}
			return nil, apperrors.NewValidationError("assignee must be an active user", map[string]any{"field": "assignee_id"})
		}
		assignee = user
	}

	var before domain.Ticket
	updated, err := s.tickets.Mutate(ctx, id, func(ticket *domain.Ticket) error {
		before = *ticket
		if err := authorizePatch(actor, ticket, patch); err != nil {
			return err
		}
		applyPatch(ticket, patch, s.now())
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}

	s.broadcast(realtime.Frame{Type: realtime.FrameTicketUpdated, TicketID: updated.ID, Status: updated.Status})

	statusChanged := before.Status != updated.Status
	assigned := updated.AssigneeID != nil && !sameID(before.AssigneeID, updated.AssigneeID)
	if !statusChanged && !assigned {
		return updated, nil
	}

	ref := events.RefOf(updated, s.creatorEmail(ctx, updated.CreatorID))
	if statusChanged {
		s.publishEvent(events.NewEvent(events.EventTicketStatusChanged, updated.ID, actorOf(actor), events.TicketStatusChangedPayload{
			Ticket:    ref,
			OldStatus: before.Status,
			NewStatus: updated.Status,
		}))
	}
	if assigned && assignee != nil {
		s.publishEvent(events.NewEvent(events.EventTicketAssigned, updated.ID, actorOf(actor), events.TicketAssignedPayload{
			Ticket:        ref,
			AssigneeID:    assignee.ID,
			AssigneeName:  assignee.Name,
			AssigneeEmail: assignee.Email,
		}))
	}
	return updated, nil
}

// AddComment appends a comment by the ticket's creator or by IT staff.
func (s *TicketService) AddComment(ctx context.Context, author *domain.User, ticketID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", map[string]any{"field": "body"})
	}
	ticket, err := s.loadVisible(ctx, author, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Body:       body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapRepoError(err, "ticket")
	}

	s.broadcast(realtime.Frame{Type: realtime.FrameCommentAdded, TicketID: ticket.ID})
	s.publishEvent(events.NewEvent(events.EventCommentAdded, ticket.ID, actorOf(author), events.CommentAddedPayload{
		Ticket:    events.RefOf(ticket, s.creatorEmail(ctx, ticket.CreatorID)),
		CommentID: comment.ID,
		AuthorID:  author.ID,
		Preview:   notify.Preview(body),
	}))
	return comment, nil
}

// DeleteTicket removes a ticket with its comments and attachments. IT only.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, id string) error {
	if err := auth.CheckRole(actor, domain.RoleIT); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return mapRepoError(err, "ticket")
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", id), zap.String("actor_id", actor.ID))
	return nil
}

func (s *TicketService) loadVisible(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	if !actor.IsIT() && ticket.CreatorID != actor.ID {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	return ticket, nil
}

// authorizePatch enforces the per-role allow-list against the locked ticket.
// Only fields whose value would actually change count as a request to change them.
func authorizePatch(actor *domain.User, ticket *domain.Ticket, patch domain.TicketPatch) error {
	if actor.IsIT() {
		return nil
	}
	if ticket.CreatorID != actor.ID {
		return apperrors.NewForbidden("only the creator or IT staff may update this ticket")
	}

	var denied []string
	if patch.Priority.Set && patch.Priority.Value != ticket.Priority {
		denied = append(denied, "priority")
	}
	if patch.AssigneeID.Set && !sameID(patch.AssigneeID.Value, ticket.AssigneeID) {
		denied = append(denied, "assignee_id")
	}
	if patch.ExtraData.Set && !reflect.DeepEqual(patch.ExtraData.Value, ticket.ExtraData) {
		denied = append(denied, "extra_data")
	}
	if len(denied) > 0 {
		return forbiddenFields(denied)
	}

	if patch.Status.Set && patch.Status.Value != ticket.Status {
		if patch.Status.Value != domain.TicketStatusCancelled {
			return forbiddenFields([]string{"status"})
		}
		if ticket.Status.Terminal() {
			return apperrors.NewForbidden("a " + string(ticket.Status) + " ticket can no longer be cancelled")
		}
	}
	return nil
}

func applyPatch(ticket *domain.Ticket, patch domain.TicketPatch, now time.Time) {
	if patch.Title.Set {
		ticket.Title = patch.Title.Value
	}
	if patch.Description.Set {
		ticket.Description = patch.Description.Value
	}
	if patch.Category.Set {
		ticket.Category = patch.Category.Value
	}
	if patch.Priority.Set {
		ticket.Priority = patch.Priority.Value
	}
	if patch.AssigneeID.Set {
		ticket.AssigneeID = patch.AssigneeID.Value
	}
	if patch.ExtraData.Set {
		ticket.ExtraData = patch.ExtraData.Value
	}
	if patch.Status.Set && patch.Status.Value != ticket.Status {
		ticket.Status = patch.Status.Value
		if ticket.Status.Closes() {
			closedAt := now.UTC()
			ticket.ClosedAt = &closedAt
		}
	}
}

func validatePatch(patch *domain.TicketPatch) error {
	if patch.Title.Set {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
		if err := validateTitle(patch.Title.Value); err != nil {
			return err
		}
	}
	if patch.Description.Set {
		patch.Description.Value = strings.TrimSpace(patch.Description.Value)
		if patch.Description.Value == "" {
			return apperrors.NewValidationError("description cannot be empty", map[string]any{"field": "description"})
		}
	}
	if patch.Category.Set && !patch.Category.Value.Valid() {
		return invalidEnum("category", string(patch.Category.Value))
	}
	if patch.Priority.Set && !patch.Priority.Value.Valid() {
		return invalidEnum("priority", string(patch.Priority.Value))
	}
	if patch.Status.Set && !patch.Status.Value.Valid() {
		return invalidEnum("status", string(patch.Status.Value))
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return apperrors.NewValidationError("title is too long", map[string]any{"field": "title", "max": maxTitleLength})
	}
	return nil
}

func invalidEnum(field, value string) error {
	return apperrors.NewValidationError("invalid "+field, map[string]any{"field": field, "value": value})
}

func forbiddenFields(fields []string) error {
	return apperrors.NewDomainError(apperrors.CodeForbidden, "you may not change "+strings.Join(fields, ", "),
		http.StatusForbidden, map[string]any{"fields": fields})
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *TicketService) creatorEmail(ctx context.Context, creatorID string) string {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		s.logger.Warn("creator lookup for notification failed", zap.String("user_id", creatorID), zap.Error(err))
		return ""
	}
	return creator.Email
}

func (s *TicketService) broadcast(frame realtime.Frame) {
	if s.live == nil {
		return
	}
	s.live.Broadcast(frame)
}

func (s *TicketService) publishEvent(event events.Event) {
	publish(s.dispatcher, s.logger, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
