package memstore

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	comment.ID = newID()
	comment.CreatedAt = r.s.stamp()
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r *commentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Comment
	for _, c := range r.s.comments {
		if c.TicketID != ticketID {
			continue
		}
		if author, ok := r.s.users[c.AuthorID]; ok {
			c.AuthorName = author.Name
		}
		result = append(result, c)
	}
	return result, nil
}

type attachmentRepo struct{ s *Store }

func (r *attachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[attachment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	attachment.ID = newID()
	attachment.CreatedAt = r.s.stamp()
	r.s.attachments = append(r.s.attachments, *attachment)
	return nil
}

func (r *attachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Attachment
	for _, a := range r.s.attachments {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	return result, nil
}
