package memstore

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[ticket.CreatorID]; !ok {
		return repository.ErrNotFound
	}
	ticket.ID = newID()
	ticket.CreatedAt = r.s.stamp()
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.tickets[ticket.ID] = cloneTicket(*ticket)
	*ticket = r.joined(r.s.tickets[ticket.ID])
	return nil
}

// Mutate holds the store lock for the whole read-modify-write, which serializes
// concurrent updates the same way a row lock does.
func (r *ticketRepo) Mutate(_ context.Context, id string, fn repository.MutateFunc) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := r.joined(stored)
	if err := fn(&working); err != nil {
		return nil, err
	}
	if working.AssigneeID != nil {
		if _, ok := r.s.users[*working.AssigneeID]; !ok {
			return nil, repository.ErrNotFound
		}
	}
	working.UpdatedAt = r.s.stamp()
	r.s.tickets[id] = cloneTicket(working)
	result := r.joined(r.s.tickets[id])
	return &result, nil
}

func (r *ticketRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tickets, id)

	comments := r.s.comments[:0]
	for _, c := range r.s.comments {
		if c.TicketID != id {
			comments = append(comments, c)
		}
	}
	r.s.comments = comments

	attachments := r.s.attachments[:0]
	for _, a := range r.s.attachments {
		if a.TicketID != id {
			attachments = append(attachments, a)
		}
	}
	r.s.attachments = attachments
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := r.joined(stored)
	return &ticket, nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.s.tickets {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		result = append(result, r.joined(t))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *ticketRepo) Stats(_ context.Context) (*repository.TicketStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := repository.NewTicketStats()
	for _, t := range r.s.tickets {
		stats.Total++
		stats.ByStatus[t.Status]++
		stats.ByCategory[t.Category]++
		stats.ByPriority[t.Priority]++
	}
	return stats, nil
}

// joined fills the user names a SQL join would. Caller holds the lock.
func (r *ticketRepo) joined(t domain.Ticket) domain.Ticket {
	t = cloneTicket(t)
	if creator, ok := r.s.users[t.CreatorID]; ok {
		t.CreatorName = creator.Name
	}
	t.AssigneeName = nil
	if t.AssigneeID != nil {
		if assignee, ok := r.s.users[*t.AssigneeID]; ok {
			name := assignee.Name
			t.AssigneeName = &name
		}
	}
	return t
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		t.AssigneeID = &id
	}
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		t.ClosedAt = &closed
	}
	if t.ExtraData != nil {
		extra := make(map[string]any, len(t.ExtraData))
		for k, v := range t.ExtraData {
			extra[k] = v
		}
		t.ExtraData = extra
	}
	return t
}
