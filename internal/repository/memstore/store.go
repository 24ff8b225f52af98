// Package memstore keeps every table in process memory behind one mutex. It backs
// the service when no Postgres DSN is configured and in tests.
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store holds all in-memory tables.
type Store struct {
	mu          sync.Mutex
	users       map[string]domain.User
	tickets     map[string]domain.Ticket
	comments    []domain.Comment
	attachments []domain.Attachment
	codes       map[string]domain.VerificationCode
	last        time.Time
	now         func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:   map[string]domain.User{},
		tickets: map[string]domain.Ticket{},
		codes:   map[string]domain.VerificationCode{},
		now:     time.Now,
	}
}

// stamp returns the current time, nudged forward when needed so stamps strictly
// increase and ordering by creation time is stable. Callers hold s.mu.
func (s *Store) stamp() time.Time {
	now := s.now()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func newID() string {
	return uuid.NewString()
}

// Users exposes the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Tickets exposes the store as a TicketRepository.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{s} }

// Comments exposes the store as a CommentRepository.
func (s *Store) Comments() repository.CommentRepository { return &commentRepo{s} }

// Attachments exposes the store as an AttachmentRepository.
func (s *Store) Attachments() repository.AttachmentRepository { return &attachmentRepo{s} }

// VerificationCodes exposes the store as a VerificationCodeRepository.
func (s *Store) VerificationCodes() repository.VerificationCodeRepository { return &codeRepo{s} }
