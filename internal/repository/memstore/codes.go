package memstore

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type codeRepo struct{ s *Store }

func codeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *codeRepo) Save(_ context.Context, code domain.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.codes[codeKey(code.Email)] = code
	return nil
}

// Get returns expired codes too; expiry is judged by the caller's clock.
func (r *codeRepo) Get(_ context.Context, email string) (*domain.VerificationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code, ok := r.s.codes[codeKey(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &code, nil
}

func (r *codeRepo) Delete(_ context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.codes, codeKey(email))
	return nil
}

func (r *codeRepo) DeleteIfMatch(_ context.Context, email, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := codeKey(email)
	if stored, ok := r.s.codes[key]; ok && stored.Code == code {
		delete(r.s.codes, key)
	}
	return nil
}
