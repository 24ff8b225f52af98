package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Import row outcomes.
const (
	ImportStatusCreated = "created"
	ImportStatusError   = "error"
)

// UserService administers accounts.
type UserService struct {
	users           repository.UserRepository
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	bcryptCost      int
	defaultPassword string
}

// UserCreateInput describes a single account.
type UserCreateInput struct {
	Name     string
	Email    string
	Role     domain.Role
	Password string
}

// UserImportRow is one entry of a bulk import.
type UserImportRow struct {
	Name  string
	Email string
	Role  domain.Role
}

// UserImportResult reports the outcome for one row.
type UserImportResult struct {
	Email       string
	Status      string
	Message     string
	EmailQueued bool
}

// UserImportReport summarizes a bulk import.
type UserImportReport struct {
	Created int
	Errors  int
	Details []UserImportResult
}

// UserPatch lists the account fields IT may change.
type UserPatch struct {
	Name   *string
	Email  *string
	Active *bool
	Role   *domain.Role
}

// NewUserService builds the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:           users,
		dispatcher:      dispatcher,
		logger:          logger,
		bcryptCost:      cfg.BcryptCost,
		defaultPassword: cfg.ImportDefaultPassword,
	}
}

// Me reloads the caller's record.
func (s *UserService) Me(ctx context.Context, actor *domain.User) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

// CreateUser adds an account. IT only.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if err := auth.CheckRole(actor, domain.RoleIT); err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password is too short", map[string]any{"field": "password", "min": minPasswordLength})
	}
	user, err := s.create(ctx, input.Name, input.Email, input.Role, input.Password)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("actor_id", actor.ID))
	return user, nil
}

// ImportUsers creates accounts with the configured initial password and queues a
// welcome email for each. Row failures are reported, not returned.
func (s *UserService) ImportUsers(ctx context.Context, actor *domain.User, rows []UserImportRow) (*UserImportReport, error) {
	if err := auth.CheckRole(actor, domain.RoleIT); err != nil {
		return nil, err
	}
	report := &UserImportReport{Details: make([]UserImportResult, 0, len(rows))}
	for _, row := range rows {
		result := UserImportResult{Email: normalizeEmail(row.Email)}
		user, err := s.create(ctx, row.Name, row.Email, row.Role, s.defaultPassword)
		if err != nil {
			result.Status = ImportStatusError
			result.Message = apperrors.ToDomainError(err).Message
			report.Errors++
			report.Details = append(report.Details, result)
			continue
		}

		result.Status = ImportStatusCreated
		result.Message = "user created"
		event := events.NewEvent(events.EventUserWelcome, "", actorOf(actor), events.UserWelcomePayload{
			Email:    user.Email,
			Name:     user.Name,
			Password: s.defaultPassword,
		})
		if s.dispatcher != nil {
			if err := s.dispatcher.Publish(event); err != nil {
				s.logger.Warn("welcome email not queued", zap.String("email", user.Email), zap.Error(err))
			} else {
				result.EmailQueued = true
			}
		}
		report.Created++
		report.Details = append(report.Details, result)
	}
	s.logger.Info("users imported", zap.Int("created", report.Created), zap.Int("errors", report.Errors))
	return report, nil
}

// EnsureUser creates the account unless one with the same email exists. It is
// used for the startup IT account and reports whether a user was created.
func (s *UserService) EnsureUser(ctx context.Context, input UserCreateInput) (bool, error) {
	if _, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email)); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, mapRepoError(err, "user")
	}
	if len(input.Password) < minPasswordLength {
		return false, apperrors.NewValidationError("password is too short", map[string]any{"field": "password", "min": minPasswordLength})
	}
	user, err := s.create(ctx, input.Name, input.Email, input.Role, input.Password)
	if err != nil {
		return false, err
	}
	s.logger.Info("user ensured", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return true, nil
}

// ListUsers returns every account. IT only.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := auth.CheckRole(actor, domain.RoleIT); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return users, nil
}

// ListITUsers returns active IT staff for assignment pickers.
func (s *UserService) ListITUsers(ctx context.Context) ([]domain.User, error) {
	role := domain.RoleIT
	users, err := s.users.List(ctx, repository.UserFilter{Role: &role, ActiveOnly: true})
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return users, nil
}

// UpdateUser applies patch to an account. IT only.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id string, patch UserPatch) (*domain.User, error) {
	if err := auth.CheckRole(actor, domain.RoleIT); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", map[string]any{"field": "name"})
		}
		user.Name = name
	}
	if patch.Email != nil {
		email, err := validEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, invalidEnum("role", string(*patch.Role))
		}
		user.Role = *patch.Role
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

func (s *UserService) create(ctx context.Context, name, email string, role domain.Role, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	email, err := validEmail(email)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, invalidEnum("role", string(role))
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

func validEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return email, nil
}
