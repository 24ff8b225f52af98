package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const minPasswordLength = 6

// AuthService coordinates sign-in and the code-gated password change flow.
type AuthService struct {
	users      repository.UserRepository
	codes      repository.VerificationCodeRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	codeTTL    time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	CodeRepo   repository.VerificationCodeRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		codes:      deps.CodeRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		codeTTL:    cfg.Verification.CodeTTL(),
		now:        time.Now,
	}
}

// Authenticate checks credentials against an active user.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, mapRepoError(err, "user")
	}
	if !user.Active || !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, apperrors.NewInvalidCredentials()
	}
	return user, nil
}

// IssueSessionToken signs a bearer token for user.
func (s *AuthService) IssueSessionToken(user *domain.User) (domain.SessionToken, error) {
	token, err := s.tokenMgr.Issue(user)
	if err != nil {
		return domain.SessionToken{}, apperrors.NewInternalError(err)
	}
	return token, nil
}

// Login authenticates and issues a token in one step.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.SessionToken, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, domain.SessionToken{}, err
	}
	token, err := s.IssueSessionToken(user)
	if err != nil {
		return nil, domain.SessionToken{}, err
	}
	s.logger.Info("user signed in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, nil
}

// RequestCode stores a fresh code for email, replacing any earlier one, and
// queues it for delivery. A delivery problem does not fail the request.
func (s *AuthService) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return mapRepoError(err, "user")
	}

	code, err := generateCode()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	record := domain.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.codeTTL),
	}
	if err := s.codes.Save(ctx, record); err != nil {
		return apperrors.NewInternalError(err)
	}

	publish(s.dispatcher, s.logger, events.NewEvent(events.EventVerificationCodeIssued, "", actorOf(user), events.VerificationCodePayload{
		Email:     email,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: record.ExpiresAt,
	}))
	return nil
}

// VerifyCode reports whether code is the live code for email. It does not consume
// the code; an expired code is evicted.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	email = normalizeEmail(email)
	stored, err := s.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.NewInternalError(err)
	}
	if stored.Expired(s.now()) {
		if err := s.codes.Delete(ctx, email); err != nil {
			s.logger.Warn("evicting expired verification code failed", zap.Error(err))
		}
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) == 1, nil
}

// ChangePassword sets a new password after re-checking the code, then clears the code.
func (s *AuthService) ChangePassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
			map[string]any{"field": "new_password"})
	}
	email = normalizeEmail(email)
	valid, err := s.VerifyCode(ctx, email, code)
	if err != nil {
		return err
	}
	if !valid {
		return apperrors.NewInvalidOrExpiredCode()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return mapRepoError(err, "user")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoError(err, "user")
	}

	if err := s.codes.DeleteIfMatch(ctx, email, code); err != nil {
		s.logger.Warn("clearing verification code failed", zap.Error(err))
	}
	s.logger.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

var codeSpace = big.NewInt(1_000_000)

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
