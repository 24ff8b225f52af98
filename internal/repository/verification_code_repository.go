package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// VerificationCodeRepository holds at most one live code per email.
// Save overwrites any prior code for the same email.
type VerificationCodeRepository interface {
	Save(ctx context.Context, code domain.VerificationCode) error
	Get(ctx context.Context, email string) (*domain.VerificationCode, error)
	Delete(ctx context.Context, email string) error
	// DeleteIfMatch removes the code for email only while it still equals code, so a
	// code issued in the meantime survives.
	DeleteIfMatch(ctx context.Context, email, code string) error
}

type redisVerificationCodeRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisVerificationCodeRepository stores codes as expiring Redis keys.
func NewRedisVerificationCodeRepository(client *redis.Client) VerificationCodeRepository {
	return &redisVerificationCodeRepository{client: client, now: time.Now}
}

type storedCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func verificationKey(email string) string {
	return "verification:code:" + strings.ToLower(strings.TrimSpace(email))
}

func (r *redisVerificationCodeRepository) Save(ctx context.Context, code domain.VerificationCode) error {
	payload, err := json.Marshal(storedCode{Code: code.Code, ExpiresAt: code.ExpiresAt})
	if err != nil {
		return err
	}
	ttl := code.ExpiresAt.Sub(r.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return r.client.Set(ctx, verificationKey(code.Email), payload, ttl).Err()
}

func (r *redisVerificationCodeRepository) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	raw, err := r.client.Get(ctx, verificationKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var stored storedCode
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &domain.VerificationCode{Email: email, Code: stored.Code, ExpiresAt: stored.ExpiresAt}, nil
}

func (r *redisVerificationCodeRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, verificationKey(email)).Err()
}

func (r *redisVerificationCodeRepository) DeleteIfMatch(ctx context.Context, email, code string) error {
	key := verificationKey(email)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var stored storedCode
		if err := json.Unmarshal(raw, &stored); err != nil {
			return err
		}
		if stored.Code != code {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// The key changed under us, so a newer code was saved; keep it.
		return nil
	}
	return err
}
