package repositories

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// incrementAttemptsScript bumps the attempt counter only on a live, unused challenge.
// HINCRBY on a missing key would recreate it without a TTL.
var incrementAttemptsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
if redis.call('HEXISTS', KEYS[1], 'used_at') == 1 then return -1 end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// markUsedScript consumes the challenge if it is still the current one for the email.
var markUsedScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then return 0 end
return redis.call('HSETNX', KEYS[1], 'used_at', ARGV[2])
`)

// RedisOTPRepository keeps one challenge hash per email and lets Redis expire it.
type RedisOTPRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisOTPRepository(client *redis.Client) *RedisOTPRepository {
	return &RedisOTPRepository{client: client, now: time.Now}
}

func otpChallengeKey(email string) string {
	return "otp:challenge:" + email
}

func otpIDKey(id string) string {
	return "otp:id:" + id
}

// Create replaces any existing challenge for the email
func (r *RedisOTPRepository) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) (*models.OTPChallenge, error) {
	now := r.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil, fmt.Errorf("otp challenge expiry %s is not in the future", expiresAt)
	}

	challenge := &models.OTPChallenge{
		ID:        uuid.New().String(),
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	key := otpChallengeKey(email)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]interface{}{
			"id":         challenge.ID,
			"code_hash":  challenge.CodeHash,
			"expires_at": challenge.ExpiresAt.UTC().Format(time.RFC3339Nano),
			"created_at": challenge.CreatedAt.UTC().Format(time.RFC3339Nano),
			"attempts":   0,
		})
		pipe.PExpire(ctx, key, ttl)
		pipe.Set(ctx, otpIDKey(challenge.ID), email, ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create otp challenge: %w", err)
	}

	return challenge, nil
}

// FindValid returns the current challenge when its code hash matches and it is still live
func (r *RedisOTPRepository) FindValid(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error) {
	fields, err := r.client.HGetAll(ctx, otpChallengeKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load otp challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, models.ErrNotFound
	}

	challenge, err := challengeFromHash(email, fields)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(challenge.CodeHash), []byte(codeHash)) != 1 {
		return nil, models.ErrNotFound
	}
	if !challenge.IsValid(r.now()) {
		return nil, models.ErrNotFound
	}

	return challenge, nil
}

// IncrementAttempts charges a failed guess to the email's live challenge
func (r *RedisOTPRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	attempts, err := incrementAttemptsScript.Run(ctx, r.client, []string{otpChallengeKey(email)}).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	if attempts < 0 {
		return 0, models.ErrNotFound
	}

	return attempts, nil
}

// MarkUsed consumes a challenge; ErrNotFound if it was already consumed or superseded
func (r *RedisOTPRepository) MarkUsed(ctx context.Context, id string) error {
	email, err := r.client.Get(ctx, otpIDKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve otp challenge: %w", err)
	}

	usedAt := r.now().UTC().Format(time.RFC3339Nano)
	marked, err := markUsedScript.Run(ctx, r.client, []string{otpChallengeKey(email)}, id, usedAt).Int()
	if err != nil {
		return fmt.Errorf("failed to mark challenge as used: %w", err)
	}
	if marked == 0 {
		return models.ErrNotFound
	}

	return nil
}

// PurgeExpired is a no-op: challenge keys carry a TTL matching their expiry.
func (r *RedisOTPRepository) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func challengeFromHash(email string, fields map[string]string) (*models.OTPChallenge, error) {
	challenge := &models.OTPChallenge{
		ID:       fields["id"],
		Email:    email,
		CodeHash: fields["code_hash"],
	}

	var err error
	if challenge.ExpiresAt, err = time.Parse(time.RFC3339Nano, fields["expires_at"]); err != nil {
		return nil, fmt.Errorf("corrupt otp challenge expiry: %w", err)
	}
	if challenge.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("corrupt otp challenge creation time: %w", err)
	}
	if challenge.Attempts, err = strconv.Atoi(fields["attempts"]); err != nil {
		return nil, fmt.Errorf("corrupt otp challenge attempts: %w", err)
	}
	if raw, ok := fields["used_at"]; ok {
		usedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt otp challenge usage time: %w", err)
		}
		challenge.UsedAt = &usedAt
	}

	return challenge, nil
}
