package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verificationCodeLength      = 6
	verificationCodeTTL         = 10 * time.Minute
	verificationCodeCooldown    = 60 * time.Second
	verificationCodeMaxAttempts = 5
)

// CodeStore keeps verification codes in Redis. Only the sha256 of a
// code is stored; attempts and resend cooldowns ride on separate keys.
type CodeStore struct {
	redis *redis.Client
}

func NewCodeStore(rdb *redis.Client) *CodeStore {
	return &CodeStore{redis: rdb}
}

func codeKey(channel, destination string) string {
	return fmt.Sprintf("verify:%s:%s", channel, destination)
}

func generateNumericCode(length int) string {
	const digits = "0123456789"
	b := make([]byte, length)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = digits[int(b[i])%len(digits)]
	}
	return string(b)
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Issue creates a fresh code for the destination. Returns
// ErrCodeCooldown when the previous code was requested too recently.
func (s *CodeStore) Issue(ctx context.Context, channel, destination string) (string, error) {
	key := codeKey(channel, destination)

	ok, err := s.redis.SetNX(ctx, key+":cooldown", "1", verificationCodeCooldown).Result()
	if err != nil {
		return "", fmt.Errorf("set code cooldown: %w", err)
	}
	if !ok {
		return "", ErrCodeCooldown
	}

	code := generateNumericCode(verificationCodeLength)

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, key, hashCode(code), verificationCodeTTL)
	pipe.Del(ctx, key+":attempts")
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}

	return code, nil
}

// Verify checks a submitted code. A correct code is consumed and cannot
// be replayed; wrong codes burn an attempt until the code is discarded.
func (s *CodeStore) Verify(ctx context.Context, channel, destination, code string) error {
	key := codeKey(channel, destination)

	stored, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("get verification code: %w", err)
	}

	attempts, err := s.redis.Incr(ctx, key+":attempts").Result()
	if err != nil {
		return fmt.Errorf("count verification attempts: %w", err)
	}
	if attempts == 1 {
		s.redis.Expire(ctx, key+":attempts", verificationCodeTTL)
	}
	if attempts > verificationCodeMaxAttempts {
		s.redis.Del(ctx, key)
		return ErrTooManyAttempts
	}

	submitted := hashCode(code)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return ErrInvalidCode
	}

	s.redis.Del(ctx, key, key+":attempts", key+":cooldown")
	return nil
}
