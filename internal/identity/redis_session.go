package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultSessionPrefix = "classroom:session:"

// RedisVerifier looks up opaque session tokens that the REST API stores in
// Redis as JSON-encoded users under prefix+token.
type RedisVerifier struct {
	client *redis.Client
	prefix string
}

func NewRedisVerifier(client *redis.Client, prefix string) *RedisVerifier {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return &RedisVerifier{client: client, prefix: prefix}
}

func (v *RedisVerifier) Verify(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, fmt.Errorf("%w: token string is empty", ErrInvalidToken)
	}

	val, err := v.client.Get(ctx, v.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return User{}, ErrUnknownSession
	} else if err != nil {
		return User{}, fmt.Errorf("redis session lookup: %w", err)
	}

	var u User
	if err := json.Unmarshal([]byte(val), &u); err != nil {
		return User{}, fmt.Errorf("%w: session data: %v", ErrInvalidToken, err)
	}
	if u.ID == "" {
		return User{}, fmt.Errorf("%w: session without user id", ErrInvalidToken)
	}
	return u, nil
}

// StoreSession writes u under token. The REST API owns session creation; this
// exists for operational tooling and tests.
func (v *RedisVerifier) StoreSession(ctx context.Context, token string, u User, ttl time.Duration) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return v.client.Set(ctx, v.prefix+token, data, ttl).Err()
}
