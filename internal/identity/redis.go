package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps sessions as token -> user JSON with a TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	user := &User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return user, nil
}

// StartSession stores the user and returns the new session token.
func (s *RedisSessionStore) StartSession(ctx context.Context, user User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	token := uuid.New().String()
	if err := s.client.Set(ctx, sessionKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

func (s *RedisSessionStore) EndSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}
