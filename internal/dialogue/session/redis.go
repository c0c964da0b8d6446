package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis under "<namespace>:session:<user>".
// Every save refreshes the expiry.
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStore creates a Redis backed store
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, namespace: namespace, ttl: ttl}
}

func (s *RedisStore) key(userID string) string {
	return fmt.Sprintf("%s:session:%s", s.namespace, userID)
}

// Load returns the user's session or a fresh idle one
func (s *RedisStore) Load(ctx context.Context, userID string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess, err := decode(data)
	if err != nil {
		// a corrupt session restarts the dialogue
		return &Session{}, nil
	}
	return sess, nil
}

// Save stores s for the user
func (s *RedisStore) Save(ctx context.Context, userID string, sess *Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete drops the user's session
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}
