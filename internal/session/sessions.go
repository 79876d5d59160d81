package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// Sessions records active session tokens in Redis with a TTL matching the
// token lifetime, so sign-out can invalidate a token before its JWT expiry.
type Sessions struct {
	client *redis.Client
}

// NewSessions wraps a Redis client.
func NewSessions(client *redis.Client) *Sessions {
	return &Sessions{client: client}
}

// Put records a token as active for the given user.
func (s *Sessions) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+token, userID, ttl).Err()
}

// Active reports whether the token is still a live session.
func (s *Sessions) Active(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete clears a session. Deleting an absent session is not an error.
func (s *Sessions) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}
