package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound indicates no refresh token is registered for a subject.
var ErrTokenNotFound = errors.New("auth: refresh token not found")

// RefreshStore keeps the single currently valid refresh token per subject
// in Redis. Rotation overwrites the entry, so a superseded token can never
// be replayed.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{client: client, ttl: ttl}
}

func (s *RefreshStore) key(subject string) string {
	return "refresh:" + subject
}

// Save registers token as the only valid refresh token for subject.
func (s *RefreshStore) Save(ctx context.Context, subject, token string) error {
	return s.client.Set(ctx, s.key(subject), token, s.ttl).Err()
}

// Get returns the registered refresh token for subject.
func (s *RefreshStore) Get(ctx context.Context, subject string) (string, error) {
	value, err := s.client.Get(ctx, s.key(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return value, nil
}

// Delete drops the registered refresh token for subject.
func (s *RefreshStore) Delete(ctx context.Context, subject string) error {
	if err := s.client.Del(ctx, s.key(subject)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
