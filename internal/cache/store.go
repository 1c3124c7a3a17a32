package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix           = "user:%d"
	PsychAIHistoryKeyPrefix = "psychai:history:%d"
)

const (
	UserTTL           = 5 * time.Minute
	PsychAIHistoryTTL = 7 * 24 * time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PsychAIHistoryKey(userID uint) string {
	return fmt.Sprintf(PsychAIHistoryKeyPrefix, userID)
}

// Store is a JSON cache on top of Redis. A Store with a nil client is valid and always misses.
type Store struct {
	client *redis.Client
}

// NewStore wraps client, which may be nil.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Client returns the underlying Redis client, or nil.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// GetJSON reads key into dest. It returns (false, nil) on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if s.Client() == nil {
		return false, nil
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s.Client() == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, ttl).Err()
}

// Aside tries the cache first; on a miss it calls fetch, which must populate dest,
// and stores dest with ttl. Cache read and write failures fall through to fetch.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := s.GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = s.SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate removes key from the cache.
func (s *Store) Invalidate(ctx context.Context, key string) {
	if s.Client() != nil {
		s.client.Del(ctx, key)
	}
}

// InvalidateUser removes the cached user record.
func (s *Store) InvalidateUser(ctx context.Context, userID uint) {
	s.Invalidate(ctx, UserKey(userID))
}
