package repository

import (
	"context"
	"encoding/json"
	"time"

	"inertus/internal/cache"

	"github.com/redis/go-redis/v9"
)

// MaxChatHistory is the number of PsychAI entries kept per user.
const MaxChatHistory = 50

// ChatEntry is one stored PsychAI exchange line.
type ChatEntry struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	IsCrisis  bool      `json:"is_crisis,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatHistoryRepository keeps a capped, expiring PsychAI history per user.
type ChatHistoryRepository interface {
	Append(ctx context.Context, userID uint, entries ...ChatEntry) error
	Recent(ctx context.Context, userID uint, n int) ([]ChatEntry, error)
}

type chatHistoryRepository struct {
	rdb *redis.Client
}

// NewChatHistoryRepository returns a Redis-backed history. With a nil client history is not kept.
func NewChatHistoryRepository(rdb *redis.Client) ChatHistoryRepository {
	return &chatHistoryRepository{rdb: rdb}
}

func (r *chatHistoryRepository) Append(ctx context.Context, userID uint, entries ...ChatEntry) error {
	if r.rdb == nil || len(entries) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		values = append(values, b)
	}

	key := cache.PsychAIHistoryKey(userID)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -MaxChatHistory, -1)
	pipe.Expire(ctx, key, cache.PsychAIHistoryTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns up to n entries, oldest first. Undecodable entries are skipped.
func (r *chatHistoryRepository) Recent(ctx context.Context, userID uint, n int) ([]ChatEntry, error) {
	if r.rdb == nil || n <= 0 {
		return []ChatEntry{}, nil
	}
	raw, err := r.rdb.LRange(ctx, cache.PsychAIHistoryKey(userID), int64(-n), -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ChatEntry, 0, len(raw))
	for _, s := range raw {
		var e ChatEntry
		if json.Unmarshal([]byte(s), &e) == nil {
			out = append(out, e)
		}
	}
	return out, nil
}
