package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "scenario_history:"

// RedisHistory keeps per-user history in a Redis list, newest at the head.
type RedisHistory struct {
	client *redis.Client
	size   int
	ttl    time.Duration
}

// NewRedisHistory creates a Redis-backed History. A zero ttl keeps lists
// without expiry.
func NewRedisHistory(client *redis.Client, size int, ttl time.Duration) (*RedisHistory, error) {
	if client == nil {
		return nil, errors.New("repository: redis client must not be nil")
	}
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RedisHistory{client: client, size: size, ttl: ttl}, nil
}

func historyKey(userID string) string {
	return redisKeyPrefix + userID
}

// Append pushes entry and trims the list to the configured size in a single
// MULTI/EXEC transaction.
func (r *RedisHistory) Append(ctx context.Context, userID, entry string) error {
	if strings.TrimSpace(userID) == "" {
		return errEmptyUserID
	}
	key := historyKey(userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, entry)
		pipe.LTrim(ctx, key, 0, int64(r.size-1))
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository: redis append: %w", err)
	}
	return nil
}

func (r *RedisHistory) Recent(ctx context.Context, userID string) ([]string, error) {
	entries, err := r.client.LRange(ctx, historyKey(userID), 0, int64(r.size-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("repository: redis recent: %w", err)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
