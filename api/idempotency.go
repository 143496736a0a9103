package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the original create request is in flight.
const pendingMarker = "pending"

// RedisDeduper stores processed idempotency keys in Redis so all instances
// can avoid reprocessing the same create request.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(actorID, key string) string {
	return fmt.Sprintf("idem:%s:%s", actorID, key)
}

// Claim records the key if it does not already exist. It returns true when
// the key was newly added; otherwise it returns the task id recorded for the
// original request, or "" when that request is still in flight.
func (r *RedisDeduper) Claim(ctx context.Context, actorID, key string) (bool, string, error) {
	added, err := r.client.SetNX(ctx, r.key(actorID, key), pendingMarker, r.ttl).Result()
	if err != nil {
		return false, "", err
	}
	if added {
		return true, "", nil
	}
	val, err := r.client.Get(ctx, r.key(actorID, key)).Result()
	if err != nil {
		if err == redis.Nil {
			// Key expired between SetNX and Get; treat as in flight.
			return false, "", nil
		}
		return false, "", err
	}
	if val == pendingMarker {
		return false, "", nil
	}
	return false, val, nil
}

// Record stores the task id produced by a claimed create so replays of the
// same key can return it. The TTL is refreshed.
func (r *RedisDeduper) Record(ctx context.Context, actorID, key, taskID string) error {
	return r.client.Set(ctx, r.key(actorID, key), taskID, r.ttl).Err()
}

// Release deletes a previously claimed key. It is used when the create fails
// so the caller may retry with the same key.
func (r *RedisDeduper) Release(ctx context.Context, actorID, key string) error {
	return r.client.Del(ctx, r.key(actorID, key)).Err()
}
