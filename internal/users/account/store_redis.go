// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/constants"
)

// RedisSnapshotCache implements [SnapshotCache] with JSON values under
// "session:snapshot:<user id>" and counters under "session:gen:<user id>".
type RedisSnapshotCache struct {
	client *redis.Client
}

// NewRedisSnapshotCache creates a Redis-backed [SnapshotCache].
func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func snapshotKey(userID string) string {
	return constants.RedisPrefixSnapshot + userID
}

func generationKey(userID string) string {
	return constants.RedisPrefixGeneration + userID
}

/*
Get loads a cached snapshot.

The role id comes back as a JSON number (float64), which the resolver accepts.

Returns:
  - *access.CurrentUser: The cached snapshot
  - error: ErrSnapshotMiss if absent or expired, otherwise connectivity and decode failures
*/
func (cache *RedisSnapshotCache) Get(ctx context.Context, userID string) (*access.CurrentUser, error) {
	raw, err := cache.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotMiss
		}
		return nil, fmt.Errorf("redis_snapshot_get_failed: %w", err)
	}

	var user access.CurrentUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("redis_snapshot_decode_failed: %w", err)
	}
	return &user, nil
}

// Generation reads the generation counter. A missing counter is generation 0.
func (cache *RedisSnapshotCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := cache.client.Get(ctx, generationKey(userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("redis_generation_get_failed: %w", err)
	}
	return gen, nil
}

/*
Fill caches user for ttl under WATCH on the generation counter.

Returns:
  - error: ErrSnapshotStale if the counter differs from gen or moves before EXEC
*/
func (cache *RedisSnapshotCache) Fill(ctx context.Context, userID string, user access.CurrentUser, gen int64, ttl time.Duration) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("redis_snapshot_encode_failed: %w", err)
	}

	genKey := generationKey(userID)
	err = cache.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return ErrSnapshotStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, snapshotKey(userID), raw, ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSnapshotStale), errors.Is(err, redis.TxFailedErr):
		return ErrSnapshotStale
	default:
		return fmt.Errorf("redis_snapshot_set_failed: %w", err)
	}
}

// Invalidate bumps the generation and deletes the snapshot in one MULTI block.
// Deleting a missing snapshot is not an error.
func (cache *RedisSnapshotCache) Invalidate(ctx context.Context, userID string) error {
	genKey := generationKey(userID)
	_, err := cache.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, constants.RedisGenerationTTL)
		pipe.Del(ctx, snapshotKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_snapshot_invalidate_failed: %w", err)
	}
	return nil
}
