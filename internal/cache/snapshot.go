package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/penshort/costboard/internal/model"
)

// Cache key prefixes and TTLs.
const (
	snapshotKey = "analytics:snapshot"

	// DefaultSnapshotTTL bounds how long a shared snapshot is served.
	DefaultSnapshotTTL = 30 * time.Second
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// LoadSnapshot retrieves the last live analytics snapshot together with the
// time it has left in the store. The remaining time is zero when Redis
// reports no expiry.
// Returns ErrCacheMiss if none is stored or it has expired.
func (c *Cache) LoadSnapshot(ctx context.Context) (*model.AnalyticsSnapshot, time.Duration, error) {
	var getCmd *redis.StringCmd
	var ttlCmd *redis.DurationCmd
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		getCmd = pipe.Get(ctx, snapshotKey)
		ttlCmd = pipe.PTTL(ctx, snapshotKey)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("redis get failed: %w", err)
	}

	data, err := getCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, ErrCacheMiss
		}
		return nil, 0, fmt.Errorf("redis get failed: %w", err)
	}

	var snap model.AnalyticsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt entry is treated as absent and dropped.
		c.client.Del(ctx, snapshotKey)
		return nil, 0, ErrCacheMiss
	}
	snap.Normalize()

	remaining := ttlCmd.Val()
	if remaining < 0 {
		remaining = 0
	}
	return &snap, remaining, nil
}

// StoreSnapshot shares a live snapshot with other instances for ttl.
func (c *Cache) StoreSnapshot(ctx context.Context, snap *model.AnalyticsSnapshot, ttl time.Duration) error {
	if snap == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := c.client.SetEx(ctx, snapshotKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}

	return nil
}

// ClearSnapshot removes the shared snapshot.
func (c *Cache) ClearSnapshot(ctx context.Context) error {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
