package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/db"
)

const keyPrefix = "timegrid:patterns:"

// PatternCache is a db.Database that serves GetPatterns from redis when it can.
// Every other call goes straight to the wrapped store. Writes invalidate the user's
// entry. Redis failures are logged and never fail the request.
type PatternCache struct {
	db.Database
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var (
	_ db.Database           = (*PatternCache)(nil)
	_ db.FreshPatternReader = (*PatternCache)(nil)
)

// NewClient creates a redis client for the given address
func NewClient(address, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})
}

// New wraps store with a redis read cache for patterns
func New(store db.Database, client *redis.Client, ttl time.Duration, logger *zap.Logger) *PatternCache {
	return &PatternCache{
		Database: store,
		client:   client,
		ttl:      ttl,
		logger:   logger,
	}
}

// Ping checks the redis connection
func (c *PatternCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Close closes the redis client. The wrapped store is left open.
func (c *PatternCache) Close() error {
	return c.client.Close()
}

// GetPatterns returns the cached patterns for the user, loading them from the store on a miss
func (c *PatternCache) GetPatterns(ctx context.Context, userID string) ([]db.Pattern, error) {
	key := keyFor(userID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []db.Pattern
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.logger.Debug("Pattern cache hit", zap.String("user_id", userID), zap.Int("count", len(cached)))
			return cached, nil
		}
		c.logger.Warn("Discarding unreadable cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		c.logger.Debug("Pattern cache miss", zap.String("user_id", userID))
	default:
		c.logger.Warn("Pattern cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	patterns, err := c.Database.GetPatterns(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(patterns)
	if err != nil {
		return patterns, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Pattern cache write failed", zap.String("user_id", userID), zap.Error(err))
	}

	return patterns, nil
}

// GetPatternsFresh reads the user's patterns from the wrapped store without touching redis
func (c *PatternCache) GetPatternsFresh(ctx context.Context, userID string) ([]db.Pattern, error) {
	return c.Database.GetPatterns(ctx, userID)
}

// DeletePatterns deletes from the store and invalidates the user's entry
func (c *PatternCache) DeletePatterns(ctx context.Context, userID string, ids []string) error {
	defer c.invalidate(ctx, userID)
	return c.Database.DeletePatterns(ctx, userID, ids)
}

// InsertPatterns inserts into the store and invalidates the entry of every affected user
func (c *PatternCache) InsertPatterns(ctx context.Context, patterns []db.NewPattern) error {
	seen := make(map[string]bool)
	for _, p := range patterns {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			defer c.invalidate(ctx, p.UserID)
		}
	}
	return c.Database.InsertPatterns(ctx, patterns)
}

// ApplyPatternChanges applies the changes in the store and invalidates the user's entry
func (c *PatternCache) ApplyPatternChanges(ctx context.Context, userID string, retire []string, insert []db.NewPattern) error {
	defer c.invalidate(ctx, userID)
	return c.Database.ApplyPatternChanges(ctx, userID, retire, insert)
}

func (c *PatternCache) invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, keyFor(userID)).Err(); err != nil {
		c.logger.Warn("Pattern cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func keyFor(userID string) string {
	return keyPrefix + userID
}
