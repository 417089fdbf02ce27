// Package cache keeps short-lived lookups out of the database. The archive
// cache remembers the newest survey snapshot id per survey so archiving a
// delivery does not have to load snapshot content each time. A newer
// snapshot simply overwrites the entry on the next archive.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is used when a non-positive TTL is configured.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "survey-scheduler:survey-archive:latest:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisArchiveCache stores survey id -> newest SurveyArchive id in Redis.
type RedisArchiveCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient opens a client for opts. The connection is established
// lazily on first use.
func NewRedisClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewRedisArchiveCache wraps an existing client.
func NewRedisArchiveCache(rdb *redis.Client, ttl time.Duration) *RedisArchiveCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisArchiveCache{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key used for a survey.
func Key(surveyID string) string { return keyPrefix + surveyID }

// Get returns the cached snapshot id. A miss reports ok=false with a nil error.
func (c *RedisArchiveCache) Get(ctx context.Context, surveyID string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, Key(surveyID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores the snapshot id with the configured TTL.
func (c *RedisArchiveCache) Set(ctx context.Context, surveyID, archiveID string) error {
	return c.rdb.Set(ctx, Key(surveyID), archiveID, c.ttl).Err()
}

// Ping checks connectivity.
func (c *RedisArchiveCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisArchiveCache) Close() error {
	return c.rdb.Close()
}
