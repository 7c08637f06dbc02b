// Package cache keeps a slug to listing id read-through cache in Redis
package cache

import (
	"context"
	"errors"
	"time"

	"harborlist/internal/platform/config"
	"harborlist/internal/platform/logger"
	"harborlist/internal/services/listings/domain"

	"github.com/redis/go-redis/v9"
)

// Config for the slug cache
type Config struct {
	Enabled bool
	Addr    string
	DB      int
	TTL     time.Duration
}

// FromConfig reads SERVICE_REDIS_* values
func FromConfig(cfg config.Conf) Config {
	rc := cfg.Prefix("SERVICE_REDIS_")
	return Config{
		Enabled: rc.MayBool("ENABLED", false),
		Addr:    rc.MayString("ADDR", "localhost:6379"),
		DB:      rc.MayInt("DB", 0),
		TTL:     rc.MayDuration("SLUG_TTL", 10*time.Minute),
	}
}

const keyPrefix = "harborlist:slug:"

// cmdable is the part of redis.UniversalClient the cache uses
type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Slugs implements domain.SlugCache. Redis errors degrade to misses
type Slugs struct {
	rdb cmdable
	ttl time.Duration
}

var _ domain.SlugCache = (*Slugs)(nil)

// New returns a cache over rdb
func New(rdb redis.UniversalClient, ttl time.Duration) *Slugs {
	if rdb == nil {
		panic("slug cache requires a non nil redis client")
	}
	return &Slugs{rdb: rdb, ttl: ttl}
}

// Get returns the cached listing id for slug
func (s *Slugs) Get(ctx context.Context, slug string) (string, bool) {
	id, err := s.rdb.Get(ctx, keyPrefix+slug).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.C(ctx).Debug().Err(err).Str("slug", slug).Msg("slug cache read failed")
		}
		return "", false
	}
	return id, true
}

// Set caches slug for the configured ttl
func (s *Slugs) Set(ctx context.Context, slug, id string) {
	if err := s.rdb.Set(ctx, keyPrefix+slug, id, s.ttl).Err(); err != nil {
		logger.C(ctx).Debug().Err(err).Str("slug", slug).Msg("slug cache write failed")
	}
}

// Delete drops slugs
func (s *Slugs) Delete(ctx context.Context, slugs ...string) {
	if len(slugs) == 0 {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, sl := range slugs {
		keys = append(keys, keyPrefix+sl)
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		// a stale entry lives until its ttl
		logger.C(ctx).Warn().Err(err).Strs("slugs", slugs).Msg("slug cache invalidation failed")
	}
}
