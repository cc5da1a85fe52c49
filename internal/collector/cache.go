package collector

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/model"
)

// CacheClient is the subset of *redis.Client used by CachedFetcher.
type CacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedFetcher serves weekly bars from Redis when a fresh copy exists.
// Cache errors never fail a fetch; they are logged and the upstream is used.
type CachedFetcher struct {
	next Fetcher
	rdb  CacheClient
	ttl  time.Duration
	log  logrus.FieldLogger
}

// NewCachedFetcher wraps next with a Redis cache of the given TTL.
func NewCachedFetcher(next Fetcher, rdb CacheClient, ttl time.Duration, log logrus.FieldLogger) *CachedFetcher {
	return &CachedFetcher{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedFetcher) Name() string { return c.next.Name() }

func (c *CachedFetcher) cacheKey(symbol string) string {
	return "awesome-sentinel:weekly:" + c.next.Name() + ":" + symbol
}

type freshKey struct{}

// WithFreshData marks ctx so CachedFetcher goes to the provider and
// overwrites the cached copy instead of serving it.
func WithFreshData(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

// FreshDataRequested reports whether ctx was marked by WithFreshData.
func FreshDataRequested(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}

func (c *CachedFetcher) FetchWeeklyBars(ctx context.Context, symbol string) ([]model.Bar, error) {
	key := c.cacheKey(symbol)
	if !FreshDataRequested(ctx) {
		if bars, ok := c.cached(ctx, key); ok {
			return bars, nil
		}
	}

	bars, err := c.next.FetchWeeklyBars(ctx, symbol)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(bars)
	if err != nil {
		c.log.WithError(err).Warn("encode bars for cache")
		return bars, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("redis set failed")
	}
	return bars, nil
}

func (c *CachedFetcher) cached(ctx context.Context, key string) ([]model.Bar, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", key).Warn("redis get failed")
		}
		return nil, false
	}
	var bars []model.Bar
	if err := json.Unmarshal(raw, &bars); err != nil || len(bars) == 0 {
		c.log.WithField("key", key).Warn("discarding unreadable cache entry")
		return nil, false
	}
	return bars, true
}
