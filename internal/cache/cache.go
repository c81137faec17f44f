// Package cache keeps parse results in Redis so repeated API lookups skip
// the grammar engine.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ehdc-llpg/addrparse/internal/address"
)

// DefaultTTL applies when Config.TTL is zero
const DefaultTTL = time.Hour

// Config contains configuration options for the Redis cache
type Config struct {
	// Client is the Redis client instance
	Client *redis.Client

	// KeyPrefix is the prefix for all Redis keys
	// Default: "addrparse:"
	KeyPrefix string

	// TTL bounds how long a result is kept
	TTL time.Duration
}

// Cache stores records as JSON. A nil *Cache is valid and caches nothing.
type Cache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New creates a cache over an existing client
func New(config Config) (*Cache, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "addrparse:"
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &Cache{client: config.Client, keyPrefix: config.KeyPrefix, ttl: config.TTL}, nil
}

// Dial connects to addr and pings it. An empty addr returns a nil cache.
func Dial(ctx context.Context, addr, prefix string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return nil, nil
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(ctx).Err(); err != nil {
		cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(Config{Client: cl, KeyPrefix: prefix, TTL: ttl})
}

// Close closes the Redis client
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Key identifies one cached parse. Generation names the parser build the
// result came from, so results computed before a lexicon reload are never
// served after it.
type Key struct {
	Generation uint64
	Locale     string
	Kind       string
	Text       string
}

func (c *Cache) key(k Key) string {
	return c.keyPrefix + "parse:" + strconv.FormatUint(k.Generation, 10) + "|" +
		strings.ToLower(k.Locale) + "|" + k.Kind + "|" + k.Text
}

// Get returns the cached record and whether there was an entry. A cached
// no-match comes back as a nil record with hit true.
func (c *Cache) Get(ctx context.Context, k Key) (address.Record, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, c.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var rec address.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("invalid cached record: %w", err)
	}
	return rec, true, nil
}

// Set stores rec, including a nil no-match result
func (c *Cache) Set(ctx context.Context, k Key, rec address.Record) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(k), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Flush removes every cached result under the prefix, used after a lexicon reload
func (c *Cache) Flush(ctx context.Context) error {
	if c == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.keyPrefix+"parse:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}
