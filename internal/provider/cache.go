package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const cacheKeyPrefix = "floorlayout:provider"

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key; ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects lazily to the Redis server at addr.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the client connections.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedProvider serves repeated lookups for the same code set from a Cache.
// Cache errors are logged and the inner provider is used instead.
type CachedProvider struct {
	inner Provider
	cache Cache
	ttl   time.Duration
	log   *log.Logger
}

// NewCachedProvider wraps inner with cache entries living for ttl.
func NewCachedProvider(inner Provider, cache Cache, ttl time.Duration, logger *log.Logger) *CachedProvider {
	if logger == nil {
		logger = log.Default().WithPrefix("provider")
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl, log: logger}
}

// Mode implements Provider.
func (p *CachedProvider) Mode() string { return p.inner.Mode() }

// cacheKey identifies op over the set of codes, independent of order.
func (p *CachedProvider) cacheKey(op string, codes []string) string {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return fmt.Sprintf("%s:%s:%s:%s", cacheKeyPrefix, p.inner.Mode(), op, hex.EncodeToString(sum[:]))
}

// WipByBins implements Provider.
func (p *CachedProvider) WipByBins(ctx context.Context, codes []string) (map[string][]models.Cassette, error) {
	codes = uniqueCodes(codes)
	if len(codes) == 0 {
		return map[string][]models.Cassette{}, nil
	}

	key := p.cacheKey("wip", codes)
	var cached map[string][]models.Cassette
	if p.load(ctx, key, &cached) {
		return fillCassettes(cached, codes), nil
	}

	res, err := p.inner.WipByBins(ctx, codes)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, res)
	return res, nil
}

// CountsByBins implements Provider.
func (p *CachedProvider) CountsByBins(ctx context.Context, codes []string) (map[string]int, error) {
	codes = uniqueCodes(codes)
	if len(codes) == 0 {
		return map[string]int{}, nil
	}

	key := p.cacheKey("counts", codes)
	var cached map[string]int
	if p.load(ctx, key, &cached) {
		if cached == nil {
			cached = make(map[string]int, len(codes))
		}
		for _, code := range codes {
			if _, ok := cached[code]; !ok {
				cached[code] = 0
			}
		}
		return cached, nil
	}

	res, err := p.inner.CountsByBins(ctx, codes)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, res)
	return res, nil
}

func (p *CachedProvider) load(ctx context.Context, key string, v any) bool {
	b, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.log.Warn("cache read failed", "key", key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := msgpack.Unmarshal(b, v); err != nil {
		p.log.Warn("cache entry undecodable", "key", key, "err", err)
		return false
	}
	return true
}

func (p *CachedProvider) store(ctx context.Context, key string, v any) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		p.log.Warn("cache encode failed", "key", key, "err", err)
		return
	}
	if err := p.cache.Set(ctx, key, b, p.ttl); err != nil {
		p.log.Warn("cache write failed", "key", key, "err", err)
	}
}

// fillCassettes makes sure every code and every cassette carries a non-nil list.
func fillCassettes(m map[string][]models.Cassette, codes []string) map[string][]models.Cassette {
	if m == nil {
		m = make(map[string][]models.Cassette, len(codes))
	}
	for _, code := range codes {
		if m[code] == nil {
			m[code] = []models.Cassette{}
		}
		for i := range m[code] {
			if m[code][i].Wips == nil {
				m[code][i].Wips = []models.Wip{}
			}
		}
	}
	return m
}
