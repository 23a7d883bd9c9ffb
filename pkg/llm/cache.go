package llm

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/symptom-checker-api/internal/domain"
)

// CompletionCache stores raw model completions keyed by request digest, so
// an identical request within the TTL skips the model call entirely.
// Normalization is deterministic, so caching the raw completion is
// equivalent to caching the normalized result.
type CompletionCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, completion string)
}

// CacheKey derives a stable digest for an analysis request.
func CacheKey(req *domain.AnalysisRequest) string {
	age := ""
	if req.Age.Set {
		age = fmt.Sprintf("%d", req.Age.Value)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%s", req.Symptoms, age, req.Gender, req.Duration))
	return fmt.Sprintf("completion:%x", sum)
}

// cachedCompletion wraps a completion with expiry metadata.
type cachedCompletion struct {
	Completion string    `json:"completion"`
	CachedAt   time.Time `json:"cached_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RedisCache implements CompletionCache on Redis.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache creates a Redis-backed completion cache.
func NewRedisCache(cfg domain.CacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &RedisCache{redis: client, defaultTTL: ttl}, nil
}

// Get retrieves a cached completion. Corrupted or expired entries are
// removed and reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}

	var cached cachedCompletion
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return "", false
	}
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return "", false
	}
	return cached.Completion, true
}

// Set caches a completion. Cache write failures are swallowed; caching is
// best-effort and must never fail a request.
func (c *RedisCache) Set(ctx context.Context, key, completion string) {
	cached := cachedCompletion{
		Completion: completion,
		CachedAt:   time.Now(),
		ExpiresAt:  time.Now().Add(c.defaultTTL),
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, data, c.defaultTTL)
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

// LRUCache implements CompletionCache in process memory, used when no Redis
// URL is configured.
type LRUCache struct {
	entries    *lru.Cache[string, cachedCompletion]
	defaultTTL time.Duration
}

// NewLRUCache creates an in-process completion cache.
func NewLRUCache(maxItems int, ttl time.Duration) (*LRUCache, error) {
	if maxItems <= 0 {
		maxItems = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	entries, err := lru.New[string, cachedCompletion](maxItems)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}
	return &LRUCache{entries: entries, defaultTTL: ttl}, nil
}

// Get retrieves a cached completion, evicting expired entries.
func (c *LRUCache) Get(_ context.Context, key string) (string, bool) {
	cached, ok := c.entries.Get(key)
	if !ok {
		return "", false
	}
	if time.Now().After(cached.ExpiresAt) {
		c.entries.Remove(key)
		return "", false
	}
	return cached.Completion, true
}

// Set caches a completion.
func (c *LRUCache) Set(_ context.Context, key, completion string) {
	c.entries.Add(key, cachedCompletion{
		Completion: completion,
		CachedAt:   time.Now(),
		ExpiresAt:  time.Now().Add(c.defaultTTL),
	})
}
