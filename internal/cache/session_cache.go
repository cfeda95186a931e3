// Package cache stores terminal checkout session results. Terminal results
// never change, so entries only expire to bound memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"shopbridge/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMiss = errors.New("cache miss")

type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*domain.SessionResult, error)
	Put(ctx context.Context, result domain.SessionResult) error
}

const sessionKeyPrefix = "shopbridge:checkout-session:"

type redisSessionCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisSessionCache(rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) SessionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisSessionCache{rdb: rdb, ttl: ttl, logger: logger.Named("session_cache")}
}

func (c *redisSessionCache) Get(ctx context.Context, sessionID string) (*domain.SessionResult, error) {
	data, err := c.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	var out domain.SessionResult
	if err := json.Unmarshal(data, &out); err != nil {
		c.logger.Warn("drop corrupt entry", zap.String("session_id", sessionID), zap.Error(err))
		_ = c.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err()
		return nil, ErrMiss
	}
	return &out, nil
}

func (c *redisSessionCache) Put(ctx context.Context, result domain.SessionResult) error {
	if !result.Status.IsTerminal() {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, sessionKeyPrefix+result.SessionID, data, c.ttl).Err()
}

type memorySessionCache struct {
	mu      sync.RWMutex
	entries map[string]domain.SessionResult
}

// NewMemorySessionCache is used when no Redis address is configured.
func NewMemorySessionCache() SessionCache {
	return &memorySessionCache{entries: map[string]domain.SessionResult{}}
}

func (c *memorySessionCache) Get(_ context.Context, sessionID string) (*domain.SessionResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[sessionID]
	if !ok {
		return nil, ErrMiss
	}
	return &r, nil
}

func (c *memorySessionCache) Put(_ context.Context, result domain.SessionResult) error {
	if !result.Status.IsTerminal() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[result.SessionID] = result
	return nil
}
