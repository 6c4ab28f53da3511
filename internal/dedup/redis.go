package dedup

import (
	"context"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/logger"
	"github.com/mealdash/notification-gateway/pkg/redis"
)

const redisKeyPrefix = "dedup:"

// RedisGate is the shared-store variant for multi-instance deployments.
// MarkSent is an upsert: SET with TTL creates the entry if absent and bumps
// its age otherwise, so concurrent writers converge safely. The key TTL is
// the dedup window, so lookups reduce to existence checks.
type RedisGate struct {
	adapter redis.RedisAdapter
	ttl     time.Duration
}

func NewRedisGate(adapter redis.RedisAdapter, ttl time.Duration) *RedisGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGate{
		adapter: adapter,
		ttl:     ttl,
	}
}

func (g *RedisGate) IsDuplicate(_ context.Context, profileID int64, event model.DeliveryEvent, orderID int64) bool {
	key := redisKeyPrefix + entryKey(profileID, event, orderID)

	_, err := g.adapter.Get(key)
	if err == nil {
		return true
	}
	if err != redis.NilError {
		// Fail open: an unreachable store must not drop real notifications.
		logger.Warn("dedup check failed, treating as not duplicate", "key", key, "error", err)
	}
	return false
}

func (g *RedisGate) MarkSent(_ context.Context, profileID int64, event model.DeliveryEvent, orderID int64) {
	key := redisKeyPrefix + entryKey(profileID, event, orderID)

	if err := g.adapter.Set(key, []byte("1"), g.ttl); err != nil {
		logger.Warn("dedup mark failed", "key", key, "error", err)
	}
}

// Clear removes all dedup entries. Test/ops utility only.
func (g *RedisGate) Clear(_ context.Context) {
	var cursor uint64
	for {
		keys, next, err := g.adapter.Scan(cursor, redisKeyPrefix+"*", 100)
		if err != nil {
			logger.Warn("dedup clear scan failed", "error", err)
			return
		}
		for _, key := range keys {
			if err := g.adapter.Del(key); err != nil {
				logger.Warn("dedup clear delete failed", "key", key, "error", err)
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
