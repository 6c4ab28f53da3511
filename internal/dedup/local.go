package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
)

// LocalGate is the single-instance variant: a process-local map with lazy
// expiry on lookup. Not suitable when multiple gateway instances dispatch
// for the same orders; use RedisGate there.
type LocalGate struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func NewLocalGate(ttl time.Duration) *LocalGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LocalGate{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (g *LocalGate) IsDuplicate(_ context.Context, profileID int64, event model.DeliveryEvent, orderID int64) bool {
	key := entryKey(profileID, event, orderID)

	g.mu.Lock()
	defer g.mu.Unlock()

	createdAt, ok := g.entries[key]
	if !ok {
		return false
	}
	if g.now().Sub(createdAt) >= g.ttl {
		delete(g.entries, key)
		return false
	}
	return true
}

func (g *LocalGate) MarkSent(_ context.Context, profileID int64, event model.DeliveryEvent, orderID int64) {
	key := entryKey(profileID, event, orderID)

	g.mu.Lock()
	g.entries[key] = g.now()
	g.mu.Unlock()
}

func (g *LocalGate) Clear(_ context.Context) {
	g.mu.Lock()
	g.entries = make(map[string]time.Time)
	g.mu.Unlock()
}
