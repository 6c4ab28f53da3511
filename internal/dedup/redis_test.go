package dedup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The adapter keeps a process-wide registry keyed by connection name, so each
// test gets its own name.
func setupRedisGate(t *testing.T, ttl time.Duration) (*RedisGate, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(fmt.Sprintf("dedup-test-%s-%d", t.Name(), time.Now().UnixNano()), "test:", &redis.Options{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return NewRedisGate(adapter, ttl), mr
}

func TestRedisGate_MarkThenDuplicate(t *testing.T) {
	g, _ := setupRedisGate(t, DefaultTTL)
	ctx := context.Background()

	assert.False(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 10))
	g.MarkSent(ctx, 1, model.EventAssigned, 10)
	assert.True(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 10))
}

func TestRedisGate_DistinctTriplesDoNotCollide(t *testing.T) {
	g, _ := setupRedisGate(t, DefaultTTL)
	ctx := context.Background()

	g.MarkSent(ctx, 1, model.EventFailed, 10)

	assert.False(t, g.IsDuplicate(ctx, 2, model.EventFailed, 10))
	assert.False(t, g.IsDuplicate(ctx, 1, model.EventDelayed, 10))
	assert.False(t, g.IsDuplicate(ctx, 1, model.EventFailed, 11))
}

func TestRedisGate_TTLExpiry(t *testing.T) {
	g, mr := setupRedisGate(t, DefaultTTL)
	ctx := context.Background()

	g.MarkSent(ctx, 1, model.EventEnRoute, 10)
	assert.True(t, g.IsDuplicate(ctx, 1, model.EventEnRoute, 10))

	mr.FastForward(DefaultTTL + time.Second)
	assert.False(t, g.IsDuplicate(ctx, 1, model.EventEnRoute, 10))
}

func TestRedisGate_MarkSentBumpsWindow(t *testing.T) {
	g, mr := setupRedisGate(t, DefaultTTL)
	ctx := context.Background()

	g.MarkSent(ctx, 1, model.EventArrived, 10)
	mr.FastForward(DefaultTTL / 2)

	// Re-marking resets the window rather than erroring on the existing key.
	g.MarkSent(ctx, 1, model.EventArrived, 10)
	mr.FastForward(DefaultTTL/2 + time.Second)
	assert.True(t, g.IsDuplicate(ctx, 1, model.EventArrived, 10))
}

func TestRedisGate_FailsOpenWhenStoreDown(t *testing.T) {
	g, mr := setupRedisGate(t, DefaultTTL)
	ctx := context.Background()

	g.MarkSent(ctx, 1, model.EventCompleted, 10)
	mr.Close()

	// Unreachable store means "not a duplicate", never an error.
	assert.False(t, g.IsDuplicate(ctx, 1, model.EventCompleted, 10))
}

func TestRedisGate_Clear(t *testing.T) {
	g, _ := setupRedisGate(t, DefaultTTL)
	ctx := context.Background()

	g.MarkSent(ctx, 1, model.EventAssigned, 10)
	g.MarkSent(ctx, 2, model.EventFailed, 20)
	g.Clear(ctx)

	assert.False(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 10))
	assert.False(t, g.IsDuplicate(ctx, 2, model.EventFailed, 20))
}
