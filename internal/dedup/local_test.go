package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestLocalGate_MarkThenDuplicate(t *testing.T) {
	g := NewLocalGate(DefaultTTL)
	ctx := context.Background()

	assert.False(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 10))
	g.MarkSent(ctx, 1, model.EventAssigned, 10)
	assert.True(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 10))
}

func TestLocalGate_DistinctTriplesDoNotCollide(t *testing.T) {
	g := NewLocalGate(DefaultTTL)
	ctx := context.Background()

	g.MarkSent(ctx, 1, model.EventAssigned, 10)

	assert.False(t, g.IsDuplicate(ctx, 2, model.EventAssigned, 10), "different profile")
	assert.False(t, g.IsDuplicate(ctx, 1, model.EventEnRoute, 10), "different event")
	assert.False(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 11), "different order")
	assert.True(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 10))
}

func TestLocalGate_TTLExpiry(t *testing.T) {
	g := NewLocalGate(DefaultTTL)
	ctx := context.Background()

	now := time.Now()
	g.now = func() time.Time { return now }
	g.MarkSent(ctx, 1, model.EventCompleted, 10)

	g.now = func() time.Time { return now.Add(DefaultTTL - time.Second) }
	assert.True(t, g.IsDuplicate(ctx, 1, model.EventCompleted, 10))

	g.now = func() time.Time { return now.Add(DefaultTTL + time.Second) }
	assert.False(t, g.IsDuplicate(ctx, 1, model.EventCompleted, 10), "entry older than TTL must not suppress")
}

func TestLocalGate_Clear(t *testing.T) {
	g := NewLocalGate(DefaultTTL)
	ctx := context.Background()

	g.MarkSent(ctx, 1, model.EventAssigned, 10)
	g.MarkSent(ctx, 2, model.EventFailed, 20)
	g.Clear(ctx)

	assert.False(t, g.IsDuplicate(ctx, 1, model.EventAssigned, 10))
	assert.False(t, g.IsDuplicate(ctx, 2, model.EventFailed, 20))
}
