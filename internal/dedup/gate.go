package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
)

// DefaultTTL is the window during which a repeated (profile, event, order)
// triple is suppressed. Upstream emits duplicate status signals in practice;
// this gate exists to absorb them.
const DefaultTTL = 60 * time.Second

// Gate suppresses re-sends of the same notification within the TTL window.
// The guarantee is best-effort: two checks racing within a few milliseconds
// may both pass, so consumers must tolerate rare duplicates. On store errors
// implementations fail open (report "not a duplicate") because missing a
// dedup check is preferable to dropping a real notification.
type Gate interface {
	IsDuplicate(ctx context.Context, profileID int64, event model.DeliveryEvent, orderID int64) bool
	MarkSent(ctx context.Context, profileID int64, event model.DeliveryEvent, orderID int64)
	Clear(ctx context.Context)
}

func entryKey(profileID int64, event model.DeliveryEvent, orderID int64) string {
	return fmt.Sprintf("%d:%s:%d", profileID, event, orderID)
}
