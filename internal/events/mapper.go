package events

import (
	"github.com/mealdash/notification-gateway/internal/model"
)

// Upstream dispatch status strings. The catalogue is an external, unversioned
// contract: anything outside this table is silently ignored rather than
// erroring, so malformed upstream data can never break a status transition.
// Callers are expected to count unmapped sightings for alerting.
const (
	StatusAccepted          = "ACCEPTED"
	StatusDriverConfirmed   = "DRIVER_CONFIRMED"
	StatusEnRouteToPickup   = "EN_ROUTE_TO_PICKUP"
	StatusArrivedAtPickup   = "ARRIVED_AT_PICKUP"
	StatusPickedUp          = "PICKED_UP"
	StatusEnRouteToDelivery = "EN_ROUTE_TO_DELIVERY"
	StatusArrivedAtDelivery = "ARRIVED_AT_DELIVERY"
	StatusDelivered         = "DELIVERED"
	StatusCompleted         = "COMPLETED"
	StatusRunningLate       = "RUNNING_LATE"
	StatusDelayed           = "DELAYED"
	StatusFailed            = "FAILED"
	StatusCancelled         = "CANCELLED"
	StatusReturned          = "RETURNED"
)

// statusToEvent is the full mapping table. Pickup-leg progress deliberately
// has no entry: it is courier-internal and produces no recipient-facing
// notification.
var statusToEvent = map[string]model.DeliveryEvent{
	StatusAccepted:          model.EventAssigned,
	StatusDriverConfirmed:   model.EventAssigned,
	StatusPickedUp:          model.EventEnRoute,
	StatusEnRouteToDelivery: model.EventEnRoute,
	StatusArrivedAtDelivery: model.EventArrived,
	StatusDelivered:         model.EventCompleted,
	StatusCompleted:         model.EventCompleted,
	StatusRunningLate:       model.EventDelayed,
	StatusDelayed:           model.EventDelayed,
	StatusFailed:            model.EventFailed,
	StatusCancelled:         model.EventFailed,
	StatusReturned:          model.EventFailed,
}

// Map translates an upstream dispatch status into its canonical delivery
// event. ok is false when the status has no mapping, which is an explicit
// no-op for the caller, not an error.
func Map(status string) (event model.DeliveryEvent, ok bool) {
	event, ok = statusToEvent[status]
	return event, ok
}

// MappedStatuses returns the input alphabet the mapper understands.
func MappedStatuses() []string {
	out := make([]string, 0, len(statusToEvent))
	for s := range statusToEvent {
		out = append(out, s)
	}
	return out
}
