package model

import "errors"

// DeliveryEvent is the canonical lifecycle event derived from an upstream
// dispatch status. The set is closed: every event must have a customer-facing
// message template, which is what keeps downstream consumers exhaustive.
type DeliveryEvent string

const (
	EventAssigned  DeliveryEvent = "assigned"
	EventEnRoute   DeliveryEvent = "en_route"
	EventArrived   DeliveryEvent = "arrived"
	EventCompleted DeliveryEvent = "completed"
	EventDelayed   DeliveryEvent = "delayed"
	EventFailed    DeliveryEvent = "failed"
)

// AllDeliveryEvents returns every member of the enum. Tests range over this
// to prove template tables and the status mapper stay exhaustive.
func AllDeliveryEvents() []DeliveryEvent {
	return []DeliveryEvent{
		EventAssigned,
		EventEnRoute,
		EventArrived,
		EventCompleted,
		EventDelayed,
		EventFailed,
	}
}

// Terminal reports whether the event ends the dispatch lifecycle.
func (e DeliveryEvent) Terminal() bool {
	return e == EventCompleted || e == EventFailed
}

func (e DeliveryEvent) Valid() bool {
	switch e {
	case EventAssigned, EventEnRoute, EventArrived, EventCompleted, EventDelayed, EventFailed:
		return true
	}
	return false
}

// RecipientClass selects which audience a dispatch notification targets.
type RecipientClass string

const (
	RecipientCustomer RecipientClass = "CUSTOMER"
	RecipientAdmin    RecipientClass = "ADMIN"
	RecipientStore    RecipientClass = "STORE"
)

func (c RecipientClass) Valid() bool {
	switch c {
	case RecipientCustomer, RecipientAdmin, RecipientStore:
		return true
	}
	return false
}

// DispatchStatusRequest is the input to the dispatch notification entrypoint.
type DispatchStatusRequest struct {
	Status        string         `json:"status"`
	DispatchID    int64          `json:"dispatch_id"`
	OrderID       int64          `json:"order_id"`
	RecipientType RecipientClass `json:"recipient_type"`
}

func (r DispatchStatusRequest) Validate() error {
	if r.Status == "" {
		return errors.New("status is required")
	}
	if r.OrderID == 0 {
		return errors.New("order_id is required")
	}
	if !r.RecipientType.Valid() {
		return errors.New("recipient_type must be one of CUSTOMER, ADMIN, STORE")
	}
	return nil
}

// DispatchResult is what the entrypoint returns. Success is true even under
// partial internal failure so status-mutation code can always call it.
type DispatchResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
