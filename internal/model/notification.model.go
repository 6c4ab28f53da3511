package model

import "time"

// NotificationStatus is the lifecycle state of a notification record. It only
// moves forward: sent -> delivered|failed, delivered -> clicked.
type NotificationStatus string

const (
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusFailed    NotificationStatus = "failed"
	NotificationStatusClicked   NotificationStatus = "clicked"
)

// NotificationChannel is the transport a record was sent over.
type NotificationChannel string

const (
	ChannelPush  NotificationChannel = "push"
	ChannelEmail NotificationChannel = "email"
)

// NotificationRecord is the analytics row created at send time and
// transitioned as delivery outcomes arrive. CorrelationID is minted locally
// and carried through the provider payload so click callbacks can be
// attributed without trusting provider message ids to be unique.
type NotificationRecord struct {
	ID                int64               `json:"id"`
	ProfileID         int64               `json:"profile_id"`
	Channel           NotificationChannel `json:"channel"`
	Event             DeliveryEvent       `json:"event"`
	RecipientClass    RecipientClass      `json:"recipient_class"`
	OrderID           int64               `json:"order_id"`
	DispatchID        int64               `json:"dispatch_id"`
	Status            NotificationStatus  `json:"status"`
	ErrorMessage      string              `json:"error_message,omitempty"`
	ProviderMessageID string              `json:"provider_message_id,omitempty"`
	CorrelationID     string              `json:"correlation_id,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty"`
	ClickedAt         *time.Time          `json:"clicked_at,omitempty"`
}

// NotificationFilter controls analytics queries.
type NotificationFilter struct {
	From           *time.Time
	To             *time.Time
	RecipientClass *RecipientClass
	Event          *DeliveryEvent
	Channel        *NotificationChannel
}

// DeliverySummary holds the aggregate counters for a time range.
// DeliveryRate is delivered/sent, ClickRate is clicked/delivered.
type DeliverySummary struct {
	Group        string  `json:"group,omitempty"`
	Sent         int64   `json:"sent"`
	Delivered    int64   `json:"delivered"`
	Failed       int64   `json:"failed"`
	Clicked      int64   `json:"clicked"`
	DeliveryRate float64 `json:"delivery_rate"`
	ClickRate    float64 `json:"click_rate"`
}
