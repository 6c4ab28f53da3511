package model

// OrderSource identifies which order table an id resolved against. An order
// id only ever lives in one of the two.
type OrderSource string

const (
	OrderSourceDelivery OrderSource = "delivery"
	OrderSourceCatering OrderSource = "catering"
)

// OrderContext is the slice of order state the notification subsystem needs:
// who owns it, who created it, and the human-readable number used in
// message bodies.
type OrderContext struct {
	OrderID            int64       `json:"order_id"`
	OrderNumber        string      `json:"order_number"`
	OwnerProfileID     int64       `json:"owner_profile_id"`
	CreatedByProfileID int64       `json:"created_by_profile_id"`
	Source             OrderSource `json:"source"`
}
