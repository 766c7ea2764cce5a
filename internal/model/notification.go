package model

import "time"

// Notification is a message for a user about activity on their offers,
// orders or listings.
type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Ref       string     `json:"ref,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Notification kinds.
const (
	NotifyOfferReceived  = "offer_received"
	NotifyOfferResponded = "offer_responded"
	NotifyOfferCountered = "offer_countered"
	NotifyOrderCreated   = "order_created"
	NotifyOrderStatus    = "order_status"
	NotifyOrderPayment   = "order_payment"
)
