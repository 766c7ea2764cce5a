package model

import "time"

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

// Order statuses. Delivered and cancelled are terminal.
const (
	OrderCreated   OrderStatus = "CREATED"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderInTransit OrderStatus = "IN_TRANSIT"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus is the payment state of an order, tracked independently
// of fulfillment.
type PaymentStatus string

// Payment statuses.
const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Order is a committed transaction created from an accepted offer. Terms
// are copied from the winning offer round at creation, so the order stays
// self-contained once the negotiation thread is archived.
type Order struct {
	ID            string        `json:"id"`
	OfferID       string        `json:"offer_id"`
	ListingID     int64         `json:"listing_id"`
	BuyerID       int64         `json:"buyer_id"`
	SellerID      int64         `json:"seller_id"`
	PricePerKg    float64       `json:"price_per_kg"`
	QuantityKg    float64       `json:"quantity_kg"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	PickupDate    *time.Time    `json:"pickup_date,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Joined fields (not always populated).
	ListingTitle string      `json:"listing_title,omitempty"`
	BuyerName    string      `json:"buyer_name,omitempty"`
	SellerName   string      `json:"seller_name,omitempty"`
	Notes        []OrderNote `json:"notes,omitempty"`
}

// OrderNote is one entry in an order's append-only note log.
type OrderNote struct {
	ID         int64     `json:"id"`
	OrderID    string    `json:"order_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	IsBuyer    bool      `json:"is_buyer"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
