package model

import "time"

// OfferStatus is the negotiation state of an offer round.
type OfferStatus string

// Offer statuses. Accepted, rejected and expired rounds are terminal and
// kept for audit; a countered round is superseded by a new pending round.
const (
	OfferPending   OfferStatus = "PENDING"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferRejected  OfferStatus = "REJECTED"
	OfferCountered OfferStatus = "COUNTERED"
	OfferExpired   OfferStatus = "EXPIRED"
)

// Offer represents one round of negotiation on a listing: a buyer's
// proposed price and quantity, or a counter-proposal in the same thread.
type Offer struct {
	ID           string      `json:"id"`
	ListingID    int64       `json:"listing_id"`
	BuyerID      int64       `json:"buyer_id"`
	BuyerName    string      `json:"buyer_name"`
	BuyerCompany string      `json:"buyer_company,omitempty"`
	PricePerKg   float64     `json:"price_per_kg"`
	QuantityKg   float64     `json:"quantity_kg"`
	Message      string      `json:"message,omitempty"`
	Status       OfferStatus `json:"status"`
	ParentID     string      `json:"parent_id,omitempty"`
	RootID       string      `json:"root_id"`
	ExpiresAt    time.Time   `json:"expires_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Joined fields (not always populated).
	ListingTitle string `json:"listing_title,omitempty"`
	Material     string `json:"material,omitempty"`
}
