package model

import "time"

// Listing represents a seller's posting of recyclable waste.
type Listing struct {
	ID          int64      `json:"id"`
	SellerID    int64      `json:"seller_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Material    string     `json:"material"`
	PricePerKg  float64    `json:"price_per_kg"`
	QuantityKg  float64    `json:"quantity_kg"`
	Location    string     `json:"location,omitempty"`
	PhotoMime   string     `json:"photo_mime,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	SellerName    string `json:"seller_name,omitempty"`
	SellerCompany string `json:"seller_company,omitempty"`
}

// Listing statuses.
const (
	ListingStatusActive = "active"
	ListingStatusClosed = "closed"
)

// Waste material categories.
const (
	MaterialPlastic = "plastic"
	MaterialPaper   = "paper"
	MaterialMetal   = "metal"
	MaterialGlass   = "glass"
	MaterialEWaste  = "e-waste"
	MaterialOrganic = "organic"
	MaterialTextile = "textile"
)

// ValidMaterial reports whether material is a known waste category.
func ValidMaterial(material string) bool {
	switch material {
	case MaterialPlastic, MaterialPaper, MaterialMetal, MaterialGlass,
		MaterialEWaste, MaterialOrganic, MaterialTextile:
		return true
	}
	return false
}
