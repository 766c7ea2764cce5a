package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/scrapline/scrapline/internal/ledger"
	"github.com/scrapline/scrapline/internal/model"
)

// OffersHandler exposes the offer negotiation endpoints.
type OffersHandler struct {
	Offers   *ledger.OfferLedger
	Listings ledger.ListingReader
}

type createOfferRequest struct {
	ListingID  int64   `json:"listing_id"`
	PricePerKg float64 `json:"price_per_kg"`
	QuantityKg float64 `json:"quantity_kg"`
	Message    string  `json:"message"`
}

type respondOfferRequest struct {
	Status string `json:"status"`
}

type counterOfferRequest struct {
	PricePerKg float64 `json:"price_per_kg"`
	QuantityKg float64 `json:"quantity_kg"`
	Message    string  `json:"message"`
}

// Create handles POST /api/offers (buyers only).
func (h *OffersHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	offer, err := h.Offers.CreateOffer(r.Context(), ledger.CreateOfferInput{
		ListingID:    req.ListingID,
		BuyerID:      claims.UserID,
		BuyerName:    claims.Username,
		BuyerCompany: claims.Company,
		PricePerKg:   req.PricePerKg,
		QuantityKg:   req.QuantityKg,
		Message:      req.Message,
	})
	if err != nil {
		ledgerError(w, err)
		return
	}

	slog.Info("offer created", "offer", offer.ID, "listing", req.ListingID, "buyer", claims.Username)
	jsonResponse(w, http.StatusCreated, offer)
}

// Get handles GET /api/offers/{id}. Only the negotiating parties and
// admins can read an offer.
func (h *OffersHandler) Get(w http.ResponseWriter, r *http.Request) {
	offer, err := h.Offers.OfferByID(r.Context(), r.PathValue("id"))
	if err != nil {
		ledgerError(w, err)
		return
	}

	if ok := h.party(w, r, offer); !ok {
		return
	}
	jsonResponse(w, http.StatusOK, offer)
}

// Respond handles POST /api/offers/{id}/respond (listing's seller only).
func (h *OffersHandler) Respond(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req respondOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := model.OfferStatus(req.Status)
	offer, err := h.Offers.RespondToOffer(r.Context(), r.PathValue("id"), claims.UserID, status)
	if err != nil {
		ledgerError(w, err)
		return
	}

	slog.Info("offer responded", "offer", offer.ID, "status", offer.Status, "seller", claims.Username)
	jsonResponse(w, http.StatusOK, offer)
}

// Counter handles POST /api/offers/{id}/counter. Either party of the
// negotiation may counter; the current round is marked COUNTERED and a
// new PENDING round is linked onto the thread.
func (h *OffersHandler) Counter(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req counterOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	offer, err := h.Offers.CounterOffer(r.Context(), r.PathValue("id"),
		claims.UserID, req.PricePerKg, req.QuantityKg, req.Message)
	if err != nil {
		ledgerError(w, err)
		return
	}

	slog.Info("offer countered", "offer", offer.ID, "parent", offer.ParentID, "by", claims.Username)
	jsonResponse(w, http.StatusCreated, offer)
}

// Sent handles GET /api/offers/sent.
func (h *OffersHandler) Sent(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	offers, err := h.Offers.SentOffers(r.Context(), claims.UserID)
	if err != nil {
		ledgerError(w, err)
		return
	}
	if offers == nil {
		offers = []model.Offer{}
	}
	jsonResponse(w, http.StatusOK, offers)
}

// Received handles GET /api/offers/received.
func (h *OffersHandler) Received(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	offers, err := h.Offers.ReceivedOffers(r.Context(), claims.UserID)
	if err != nil {
		ledgerError(w, err)
		return
	}
	if offers == nil {
		offers = []model.Offer{}
	}
	jsonResponse(w, http.StatusOK, offers)
}

// ByListing handles GET /api/listings/{id}/offers (listing's seller only).
func (h *OffersHandler) ByListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := h.Listings.Listing(r.Context(), listingID)
	if err != nil {
		ledgerError(w, err)
		return
	}
	if listing == nil {
		jsonError(w, http.StatusNotFound, "listing not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID != listing.SellerID && claims.Role != model.RoleAdmin {
		jsonError(w, http.StatusForbidden, "not your listing")
		return
	}

	offers, err := h.Offers.ListingOffers(r.Context(), listingID)
	if err != nil {
		ledgerError(w, err)
		return
	}
	if offers == nil {
		offers = []model.Offer{}
	}
	jsonResponse(w, http.StatusOK, offers)
}

// party verifies the caller is the offer's buyer, the listing's seller,
// or an admin. Writes the error response on failure.
func (h *OffersHandler) party(w http.ResponseWriter, r *http.Request, offer *model.Offer) bool {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return false
	}
	if claims.Role == model.RoleAdmin || claims.UserID == offer.BuyerID {
		return true
	}

	listing, err := h.Listings.Listing(r.Context(), offer.ListingID)
	if err != nil {
		ledgerError(w, err)
		return false
	}
	if listing == nil || listing.SellerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your offer")
		return false
	}
	return true
}
