package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/scrapline/scrapline/internal/model"
	"github.com/scrapline/scrapline/internal/photo"
	"github.com/scrapline/scrapline/internal/store"
)

// ListingsHandler handles the waste listing catalog endpoints.
type ListingsHandler struct {
	DB *sql.DB
}

type listingRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Material    string  `json:"material"`
	PricePerKg  float64 `json:"price_per_kg"`
	QuantityKg  float64 `json:"quantity_kg"`
	Location    string  `json:"location"`
	Status      string  `json:"status"`
}

// Search handles GET /api/listings. Filter parameters are optional.
func (h *ListingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListingFilter{
		Material: q.Get("material"),
		Location: q.Get("location"),
		Status:   q.Get("status"),
	}
	if v := q.Get("min_price"); v != "" {
		filter.MinPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("max_price"); v != "" {
		filter.MaxPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("seller_id"); v != "" {
		filter.SellerID, _ = strconv.ParseInt(v, 10, 64)
	}

	listings, err := store.SearchListings(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to search listings", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to search listings")
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	jsonResponse(w, http.StatusOK, listings)
}

// Create handles POST /api/listings (sellers only).
func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if !model.ValidMaterial(req.Material) {
		jsonError(w, http.StatusBadRequest, "invalid material")
		return
	}
	if req.PricePerKg <= 0 || req.QuantityKg <= 0 {
		jsonError(w, http.StatusBadRequest, "price and quantity must be positive")
		return
	}

	listing, err := store.CreateListing(r.Context(), h.DB, claims.UserID,
		req.Title, req.Description, req.Material, req.PricePerKg, req.QuantityKg, req.Location)
	if err != nil {
		slog.Error("failed to create listing", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create listing")
		return
	}

	slog.Info("listing created", "listing", listing.ID, "seller", claims.Username)
	jsonResponse(w, http.StatusCreated, listing)
}

// Get handles GET /api/listings/{id}.
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := store.GetListing(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get listing")
		return
	}
	if listing == nil {
		jsonError(w, http.StatusNotFound, "listing not found")
		return
	}
	jsonResponse(w, http.StatusOK, listing)
}

// Update handles PUT /api/listings/{id} (own listings only).
func (h *ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.ownListing(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if req.PricePerKg <= 0 || req.QuantityKg <= 0 {
		jsonError(w, http.StatusBadRequest, "price and quantity must be positive")
		return
	}
	if req.Status == "" {
		req.Status = listing.Status
	}
	if req.Status != model.ListingStatusActive && req.Status != model.ListingStatusClosed {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := store.UpdateListing(r.Context(), h.DB, listing.ID,
		req.Title, req.Description, req.PricePerKg, req.QuantityKg, req.Location, req.Status); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update listing")
		return
	}

	updated, err := store.GetListing(r.Context(), h.DB, listing.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get listing")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Close handles POST /api/listings/{id}/close (own listings only).
func (h *ListingsHandler) Close(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.ownListing(w, r)
	if !ok {
		return
	}

	if err := store.CloseListing(r.Context(), h.DB, listing.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to close listing")
		return
	}

	slog.Info("listing closed", "listing", listing.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "listing closed"})
}

// Delete handles DELETE /api/listings/{id} (own listings only).
func (h *ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.ownListing(w, r)
	if !ok {
		return
	}

	if err := store.DeleteListing(r.Context(), h.DB, listing.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete listing")
		return
	}

	slog.Info("listing deleted", "listing", listing.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

// UploadPhoto handles PUT /api/listings/{id}/photo (own listings only).
func (h *ListingsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.ownListing(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxUploadBytes)

	if err := r.ParseMultipartForm(photo.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	normalized, err := photo.Normalize(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetListingPhoto(r.Context(), h.DB, listing.ID, normalized.Data, normalized.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/listings/{id}/photo.
func (h *ListingsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	data, mime, err := store.GetListingPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// ownListing loads the listing from the path and verifies the caller is
// its seller or an admin. Writes the error response on failure.
func (h *ListingsHandler) ownListing(w http.ResponseWriter, r *http.Request) (*model.Listing, bool) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return nil, false
	}

	listing, err := store.GetListing(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get listing")
		return nil, false
	}
	if listing == nil {
		jsonError(w, http.StatusNotFound, "listing not found")
		return nil, false
	}

	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	if listing.SellerID != claims.UserID && claims.Role != model.RoleAdmin {
		jsonError(w, http.StatusForbidden, "not your listing")
		return nil, false
	}
	return listing, true
}
