package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/scrapline/scrapline/internal/ledger"
	"github.com/scrapline/scrapline/internal/model"
)

// OrdersHandler exposes the order lifecycle endpoints.
type OrdersHandler struct {
	Orders *ledger.OrderLedger
}

type createOrderRequest struct {
	OfferID    string `json:"offer_id"`
	PickupDate string `json:"pickup_date"`
	Note       string `json:"note"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type paymentStatusRequest struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

type orderNoteRequest struct {
	Body string `json:"body"`
}

// Create handles POST /api/orders. Only the buyer of an accepted offer
// can commit it to an order.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var pickup *time.Time
	if req.PickupDate != "" {
		t, err := time.Parse("2006-01-02", req.PickupDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "pickup_date must be YYYY-MM-DD")
			return
		}
		pickup = &t
	}

	order, err := h.Orders.CreateOrderFromOffer(r.Context(), ledger.CreateOrderInput{
		OfferID:    req.OfferID,
		UserID:     claims.UserID,
		UserName:   claims.Username,
		PickupDate: pickup,
		Note:       req.Note,
	})
	if err != nil {
		ledgerError(w, err)
		return
	}

	slog.Info("order created", "order", order.ID, "offer", req.OfferID, "buyer", claims.Username)
	jsonResponse(w, http.StatusCreated, order)
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.OrderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		ledgerError(w, err)
		return
	}

	if !h.party(w, r, order) {
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.Orders.UpdateOrderStatus(r.Context(), r.PathValue("id"),
		model.OrderStatus(req.Status), claims.UserID, claims.Username, req.Note)
	if err != nil {
		ledgerError(w, err)
		return
	}

	slog.Info("order status updated", "order", order.ID, "status", order.Status, "by", claims.Username)
	jsonResponse(w, http.StatusOK, order)
}

// UpdatePayment handles PUT /api/orders/{id}/payment.
func (h *OrdersHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req paymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.Orders.OrderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		ledgerError(w, err)
		return
	}
	if !h.party(w, r, order) {
		return
	}

	updated, err := h.Orders.UpdatePaymentStatus(r.Context(), order.ID,
		model.PaymentStatus(req.Status), req.Method)
	if err != nil {
		ledgerError(w, err)
		return
	}

	slog.Info("order payment updated", "order", updated.ID, "payment", updated.PaymentStatus, "by", claims.Username)
	jsonResponse(w, http.StatusOK, updated)
}

// AddNote handles POST /api/orders/{id}/notes.
func (h *OrdersHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req orderNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.Orders.AddOrderNote(r.Context(), r.PathValue("id"),
		req.Body, claims.UserID, claims.Username)
	if err != nil {
		ledgerError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, order)
}

// Buying handles GET /api/orders/buying.
func (h *OrdersHandler) Buying(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	orders, err := h.Orders.BuyerOrders(r.Context(), claims.UserID)
	if err != nil {
		ledgerError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Selling handles GET /api/orders/selling.
func (h *OrdersHandler) Selling(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	orders, err := h.Orders.SellerOrders(r.Context(), claims.UserID)
	if err != nil {
		ledgerError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// party verifies the caller is the order's buyer, seller, or an admin.
// Writes the error response on failure.
func (h *OrdersHandler) party(w http.ResponseWriter, r *http.Request, order *model.Order) bool {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return false
	}
	if claims.Role == model.RoleAdmin || claims.UserID == order.BuyerID || claims.UserID == order.SellerID {
		return true
	}
	jsonError(w, http.StatusForbidden, "not your order")
	return false
}
