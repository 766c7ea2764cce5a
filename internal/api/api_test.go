package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scrapline/scrapline/internal/db"
	"github.com/scrapline/scrapline/internal/model"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// register signs up a user through the API and returns their token.
func register(t *testing.T, server *httptest.Server, username, role string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": "password123",
		"company":  username + " d.o.o.",
		"role":     role,
	})
	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s failed: %d", username, resp.StatusCode)
	}

	var reg struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&reg)
	if reg.Token == "" {
		t.Fatal("empty token from register")
	}
	return reg.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON runs an authenticated request, checks the status, and decodes
// the response into out (which may be nil).
func doJSON(t *testing.T, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errBody map[string]string
		json.NewDecoder(resp.Body).Decode(&errBody)
		t.Fatalf("%s %s: expected %d, got %d (%v)", method, url, wantStatus, resp.StatusCode, errBody)
	}
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)
	register(t, server, "alice", model.RoleSeller)

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong-password"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"username": "alice", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for good password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"username": "sneaky",
		"password": "password123",
		"role":     model.RoleAdmin,
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for admin self-registration, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "alice", model.RoleSeller)

	doJSON(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)

	// The revoked token no longer works.
	req, _ := authRequest("GET", server.URL+"/api/listings", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListingsAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	seller := register(t, server, "seller", model.RoleSeller)
	buyer := register(t, server, "buyer", model.RoleBuyer)

	var listing model.Listing
	doJSON(t, "POST", server.URL+"/api/listings", seller, map[string]any{
		"title":        "PET bales",
		"material":     model.MaterialPlastic,
		"price_per_kg": 10.0,
		"quantity_kg":  500.0,
		"location":     "Ljubljana",
	}, http.StatusCreated, &listing)
	if listing.ID == 0 || listing.Status != model.ListingStatusActive {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	// Buyers cannot create listings.
	doJSON(t, "POST", server.URL+"/api/listings", buyer, map[string]any{
		"title":        "nope",
		"material":     model.MaterialPaper,
		"price_per_kg": 1.0,
		"quantity_kg":  1.0,
	}, http.StatusForbidden, nil)

	// Search by material.
	var results []model.Listing
	doJSON(t, "GET", server.URL+"/api/listings?material=plastic", buyer, nil, http.StatusOK, &results)
	if len(results) != 1 {
		t.Errorf("expected 1 search result, got %d", len(results))
	}

	// Only the owner can update.
	doJSON(t, "PUT", server.URL+"/api/listings/1", buyer, map[string]any{
		"title":        "hijacked",
		"price_per_kg": 1.0,
		"quantity_kg":  1.0,
	}, http.StatusForbidden, nil)

	var updated model.Listing
	doJSON(t, "PUT", server.URL+"/api/listings/1", seller, map[string]any{
		"title":        "PET bales, grade A",
		"price_per_kg": 11.0,
		"quantity_kg":  450.0,
		"location":     "Ljubljana",
	}, http.StatusOK, &updated)
	if updated.Title != "PET bales, grade A" {
		t.Errorf("update not applied: %+v", updated)
	}
}

func TestOfferNegotiationFlow(t *testing.T) {
	server := setupTestServer(t)
	seller := register(t, server, "seller", model.RoleSeller)
	buyer := register(t, server, "buyer", model.RoleBuyer)

	var listing model.Listing
	doJSON(t, "POST", server.URL+"/api/listings", seller, map[string]any{
		"title":        "Scrap copper",
		"material":     model.MaterialMetal,
		"price_per_kg": 5.0,
		"quantity_kg":  1000.0,
	}, http.StatusCreated, &listing)

	// Sellers cannot open offers.
	doJSON(t, "POST", server.URL+"/api/offers", seller, map[string]any{
		"listing_id":   listing.ID,
		"price_per_kg": 4.0,
		"quantity_kg":  500.0,
	}, http.StatusForbidden, nil)

	var offer model.Offer
	doJSON(t, "POST", server.URL+"/api/offers", buyer, map[string]any{
		"listing_id":   listing.ID,
		"price_per_kg": 4.0,
		"quantity_kg":  500.0,
		"message":      "Can do 4/kg for half the lot",
	}, http.StatusCreated, &offer)
	if offer.Status != model.OfferPending {
		t.Fatalf("expected pending offer, got %s", offer.Status)
	}

	// Buyer cannot answer their own offer.
	doJSON(t, "POST", server.URL+"/api/offers/"+offer.ID+"/respond", buyer,
		map[string]string{"status": string(model.OfferAccepted)}, http.StatusConflict, nil)

	// Seller counters.
	var counter model.Offer
	doJSON(t, "POST", server.URL+"/api/offers/"+offer.ID+"/counter", seller, map[string]any{
		"price_per_kg": 4.5,
		"quantity_kg":  500.0,
	}, http.StatusCreated, &counter)
	if counter.ParentID != offer.ID {
		t.Fatalf("counter not linked to original: %+v", counter)
	}

	// The countered round is settled; responding to it conflicts.
	doJSON(t, "POST", server.URL+"/api/offers/"+offer.ID+"/respond", seller,
		map[string]string{"status": string(model.OfferAccepted)}, http.StatusConflict, nil)

	// Seller accepts the live round.
	var accepted model.Offer
	doJSON(t, "POST", server.URL+"/api/offers/"+counter.ID+"/respond", seller,
		map[string]string{"status": string(model.OfferAccepted)}, http.StatusOK, &accepted)
	if accepted.Status != model.OfferAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	// Both parties see the thread.
	var sent []model.Offer
	doJSON(t, "GET", server.URL+"/api/offers/sent", buyer, nil, http.StatusOK, &sent)
	if len(sent) != 2 {
		t.Errorf("expected 2 rounds for buyer, got %d", len(sent))
	}
	var received []model.Offer
	doJSON(t, "GET", server.URL+"/api/offers/received", seller, nil, http.StatusOK, &received)
	if len(received) != 2 {
		t.Errorf("expected 2 rounds for seller, got %d", len(received))
	}
}

func TestOrderLifecycleFlow(t *testing.T) {
	server := setupTestServer(t)
	seller := register(t, server, "seller", model.RoleSeller)
	buyer := register(t, server, "buyer", model.RoleBuyer)

	var listing model.Listing
	doJSON(t, "POST", server.URL+"/api/listings", seller, map[string]any{
		"title":        "Cardboard",
		"material":     model.MaterialPaper,
		"price_per_kg": 2.0,
		"quantity_kg":  1000.0,
	}, http.StatusCreated, &listing)

	var offer model.Offer
	doJSON(t, "POST", server.URL+"/api/offers", buyer, map[string]any{
		"listing_id":   listing.ID,
		"price_per_kg": 1.8,
		"quantity_kg":  800.0,
	}, http.StatusCreated, &offer)

	// No order until the offer is accepted.
	doJSON(t, "POST", server.URL+"/api/orders", buyer,
		map[string]string{"offer_id": offer.ID}, http.StatusConflict, nil)

	doJSON(t, "POST", server.URL+"/api/offers/"+offer.ID+"/respond", seller,
		map[string]string{"status": string(model.OfferAccepted)}, http.StatusOK, nil)

	var order model.Order
	doJSON(t, "POST", server.URL+"/api/orders", buyer, map[string]string{
		"offer_id":    offer.ID,
		"pickup_date": "2026-09-15",
		"note":        "Gate 3, ask for Miha",
	}, http.StatusCreated, &order)
	if order.Status != model.OrderCreated || order.PaymentStatus != model.PaymentUnpaid {
		t.Fatalf("unexpected initial order state: %s/%s", order.Status, order.PaymentStatus)
	}
	if order.PricePerKg != 1.8 || order.QuantityKg != 800 {
		t.Errorf("order terms not copied from offer: %+v", order)
	}

	// Second order for the same offer conflicts.
	doJSON(t, "POST", server.URL+"/api/orders", buyer,
		map[string]string{"offer_id": offer.ID}, http.StatusConflict, nil)

	// Skipping CONFIRMED conflicts.
	doJSON(t, "PUT", server.URL+"/api/orders/"+order.ID+"/status", seller,
		map[string]string{"status": string(model.OrderInTransit)}, http.StatusConflict, nil)

	for _, status := range []model.OrderStatus{model.OrderConfirmed, model.OrderInTransit, model.OrderDelivered} {
		doJSON(t, "PUT", server.URL+"/api/orders/"+order.ID+"/status", seller,
			map[string]string{"status": string(status)}, http.StatusOK, nil)
	}

	// Delivered is terminal.
	doJSON(t, "PUT", server.URL+"/api/orders/"+order.ID+"/status", seller,
		map[string]string{"status": string(model.OrderCancelled)}, http.StatusConflict, nil)

	// Payment runs on its own axis.
	doJSON(t, "PUT", server.URL+"/api/orders/"+order.ID+"/payment", buyer,
		map[string]string{"status": string(model.PaymentPaid), "method": "bank transfer"}, http.StatusOK, nil)

	// Notes stay legal after delivery.
	doJSON(t, "POST", server.URL+"/api/orders/"+order.ID+"/notes", seller,
		map[string]string{"body": "Weighbridge slip attached"}, http.StatusCreated, nil)

	var final model.Order
	doJSON(t, "GET", server.URL+"/api/orders/"+order.ID, buyer, nil, http.StatusOK, &final)
	if final.Status != model.OrderDelivered || final.PaymentStatus != model.PaymentPaid {
		t.Errorf("unexpected final state: %s/%s", final.Status, final.PaymentStatus)
	}
	if len(final.Notes) < 2 {
		t.Errorf("expected initial and follow-up notes, got %d", len(final.Notes))
	}

	// A third party cannot read the order.
	outsider := register(t, server, "outsider", model.RoleBuyer)
	doJSON(t, "GET", server.URL+"/api/orders/"+order.ID, outsider, nil, http.StatusForbidden, nil)
}

func TestNotificationsFlowAPI(t *testing.T) {
	server := setupTestServer(t)
	seller := register(t, server, "seller", model.RoleSeller)
	buyer := register(t, server, "buyer", model.RoleBuyer)

	var listing model.Listing
	doJSON(t, "POST", server.URL+"/api/listings", seller, map[string]any{
		"title":        "Glass cullet",
		"material":     model.MaterialGlass,
		"price_per_kg": 0.5,
		"quantity_kg":  3000.0,
	}, http.StatusCreated, &listing)

	doJSON(t, "POST", server.URL+"/api/offers", buyer, map[string]any{
		"listing_id":   listing.ID,
		"price_per_kg": 0.4,
		"quantity_kg":  3000.0,
	}, http.StatusCreated, nil)

	// The seller was notified about the new offer.
	var notifications []model.Notification
	doJSON(t, "GET", server.URL+"/api/notifications?unread=true", seller, nil, http.StatusOK, &notifications)
	if len(notifications) != 1 {
		t.Fatalf("expected 1 unread notification, got %d", len(notifications))
	}
	if notifications[0].Kind != model.NotifyOfferReceived {
		t.Errorf("unexpected kind %q", notifications[0].Kind)
	}

	doJSON(t, "POST", server.URL+"/api/notifications/read-all", seller, nil, http.StatusOK, nil)
	doJSON(t, "GET", server.URL+"/api/notifications?unread=true", seller, nil, http.StatusOK, &notifications)
	if len(notifications) != 0 {
		t.Errorf("expected no unread notifications, got %d", len(notifications))
	}
}

func TestUsersAdminOnly(t *testing.T) {
	server := setupTestServer(t)
	seller := register(t, server, "seller", model.RoleSeller)

	doJSON(t, "GET", server.URL+"/api/users", seller, nil, http.StatusForbidden, nil)
}
