package api

import (
	"database/sql"
	"net/http"

	"github.com/scrapline/scrapline/internal/ledger"
	"github.com/scrapline/scrapline/internal/model"
	"github.com/scrapline/scrapline/internal/store"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	catalog := &store.Catalog{DB: db}
	notifier := &store.Notifier{DB: db}
	offerLedger := ledger.NewOfferLedger(&store.Offers{DB: db}, catalog, notifier)
	orderLedger := ledger.NewOrderLedger(&store.Orders{DB: db}, &store.Offers{DB: db}, catalog, notifier)

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	listingsHandler := &ListingsHandler{DB: db}
	offersHandler := &OffersHandler{Offers: offerLedger, Listings: catalog}
	ordersHandler := &OrdersHandler{Orders: orderLedger}
	notificationsHandler := &NotificationsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireSeller := RequireRole(model.RoleSeller, model.RoleAdmin)
	requireBuyer := RequireRole(model.RoleBuyer, model.RoleAdmin)

	// Public.
	mux.HandleFunc("GET /api/health", health(db))
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Listings: read (all roles), write (sellers).
	mux.Handle("GET /api/listings", authMW(http.HandlerFunc(listingsHandler.Search)))
	mux.Handle("POST /api/listings", authMW(requireSeller(http.HandlerFunc(listingsHandler.Create))))
	mux.Handle("GET /api/listings/{id}", authMW(http.HandlerFunc(listingsHandler.Get)))
	mux.Handle("PUT /api/listings/{id}", authMW(requireSeller(http.HandlerFunc(listingsHandler.Update))))
	mux.Handle("POST /api/listings/{id}/close", authMW(requireSeller(http.HandlerFunc(listingsHandler.Close))))
	mux.Handle("DELETE /api/listings/{id}", authMW(requireSeller(http.HandlerFunc(listingsHandler.Delete))))
	mux.Handle("PUT /api/listings/{id}/photo", authMW(requireSeller(http.HandlerFunc(listingsHandler.UploadPhoto))))
	mux.Handle("GET /api/listings/{id}/photo", authMW(http.HandlerFunc(listingsHandler.GetPhoto)))
	mux.Handle("GET /api/listings/{id}/offers", authMW(requireSeller(http.HandlerFunc(offersHandler.ByListing))))

	// Offers.
	mux.Handle("POST /api/offers", authMW(requireBuyer(http.HandlerFunc(offersHandler.Create))))
	mux.Handle("GET /api/offers/sent", authMW(http.HandlerFunc(offersHandler.Sent)))
	mux.Handle("GET /api/offers/received", authMW(requireSeller(http.HandlerFunc(offersHandler.Received))))
	mux.Handle("GET /api/offers/{id}", authMW(http.HandlerFunc(offersHandler.Get)))
	mux.Handle("POST /api/offers/{id}/respond", authMW(http.HandlerFunc(offersHandler.Respond)))
	mux.Handle("POST /api/offers/{id}/counter", authMW(http.HandlerFunc(offersHandler.Counter)))

	// Orders.
	mux.Handle("POST /api/orders", authMW(requireBuyer(http.HandlerFunc(ordersHandler.Create))))
	mux.Handle("GET /api/orders/buying", authMW(http.HandlerFunc(ordersHandler.Buying)))
	mux.Handle("GET /api/orders/selling", authMW(http.HandlerFunc(ordersHandler.Selling)))
	mux.Handle("GET /api/orders/{id}", authMW(http.HandlerFunc(ordersHandler.Get)))
	mux.Handle("PUT /api/orders/{id}/status", authMW(http.HandlerFunc(ordersHandler.UpdateStatus)))
	mux.Handle("PUT /api/orders/{id}/payment", authMW(http.HandlerFunc(ordersHandler.UpdatePayment)))
	mux.Handle("POST /api/orders/{id}/notes", authMW(http.HandlerFunc(ordersHandler.AddNote)))

	// Notifications.
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("POST /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))
	mux.Handle("POST /api/notifications/read-all", authMW(http.HandlerFunc(notificationsHandler.MarkAllRead)))

	return mux
}

// health reports process and database liveness.
func health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
