package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/scrapline/scrapline/internal/ledger"
	"github.com/scrapline/scrapline/internal/model"
)

// Orders is the SQLite-backed order repository.
type Orders struct {
	DB *sql.DB
}

const orderColumns = `o.id, o.offer_id, o.listing_id, o.buyer_id, o.seller_id,
	        o.price_per_kg, o.quantity_kg, o.status, o.payment_status, o.payment_method,
	        o.pickup_date, o.created_at, o.updated_at,
	        l.title AS listing_title, b.username AS buyer_name, s.username AS seller_name`

const orderJoins = `
	 FROM orders o
	 JOIN listings l ON l.id = o.listing_id
	 JOIN users b ON b.id = o.buyer_id
	 JOIN users s ON s.id = o.seller_id`

// Insert stores a new order and returns the stored row. The unique index
// on offer_id enforces at most one order per offer; a violation surfaces
// as ledger.ErrPrecondition so a lost creation race reads the same as the
// ledger's own duplicate check.
func (s *Orders) Insert(ctx context.Context, o *model.Order) (*model.Order, error) {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO orders (id, offer_id, listing_id, buyer_id, seller_id,
		                     price_per_kg, quantity_kg, status, payment_status, payment_method, pickup_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OfferID, o.ListingID, o.BuyerID, o.SellerID,
		o.PricePerKg, o.QuantityKg, string(o.Status), string(o.PaymentStatus),
		nullString(o.PaymentMethod), o.PickupDate,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: orders.offer_id") {
			return nil, fmt.Errorf("offer %s already has an order: %w", o.OfferID, ledger.ErrPrecondition)
		}
		return nil, fmt.Errorf("creating order: %w", err)
	}

	return s.Get(ctx, o.ID)
}

// Get returns an order by ID, or nil if unknown.
func (s *Orders) Get(ctx context.Context, id string) (*model.Order, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+orderColumns+orderJoins+`
		 WHERE o.id = ?`, id,
	)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return o, nil
}

// ExistsForOffer reports whether an order already references the offer.
func (s *Orders) ExistsForOffer(ctx context.Context, offerID string) (bool, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE offer_id = ?`, offerID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking order for offer: %w", err)
	}
	return count > 0, nil
}

// SetStatus moves an order to a new fulfillment status, guarded on the
// current one. Reports whether the row was updated.
func (s *Orders) SetStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("updating order status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking order update: %w", err)
	}
	return n > 0, nil
}

// SetPayment moves an order's payment status, guarded on the current one.
// A non-empty method replaces the recorded payment method.
func (s *Orders) SetPayment(ctx context.Context, id string, from, to model.PaymentStatus, method string) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE orders SET payment_status = ?,
		        payment_method = COALESCE(NULLIF(?, ''), payment_method),
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND payment_status = ?`,
		string(to), method, id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("updating payment status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking payment update: %w", err)
	}
	return n > 0, nil
}

// AddNote appends an entry to an order's note log.
func (s *Orders) AddNote(ctx context.Context, note *model.OrderNote) (*model.OrderNote, error) {
	result, err := s.DB.ExecContext(ctx,
		`INSERT INTO order_notes (order_id, author_id, author_name, is_buyer, body)
		 VALUES (?, ?, ?, ?, ?)`,
		note.OrderID, note.AuthorID, note.AuthorName, note.IsBuyer, note.Body,
	)
	if err != nil {
		return nil, fmt.Errorf("adding order note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting note id: %w", err)
	}

	n := &model.OrderNote{}
	err = s.DB.QueryRowContext(ctx,
		`SELECT id, order_id, author_id, author_name, is_buyer, body, created_at
		 FROM order_notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.OrderID, &n.AuthorID, &n.AuthorName, &n.IsBuyer, &n.Body, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reloading order note: %w", err)
	}
	return n, nil
}

// Notes returns an order's note log in append order.
func (s *Orders) Notes(ctx context.Context, orderID string) ([]model.OrderNote, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, order_id, author_id, author_name, is_buyer, body, created_at
		 FROM order_notes WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing order notes: %w", err)
	}
	defer rows.Close()

	var notes []model.OrderNote
	for rows.Next() {
		var n model.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.AuthorID, &n.AuthorName, &n.IsBuyer, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ListByBuyer returns a buyer's orders, newest first.
func (s *Orders) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Order, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+orderColumns+orderJoins+`
		 WHERE o.buyer_id = ?
		 ORDER BY o.created_at DESC, o.rowid DESC`, buyerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders by buyer: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListBySeller returns a seller's orders, newest first.
func (s *Orders) ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+orderColumns+orderJoins+`
		 WHERE o.seller_id = ?
		 ORDER BY o.created_at DESC, o.rowid DESC`, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders by seller: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrder(row scanner) (*model.Order, error) {
	o := &model.Order{}
	var method sql.NullString
	var status, payment string
	err := row.Scan(&o.ID, &o.OfferID, &o.ListingID, &o.BuyerID, &o.SellerID,
		&o.PricePerKg, &o.QuantityKg, &status, &payment, &method,
		&o.PickupDate, &o.CreatedAt, &o.UpdatedAt,
		&o.ListingTitle, &o.BuyerName, &o.SellerName)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = method.String
	o.Status = model.OrderStatus(status)
	o.PaymentStatus = model.PaymentStatus(payment)
	return o, nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
