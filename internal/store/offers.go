package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/scrapline/scrapline/internal/model"
)

// Offers is the SQLite-backed offer repository.
type Offers struct {
	DB *sql.DB
}

const offerColumns = `o.id, o.listing_id, o.buyer_id, o.buyer_name, o.buyer_company,
	        o.price_per_kg, o.quantity_kg, o.message, o.status, o.parent_id, o.root_id,
	        o.expires_at, o.created_at, o.updated_at,
	        l.title AS listing_title, l.material`

// Insert stores a new offer round and returns the stored row.
func (s *Offers) Insert(ctx context.Context, o *model.Offer) (*model.Offer, error) {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO offers (id, listing_id, buyer_id, buyer_name, buyer_company,
		                     price_per_kg, quantity_kg, message, status, parent_id, root_id, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ListingID, o.BuyerID, o.BuyerName, nullString(o.BuyerCompany),
		o.PricePerKg, o.QuantityKg, nullString(o.Message), string(o.Status),
		nullString(o.ParentID), o.RootID, o.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating offer: %w", err)
	}

	return s.Get(ctx, o.ID)
}

// Get returns an offer by ID, or nil if unknown.
func (s *Offers) Get(ctx context.Context, id string) (*model.Offer, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+offerColumns+`
		 FROM offers o
		 JOIN listings l ON l.id = o.listing_id
		 WHERE o.id = ?`, id,
	)

	o, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting offer: %w", err)
	}
	return o, nil
}

// SetStatus moves an offer to a new status, guarded on the current one.
// Reports whether the row was updated.
func (s *Offers) SetStatus(ctx context.Context, id string, from, to model.OfferStatus) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE offers SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("updating offer status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking offer update: %w", err)
	}
	return n > 0, nil
}

// Counter archives the previous round as COUNTERED and inserts the next
// round in one transaction. Reports false without inserting if the
// previous round already left PENDING.
func (s *Offers) Counter(ctx context.Context, prevID string, next *model.Offer) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE offers SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		string(model.OfferCountered), prevID, string(model.OfferPending),
	)
	if err != nil {
		return false, fmt.Errorf("archiving countered round: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return false, fmt.Errorf("checking countered round: %w", err)
	} else if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO offers (id, listing_id, buyer_id, buyer_name, buyer_company,
		                     price_per_kg, quantity_kg, message, status, parent_id, root_id, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		next.ID, next.ListingID, next.BuyerID, next.BuyerName, nullString(next.BuyerCompany),
		next.PricePerKg, next.QuantityKg, nullString(next.Message), string(next.Status),
		nullString(next.ParentID), next.RootID, next.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting counter round: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing counter: %w", err)
	}
	return true, nil
}

// ListByBuyer returns offers made by a buyer, newest first.
func (s *Offers) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Offer, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+offerColumns+`
		 FROM offers o
		 JOIN listings l ON l.id = o.listing_id
		 WHERE o.buyer_id = ?
		 ORDER BY o.created_at DESC, o.rowid DESC`, buyerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing offers by buyer: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// ListBySeller returns offers against a seller's listings, newest first.
func (s *Offers) ListBySeller(ctx context.Context, sellerID int64) ([]model.Offer, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+offerColumns+`
		 FROM offers o
		 JOIN listings l ON l.id = o.listing_id
		 WHERE l.seller_id = ?
		 ORDER BY o.created_at DESC, o.rowid DESC`, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing offers by seller: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// ListByListing returns every round against a listing, newest first.
func (s *Offers) ListByListing(ctx context.Context, listingID int64) ([]model.Offer, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+offerColumns+`
		 FROM offers o
		 JOIN listings l ON l.id = o.listing_id
		 WHERE o.listing_id = ?
		 ORDER BY o.created_at DESC, o.rowid DESC`, listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing offers by listing: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// ExpireBefore marks pending offers past their expiry as EXPIRED and
// returns how many rows it touched.
func (s *Offers) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE offers SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND expires_at < ?`,
		string(model.OfferExpired), string(model.OfferPending), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("expiring offers: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired offers: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(row scanner) (*model.Offer, error) {
	o := &model.Offer{}
	var company, message, parentID sql.NullString
	var status string
	err := row.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.BuyerName, &company,
		&o.PricePerKg, &o.QuantityKg, &message, &status, &parentID, &o.RootID,
		&o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt,
		&o.ListingTitle, &o.Material)
	if err != nil {
		return nil, err
	}
	o.BuyerCompany = company.String
	o.Message = message.String
	o.ParentID = parentID.String
	o.Status = model.OfferStatus(status)
	return o, nil
}

func scanOffers(rows *sql.Rows) ([]model.Offer, error) {
	var offers []model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning offer: %w", err)
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

// nullString maps "" to NULL for optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
