package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scrapline/scrapline/internal/model"
)

const listingColumns = `l.id, l.seller_id, l.title, l.description, l.material,
	        l.price_per_kg, l.quantity_kg, l.location, l.photo_mime, l.status,
	        l.created_at, l.updated_at, l.deleted_at,
	        u.username AS seller_name, u.company AS seller_company`

// CreateListing creates a new listing.
func CreateListing(ctx context.Context, db *sql.DB, sellerID int64, title, description, material string, pricePerKg, quantityKg float64, location string) (*model.Listing, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO listings (seller_id, title, description, material, price_per_kg, quantity_kg, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sellerID, title, nullString(description), material, pricePerKg, quantityKg, nullString(location),
	)
	if err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting listing id: %w", err)
	}

	return GetListing(ctx, db, id)
}

// GetListing returns a listing by ID, or nil if unknown.
func GetListing(ctx context.Context, db *sql.DB, id int64) (*model.Listing, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+listingColumns+`
		 FROM listings l
		 JOIN users u ON u.id = l.seller_id
		 WHERE l.id = ?`, id,
	)

	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	return l, nil
}

// ListingFilter narrows SearchListings results. Zero values mean no
// constraint on that axis.
type ListingFilter struct {
	Material string
	MinPrice float64
	MaxPrice float64
	Location string
	SellerID int64
	Status   string
}

// SearchListings returns non-deleted listings matching the filter, newest
// first.
func SearchListings(ctx context.Context, db *sql.DB, f ListingFilter) ([]model.Listing, error) {
	query := `SELECT ` + listingColumns + `
	          FROM listings l
	          JOIN users u ON u.id = l.seller_id
	          WHERE l.deleted_at IS NULL`
	var args []any

	if f.Material != "" {
		query += ` AND l.material = ?`
		args = append(args, f.Material)
	}
	if f.MinPrice > 0 {
		query += ` AND l.price_per_kg >= ?`
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		query += ` AND l.price_per_kg <= ?`
		args = append(args, f.MaxPrice)
	}
	if f.Location != "" {
		query += ` AND l.location LIKE ?`
		args = append(args, "%"+f.Location+"%")
	}
	if f.SellerID > 0 {
		query += ` AND l.seller_id = ?`
		args = append(args, f.SellerID)
	}
	if f.Status != "" {
		query += ` AND l.status = ?`
		args = append(args, f.Status)
	}

	query += ` ORDER BY l.created_at DESC, l.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// UpdateListing updates a listing's details.
func UpdateListing(ctx context.Context, db *sql.DB, id int64, title, description string, pricePerKg, quantityKg float64, location, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET title = ?, description = ?, price_per_kg = ?, quantity_kg = ?,
		        location = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		title, nullString(description), pricePerKg, quantityKg, nullString(location), status, id,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}
	return nil
}

// CloseListing marks a listing closed so it stops taking offers.
func CloseListing(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		model.ListingStatusClosed, id,
	)
	if err != nil {
		return fmt.Errorf("closing listing: %w", err)
	}
	return nil
}

// DeleteListing soft-deletes a listing.
func DeleteListing(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	return nil
}

// SetListingPhoto sets a listing's photo data.
func SetListingPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting listing photo: %w", err)
	}
	return nil
}

// GetListingPhoto returns a listing's photo data and MIME type.
func GetListingPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM listings WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting listing photo: %w", err)
	}
	return photo, mime.String, nil
}

func scanListing(row scanner) (*model.Listing, error) {
	l := &model.Listing{}
	var description, location, photoMime, company sql.NullString
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &description, &l.Material,
		&l.PricePerKg, &l.QuantityKg, &location, &photoMime, &l.Status,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
		&l.SellerName, &company)
	if err != nil {
		return nil, err
	}
	l.Description = description.String
	l.Location = location.String
	l.PhotoMime = photoMime.String
	l.SellerCompany = company.String
	return l, nil
}

// Catalog adapts listing lookups onto the ledger's read-only view.
type Catalog struct {
	DB *sql.DB
}

// Listing implements ledger.ListingReader. Soft-deleted listings read as
// missing so closed negotiations cannot be restarted against them.
func (c *Catalog) Listing(ctx context.Context, id int64) (*model.Listing, error) {
	l, err := GetListing(ctx, c.DB, id)
	if err != nil {
		return nil, err
	}
	if l == nil || l.DeletedAt != nil {
		return nil, nil
	}
	return l, nil
}
