package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scrapline/scrapline/internal/model"
)

// DefaultOfferTTL is how long a pending offer stays open before the
// expiry sweep marks it EXPIRED.
const DefaultOfferTTL = 7 * 24 * time.Hour

// offerEdges are the permitted status transitions. COUNTERED -> PENDING
// happens by inserting a new round, never by mutating the old one, so it
// is not listed here.
var offerEdges = map[model.OfferStatus]map[model.OfferStatus]bool{
	model.OfferPending: {
		model.OfferAccepted:  true,
		model.OfferRejected:  true,
		model.OfferCountered: true,
		model.OfferExpired:   true,
	},
}

// OfferLedger owns offer records and enforces the negotiation rules for a
// single listing's offer threads.
type OfferLedger struct {
	repo     OfferRepo
	listings ListingReader
	notify   Notifier
	ttl      time.Duration
	now      func() time.Time
}

// NewOfferLedger creates an offer ledger with the default expiry window.
func NewOfferLedger(repo OfferRepo, listings ListingReader, notify Notifier) *OfferLedger {
	return &OfferLedger{
		repo:     repo,
		listings: listings,
		notify:   notify,
		ttl:      DefaultOfferTTL,
		now:      time.Now,
	}
}

// CreateOfferInput carries a buyer's proposal against a listing.
type CreateOfferInput struct {
	ListingID    int64
	BuyerID      int64
	BuyerName    string
	BuyerCompany string
	PricePerKg   float64
	QuantityKg   float64
	Message      string
}

// CreateOffer opens a new negotiation thread: a PENDING offer from a buyer
// against an active listing.
func (l *OfferLedger) CreateOffer(ctx context.Context, in CreateOfferInput) (*model.Offer, error) {
	if in.PricePerKg <= 0 {
		return nil, fmt.Errorf("price per kg must be positive: %w", ErrValidation)
	}
	if in.QuantityKg <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}

	listing, err := l.listings.Listing(ctx, in.ListingID)
	if err != nil {
		return nil, fmt.Errorf("looking up listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %d: %w", in.ListingID, ErrNotFound)
	}
	if listing.Status != model.ListingStatusActive {
		return nil, fmt.Errorf("listing %d is not active: %w", in.ListingID, ErrPrecondition)
	}
	if listing.SellerID == in.BuyerID {
		return nil, fmt.Errorf("cannot make an offer on your own listing: %w", ErrPrecondition)
	}

	now := l.now()
	id := uuid.NewString()
	offer := &model.Offer{
		ID:           id,
		ListingID:    in.ListingID,
		BuyerID:      in.BuyerID,
		BuyerName:    in.BuyerName,
		BuyerCompany: in.BuyerCompany,
		PricePerKg:   in.PricePerKg,
		QuantityKg:   in.QuantityKg,
		Message:      in.Message,
		Status:       model.OfferPending,
		RootID:       id,
		ExpiresAt:    now.Add(l.ttl),
	}

	created, err := l.repo.Insert(ctx, offer)
	if err != nil {
		return nil, fmt.Errorf("inserting offer: %w", err)
	}

	l.notify.Notify(ctx, listing.SellerID, model.NotifyOfferReceived,
		fmt.Sprintf("%s offered %.2f/kg for %.0f kg of %q", in.BuyerName, in.PricePerKg, in.QuantityKg, listing.Title),
		created.ID)
	return created, nil
}

// RespondToOffer records the seller's decision on a pending offer. The
// only permitted targets are ACCEPTED and REJECTED; countering goes
// through CounterOffer.
func (l *OfferLedger) RespondToOffer(ctx context.Context, offerID string, sellerID int64, status model.OfferStatus) (*model.Offer, error) {
	if status != model.OfferAccepted && status != model.OfferRejected {
		return nil, fmt.Errorf("cannot respond with status %s: %w", status, ErrInvalidTransition)
	}

	offer, err := l.repo.Get(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("looking up offer: %w", err)
	}
	if offer == nil {
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrNotFound)
	}

	listing, err := l.listings.Listing(ctx, offer.ListingID)
	if err != nil {
		return nil, fmt.Errorf("looking up listing: %w", err)
	}
	if listing == nil || listing.SellerID != sellerID {
		return nil, fmt.Errorf("only the listing owner can respond to an offer: %w", ErrPrecondition)
	}

	if !offerEdges[offer.Status][status] {
		return nil, fmt.Errorf("cannot move offer from %s to %s: %w", offer.Status, status, ErrInvalidTransition)
	}
	if err := l.ensureOpen(ctx, offer); err != nil {
		return nil, err
	}

	ok, err := l.repo.SetStatus(ctx, offerID, model.OfferPending, status)
	if err != nil {
		return nil, fmt.Errorf("updating offer status: %w", err)
	}
	if !ok {
		// Lost a race: the offer left PENDING between read and write.
		return nil, fmt.Errorf("offer %s is no longer pending: %w", offerID, ErrInvalidTransition)
	}

	updated, err := l.repo.Get(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("reloading offer: %w", err)
	}

	verb := "accepted"
	if status == model.OfferRejected {
		verb = "rejected"
	}
	l.notify.Notify(ctx, offer.BuyerID, model.NotifyOfferResponded,
		fmt.Sprintf("Your offer on %q was %s", listing.Title, verb), offerID)
	return updated, nil
}

// CounterOffer replaces a pending round with a new one carrying revised
// terms. Either side of the negotiation may counter; the prior round is
// marked COUNTERED and stays in the thread for history.
func (l *OfferLedger) CounterOffer(ctx context.Context, offerID string, actorID int64, pricePerKg, quantityKg float64, message string) (*model.Offer, error) {
	if pricePerKg <= 0 {
		return nil, fmt.Errorf("price per kg must be positive: %w", ErrValidation)
	}
	if quantityKg <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}

	offer, err := l.repo.Get(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("looking up offer: %w", err)
	}
	if offer == nil {
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrNotFound)
	}

	listing, err := l.listings.Listing(ctx, offer.ListingID)
	if err != nil {
		return nil, fmt.Errorf("looking up listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %d: %w", offer.ListingID, ErrNotFound)
	}
	if actorID != offer.BuyerID && actorID != listing.SellerID {
		return nil, fmt.Errorf("only the buyer or the listing owner can counter: %w", ErrPrecondition)
	}

	if offer.Status != model.OfferPending {
		return nil, fmt.Errorf("cannot counter an offer in status %s: %w", offer.Status, ErrInvalidTransition)
	}
	if err := l.ensureOpen(ctx, offer); err != nil {
		return nil, err
	}

	next := &model.Offer{
		ID:           uuid.NewString(),
		ListingID:    offer.ListingID,
		BuyerID:      offer.BuyerID,
		BuyerName:    offer.BuyerName,
		BuyerCompany: offer.BuyerCompany,
		PricePerKg:   pricePerKg,
		QuantityKg:   quantityKg,
		Message:      message,
		Status:       model.OfferPending,
		ParentID:     offer.ID,
		RootID:       offer.RootID,
		ExpiresAt:    l.now().Add(l.ttl),
	}

	ok, err := l.repo.Counter(ctx, offerID, next)
	if err != nil {
		return nil, fmt.Errorf("countering offer: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("offer %s is no longer pending: %w", offerID, ErrInvalidTransition)
	}

	created, err := l.repo.Get(ctx, next.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading counter offer: %w", err)
	}

	// Tell the side that did not act.
	target := listing.SellerID
	if actorID == listing.SellerID {
		target = offer.BuyerID
	}
	l.notify.Notify(ctx, target, model.NotifyOfferCountered,
		fmt.Sprintf("Counter offer on %q: %.2f/kg for %.0f kg", listing.Title, pricePerKg, quantityKg),
		created.ID)
	return created, nil
}

// ensureOpen rejects operations on a pending offer whose expiry window has
// passed but which the sweep has not yet visited. The lazy transition uses
// the same guarded write as every other edge.
func (l *OfferLedger) ensureOpen(ctx context.Context, offer *model.Offer) error {
	if offer.Status == model.OfferPending && l.now().After(offer.ExpiresAt) {
		if _, err := l.repo.SetStatus(ctx, offer.ID, model.OfferPending, model.OfferExpired); err != nil {
			return fmt.Errorf("expiring offer: %w", err)
		}
		return fmt.Errorf("offer %s has expired: %w", offer.ID, ErrInvalidTransition)
	}
	return nil
}

// ExpireStale transitions pending offers past their expiry to EXPIRED and
// returns how many were swept.
func (l *OfferLedger) ExpireStale(ctx context.Context) (int64, error) {
	n, err := l.repo.ExpireBefore(ctx, l.now())
	if err != nil {
		return 0, fmt.Errorf("expiring offers: %w", err)
	}
	return n, nil
}

// OfferByID returns a single offer.
func (l *OfferLedger) OfferByID(ctx context.Context, id string) (*model.Offer, error) {
	offer, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("looking up offer: %w", err)
	}
	if offer == nil {
		return nil, fmt.Errorf("offer %s: %w", id, ErrNotFound)
	}
	return offer, nil
}

// SentOffers returns offers made by a buyer, newest first.
func (l *OfferLedger) SentOffers(ctx context.Context, buyerID int64) ([]model.Offer, error) {
	return l.repo.ListByBuyer(ctx, buyerID)
}

// ReceivedOffers returns offers against a seller's listings, newest first.
func (l *OfferLedger) ReceivedOffers(ctx context.Context, sellerID int64) ([]model.Offer, error) {
	return l.repo.ListBySeller(ctx, sellerID)
}

// ListingOffers returns every round against a listing, newest first.
func (l *OfferLedger) ListingOffers(ctx context.Context, listingID int64) ([]model.Offer, error) {
	return l.repo.ListByListing(ctx, listingID)
}
