package ledger

import (
	"context"
	"time"

	"github.com/scrapline/scrapline/internal/model"
)

// OfferRepo is the storage contract for offer rounds. SetStatus and
// Counter are compare-and-swap operations: they only apply if the record
// is still in the expected state, and report whether they did. This keeps
// transitions atomic when buyer and seller act concurrently.
type OfferRepo interface {
	Insert(ctx context.Context, o *model.Offer) (*model.Offer, error)
	Get(ctx context.Context, id string) (*model.Offer, error)
	SetStatus(ctx context.Context, id string, from, to model.OfferStatus) (bool, error)
	// Counter marks the previous round COUNTERED and inserts the next
	// round in a single transaction, guarded on the previous round still
	// being PENDING.
	Counter(ctx context.Context, prevID string, next *model.Offer) (bool, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]model.Offer, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Offer, error)
	ListByListing(ctx context.Context, listingID int64) ([]model.Offer, error)
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderRepo is the storage contract for orders and their note log.
// Insert must enforce at most one order per offer and surface a duplicate
// as ErrPrecondition.
type OrderRepo interface {
	Insert(ctx context.Context, o *model.Order) (*model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	ExistsForOffer(ctx context.Context, offerID string) (bool, error)
	SetStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error)
	SetPayment(ctx context.Context, id string, from, to model.PaymentStatus, method string) (bool, error)
	AddNote(ctx context.Context, note *model.OrderNote) (*model.OrderNote, error)
	Notes(ctx context.Context, orderID string) ([]model.OrderNote, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error)
}

// ListingReader is the read-only view of the listing catalog used to
// authorize responses and resolve sellers.
type ListingReader interface {
	Listing(ctx context.Context, id int64) (*model.Listing, error)
}

// Notifier is a write-only side channel. Implementations must not fail
// the calling operation; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind, message, ref string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, int64, string, string, string) {}
