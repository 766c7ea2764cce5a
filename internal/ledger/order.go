package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scrapline/scrapline/internal/model"
)

// orderEdges are the permitted fulfillment transitions: forward progress
// only, with cancellation possible from any non-terminal state.
var orderEdges = map[model.OrderStatus]map[model.OrderStatus]bool{
	model.OrderCreated: {
		model.OrderConfirmed: true,
		model.OrderCancelled: true,
	},
	model.OrderConfirmed: {
		model.OrderInTransit: true,
		model.OrderCancelled: true,
	},
	model.OrderInTransit: {
		model.OrderDelivered: true,
		model.OrderCancelled: true,
	},
}

// paymentNext is the single legal successor for each payment state.
var paymentNext = map[model.PaymentStatus]model.PaymentStatus{
	model.PaymentUnpaid: model.PaymentPaid,
	model.PaymentPaid:   model.PaymentRefunded,
}

// OrderLedger owns order records. Orders are created exclusively from
// accepted offers and then progress independently of the originating
// negotiation thread.
type OrderLedger struct {
	repo     OrderRepo
	offers   OfferRepo
	listings ListingReader
	notify   Notifier
}

// NewOrderLedger creates an order ledger.
func NewOrderLedger(repo OrderRepo, offers OfferRepo, listings ListingReader, notify Notifier) *OrderLedger {
	return &OrderLedger{
		repo:     repo,
		offers:   offers,
		listings: listings,
		notify:   notify,
	}
}

// CreateOrderInput carries the buyer's request to turn an accepted offer
// into an order.
type CreateOrderInput struct {
	OfferID    string
	UserID     int64
	UserName   string
	PickupDate *time.Time
	Note       string
}

// CreateOrderFromOffer creates an order from an accepted offer. At most
// one order can ever exist per offer; the offer's buyer is the only party
// allowed to commit.
func (l *OrderLedger) CreateOrderFromOffer(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	offer, err := l.offers.Get(ctx, in.OfferID)
	if err != nil {
		return nil, fmt.Errorf("looking up offer: %w", err)
	}
	if offer == nil {
		return nil, fmt.Errorf("offer %s: %w", in.OfferID, ErrNotFound)
	}
	if offer.Status != model.OfferAccepted {
		return nil, fmt.Errorf("offer %s is %s, only accepted offers become orders: %w", in.OfferID, offer.Status, ErrPrecondition)
	}
	if offer.BuyerID != in.UserID {
		return nil, fmt.Errorf("order buyer must match the offer buyer: %w", ErrPrecondition)
	}

	listing, err := l.listings.Listing(ctx, offer.ListingID)
	if err != nil {
		return nil, fmt.Errorf("looking up listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %d: %w", offer.ListingID, ErrNotFound)
	}

	exists, err := l.repo.ExistsForOffer(ctx, in.OfferID)
	if err != nil {
		return nil, fmt.Errorf("checking for existing order: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("offer %s already has an order: %w", in.OfferID, ErrPrecondition)
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		OfferID:       offer.ID,
		ListingID:     offer.ListingID,
		BuyerID:       offer.BuyerID,
		SellerID:      listing.SellerID,
		PricePerKg:    offer.PricePerKg,
		QuantityKg:    offer.QuantityKg,
		Status:        model.OrderCreated,
		PaymentStatus: model.PaymentUnpaid,
		PickupDate:    in.PickupDate,
	}

	// The repo's uniqueness guard on offer_id backstops the exists check
	// against a concurrent create.
	created, err := l.repo.Insert(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	if in.Note != "" {
		if _, err := l.repo.AddNote(ctx, &model.OrderNote{
			OrderID:    created.ID,
			AuthorID:   in.UserID,
			AuthorName: in.UserName,
			IsBuyer:    true,
			Body:       in.Note,
		}); err != nil {
			return nil, fmt.Errorf("adding initial note: %w", err)
		}
	}

	l.notify.Notify(ctx, listing.SellerID, model.NotifyOrderCreated,
		fmt.Sprintf("%s placed an order for %q", in.UserName, listing.Title), created.ID)
	return created, nil
}

// UpdateOrderStatus moves an order along the fulfillment state machine.
// An optional note is appended on success.
func (l *OrderLedger) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus, userID int64, userName, note string) (*model.Order, error) {
	order, err := l.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("looking up order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if userID != order.BuyerID && userID != order.SellerID {
		return nil, fmt.Errorf("only the buyer or seller can update an order: %w", ErrPrecondition)
	}

	if !orderEdges[order.Status][status] {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", order.Status, status, ErrInvalidTransition)
	}

	ok, err := l.repo.SetStatus(ctx, orderID, order.Status, status)
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("order %s is no longer %s: %w", orderID, order.Status, ErrInvalidTransition)
	}

	if note != "" {
		if _, err := l.repo.AddNote(ctx, &model.OrderNote{
			OrderID:    orderID,
			AuthorID:   userID,
			AuthorName: userName,
			IsBuyer:    userID == order.BuyerID,
			Body:       note,
		}); err != nil {
			return nil, fmt.Errorf("adding status note: %w", err)
		}
	}

	updated, err := l.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reloading order: %w", err)
	}

	target := order.SellerID
	if userID == order.SellerID {
		target = order.BuyerID
	}
	l.notify.Notify(ctx, target, model.NotifyOrderStatus,
		fmt.Sprintf("Order %s is now %s", orderID, status), orderID)
	return updated, nil
}

// UpdatePaymentStatus advances the payment axis. The only legal path is
// UNPAID -> PAID -> REFUNDED; the method is recorded when payment lands.
func (l *OrderLedger) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus, method string) (*model.Order, error) {
	order, err := l.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("looking up order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}

	if paymentNext[order.PaymentStatus] != status {
		return nil, fmt.Errorf("cannot move payment from %s to %s: %w", order.PaymentStatus, status, ErrInvalidTransition)
	}

	ok, err := l.repo.SetPayment(ctx, orderID, order.PaymentStatus, status, method)
	if err != nil {
		return nil, fmt.Errorf("updating payment status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("payment for order %s is no longer %s: %w", orderID, order.PaymentStatus, ErrInvalidTransition)
	}

	updated, err := l.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reloading order: %w", err)
	}

	l.notify.Notify(ctx, order.SellerID, model.NotifyOrderPayment,
		fmt.Sprintf("Payment for order %s is now %s", orderID, status), orderID)
	return updated, nil
}

// AddOrderNote appends to an order's note log. Always legal while the
// order exists, regardless of status; never touches either status axis.
func (l *OrderLedger) AddOrderNote(ctx context.Context, orderID, body string, userID int64, userName string) (*model.Order, error) {
	if body == "" {
		return nil, fmt.Errorf("note body must not be empty: %w", ErrValidation)
	}

	order, err := l.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("looking up order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if userID != order.BuyerID && userID != order.SellerID {
		return nil, fmt.Errorf("only the buyer or seller can add notes: %w", ErrPrecondition)
	}

	if _, err := l.repo.AddNote(ctx, &model.OrderNote{
		OrderID:    orderID,
		AuthorID:   userID,
		AuthorName: userName,
		IsBuyer:    userID == order.BuyerID,
		Body:       body,
	}); err != nil {
		return nil, fmt.Errorf("adding note: %w", err)
	}

	return l.OrderByID(ctx, orderID)
}

// OrderByID returns an order with its note log attached.
func (l *OrderLedger) OrderByID(ctx context.Context, id string) (*model.Order, error) {
	order, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("looking up order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}

	notes, err := l.repo.Notes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading order notes: %w", err)
	}
	order.Notes = notes
	return order, nil
}

// BuyerOrders returns a buyer's orders, newest first.
func (l *OrderLedger) BuyerOrders(ctx context.Context, buyerID int64) ([]model.Order, error) {
	return l.repo.ListByBuyer(ctx, buyerID)
}

// SellerOrders returns a seller's orders, newest first.
func (l *OrderLedger) SellerOrders(ctx context.Context, sellerID int64) ([]model.Order, error) {
	return l.repo.ListBySeller(ctx, sellerID)
}
