package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/scrapline/scrapline/internal/model"
)

// memStore is an in-memory implementation of OfferRepo, OrderRepo and
// ListingReader, mirroring the guarantees the SQLite store provides.
type memStore struct {
	offers   map[string]*model.Offer
	orders   map[string]*model.Order
	notes    []model.OrderNote
	listings map[int64]*model.Listing
	noteSeq  int64
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		offers:   make(map[string]*model.Offer),
		orders:   make(map[string]*model.Order),
		listings: make(map[int64]*model.Listing),
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) addListing(l *model.Listing) *model.Listing {
	s.listings[l.ID] = l
	return l
}

func (s *memStore) Listing(_ context.Context, id int64) (*model.Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) Insert(_ context.Context, o *model.Offer) (*model.Offer, error) {
	cp := *o
	cp.CreatedAt = s.tick()
	cp.UpdatedAt = cp.CreatedAt
	s.offers[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memStore) Get(_ context.Context, id string) (*model.Offer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) SetStatus(_ context.Context, id string, from, to model.OfferStatus) (bool, error) {
	o, ok := s.offers[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = s.tick()
	return true, nil
}

func (s *memStore) Counter(ctx context.Context, prevID string, next *model.Offer) (bool, error) {
	ok, err := s.SetStatus(ctx, prevID, model.OfferPending, model.OfferCountered)
	if err != nil || !ok {
		return false, err
	}
	_, err = s.Insert(ctx, next)
	return err == nil, err
}

func (s *memStore) ListByBuyer(_ context.Context, buyerID int64) ([]model.Offer, error) {
	var out []model.Offer
	for _, o := range s.offers {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	sortOffers(out)
	return out, nil
}

func (s *memStore) ListBySeller(_ context.Context, sellerID int64) ([]model.Offer, error) {
	var out []model.Offer
	for _, o := range s.offers {
		if l, ok := s.listings[o.ListingID]; ok && l.SellerID == sellerID {
			out = append(out, *o)
		}
	}
	sortOffers(out)
	return out, nil
}

func (s *memStore) ListByListing(_ context.Context, listingID int64) ([]model.Offer, error) {
	var out []model.Offer
	for _, o := range s.offers {
		if o.ListingID == listingID {
			out = append(out, *o)
		}
	}
	sortOffers(out)
	return out, nil
}

func (s *memStore) ExpireBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, o := range s.offers {
		if o.Status == model.OfferPending && o.ExpiresAt.Before(cutoff) {
			o.Status = model.OfferExpired
			o.UpdatedAt = s.tick()
			n++
		}
	}
	return n, nil
}

func sortOffers(offers []model.Offer) {
	sort.Slice(offers, func(i, j int) bool {
		return offers[i].CreatedAt.After(offers[j].CreatedAt)
	})
}

// memOrders wraps memStore's order half so the two repos can be handed
// out separately.

func (s *memStore) InsertOrder(_ context.Context, o *model.Order) (*model.Order, error) {
	for _, existing := range s.orders {
		if existing.OfferID == o.OfferID {
			return nil, fmt.Errorf("order already exists for offer %s: %w", o.OfferID, ErrPrecondition)
		}
	}
	cp := *o
	cp.CreatedAt = s.tick()
	cp.UpdatedAt = cp.CreatedAt
	s.orders[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memStore) GetOrder(_ context.Context, id string) (*model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) ExistsForOffer(_ context.Context, offerID string) (bool, error) {
	for _, o := range s.orders {
		if o.OfferID == offerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) SetOrderStatus(_ context.Context, id string, from, to model.OrderStatus) (bool, error) {
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = s.tick()
	return true, nil
}

func (s *memStore) SetPayment(_ context.Context, id string, from, to model.PaymentStatus, method string) (bool, error) {
	o, ok := s.orders[id]
	if !ok || o.PaymentStatus != from {
		return false, nil
	}
	o.PaymentStatus = to
	if method != "" {
		o.PaymentMethod = method
	}
	o.UpdatedAt = s.tick()
	return true, nil
}

func (s *memStore) AddNote(_ context.Context, note *model.OrderNote) (*model.OrderNote, error) {
	s.noteSeq++
	cp := *note
	cp.ID = s.noteSeq
	cp.CreatedAt = s.tick()
	s.notes = append(s.notes, cp)
	out := cp
	return &out, nil
}

func (s *memStore) Notes(_ context.Context, orderID string) ([]model.OrderNote, error) {
	var out []model.OrderNote
	for _, n := range s.notes {
		if n.OrderID == orderID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *memStore) ListOrdersByBuyer(_ context.Context, buyerID int64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	sortOrders(out)
	return out, nil
}

func (s *memStore) ListOrdersBySeller(_ context.Context, sellerID int64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range s.orders {
		if o.SellerID == sellerID {
			out = append(out, *o)
		}
	}
	sortOrders(out)
	return out, nil
}

func sortOrders(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// orderRepo adapts memStore's order methods onto the OrderRepo interface.
type orderRepo struct{ *memStore }

func (r orderRepo) Insert(ctx context.Context, o *model.Order) (*model.Order, error) {
	return r.InsertOrder(ctx, o)
}

func (r orderRepo) Get(ctx context.Context, id string) (*model.Order, error) {
	return r.GetOrder(ctx, id)
}

func (r orderRepo) SetStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error) {
	return r.SetOrderStatus(ctx, id, from, to)
}

func (r orderRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Order, error) {
	return r.ListOrdersByBuyer(ctx, buyerID)
}

func (r orderRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	return r.ListOrdersBySeller(ctx, sellerID)
}

// captureNotifier records notifications for assertions.
type captureNotifier struct {
	sent []capturedNote
}

type capturedNote struct {
	UserID int64
	Kind   string
	Ref    string
}

func (c *captureNotifier) Notify(_ context.Context, userID int64, kind, _, ref string) {
	c.sent = append(c.sent, capturedNote{UserID: userID, Kind: kind, Ref: ref})
}
