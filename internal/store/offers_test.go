package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scrapline/scrapline/internal/db"
	"github.com/scrapline/scrapline/internal/model"
)

func testOffer(listingID, buyerID int64) *model.Offer {
	id := uuid.NewString()
	return &model.Offer{
		ID:         id,
		ListingID:  listingID,
		BuyerID:    buyerID,
		BuyerName:  "buyer",
		PricePerKg: 10,
		QuantityKg: 100,
		Status:     model.OfferPending,
		RootID:     id,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func TestOfferInsertAndGet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seller := testUser(t, database, "seller", model.RoleSeller)
	buyer := testUser(t, database, "buyer", model.RoleBuyer)
	listing := testListing(t, database, seller.ID, "PET bales")

	offers := &Offers{DB: database}
	in := testOffer(listing.ID, buyer.ID)
	in.Message = "can pick up friday"

	created, err := offers.Insert(ctx, in)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if created.Status != model.OfferPending {
		t.Errorf("expected PENDING, got %s", created.Status)
	}
	if created.Message != "can pick up friday" {
		t.Errorf("message not round-tripped: %q", created.Message)
	}
	if created.ListingTitle != "PET bales" {
		t.Errorf("expected joined listing title, got %q", created.ListingTitle)
	}
	if created.Material != model.MaterialPlastic {
		t.Errorf("expected joined material, got %q", created.Material)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	missing, err := offers.Get(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown offer")
	}
}

func TestOfferSetStatusGuarded(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seller := testUser(t, database, "seller", model.RoleSeller)
	buyer := testUser(t, database, "buyer", model.RoleBuyer)
	listing := testListing(t, database, seller.ID, "PET bales")

	offers := &Offers{DB: database}
	created, err := offers.Insert(ctx, testOffer(listing.ID, buyer.ID))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	ok, err := offers.SetStatus(ctx, created.ID, model.OfferPending, model.OfferAccepted)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected guarded update to apply")
	}

	// Guard no longer matches.
	ok, err = offers.SetStatus(ctx, created.ID, model.OfferPending, model.OfferRejected)
	if err != nil {
		t.Fatalf("SetStatus second: %v", err)
	}
	if ok {
		t.Error("expected stale guard to miss")
	}

	got, _ := offers.Get(ctx, created.ID)
	if got.Status != model.OfferAccepted {
		t.Errorf("expected ACCEPTED after failed swap, got %s", got.Status)
	}
}

func TestOfferCounterTransactional(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seller := testUser(t, database, "seller", model.RoleSeller)
	buyer := testUser(t, database, "buyer", model.RoleBuyer)
	listing := testListing(t, database, seller.ID, "PET bales")

	offers := &Offers{DB: database}
	orig, err := offers.Insert(ctx, testOffer(listing.ID, buyer.ID))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	next := testOffer(listing.ID, buyer.ID)
	next.PricePerKg = 12
	next.QuantityKg = 80
	next.ParentID = orig.ID
	next.RootID = orig.RootID

	ok, err := offers.Counter(ctx, orig.ID, next)
	if err != nil {
		t.Fatalf("Counter: %v", err)
	}
	if !ok {
		t.Fatal("expected counter to apply")
	}

	prev, _ := offers.Get(ctx, orig.ID)
	if prev.Status != model.OfferCountered {
		t.Errorf("expected original COUNTERED, got %s", prev.Status)
	}

	round, _ := offers.Get(ctx, next.ID)
	if round == nil || round.Status != model.OfferPending {
		t.Fatalf("expected new PENDING round, got %+v", round)
	}
	if round.ParentID != orig.ID || round.RootID != orig.RootID {
		t.Errorf("thread linkage broken: parent=%q root=%q", round.ParentID, round.RootID)
	}

	// Countering a non-pending round inserts nothing.
	again := testOffer(listing.ID, buyer.ID)
	ok, err = offers.Counter(ctx, orig.ID, again)
	if err != nil {
		t.Fatalf("Counter on countered round: %v", err)
	}
	if ok {
		t.Error("expected counter on archived round to miss")
	}
	if inserted, _ := offers.Get(ctx, again.ID); inserted != nil {
		t.Error("expected no insert when guard missed")
	}
}

func TestOfferLists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seller := testUser(t, database, "seller", model.RoleSeller)
	other := testUser(t, database, "other", model.RoleSeller)
	buyer := testUser(t, database, "buyer", model.RoleBuyer)
	listing1 := testListing(t, database, seller.ID, "PET bales")
	listing2 := testListing(t, database, other.ID, "Cardboard")

	offers := &Offers{DB: database}
	first, _ := offers.Insert(ctx, testOffer(listing1.ID, buyer.ID))
	second, _ := offers.Insert(ctx, testOffer(listing2.ID, buyer.ID))

	sent, err := offers.ListByBuyer(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("ListByBuyer: %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("expected 2 sent offers, got %d", len(sent))
	}
	// Newest first.
	if sent[0].ID != second.ID || sent[1].ID != first.ID {
		t.Errorf("expected newest-first ordering, got %s, %s", sent[0].ID, sent[1].ID)
	}

	received, err := offers.ListBySeller(ctx, seller.ID)
	if err != nil {
		t.Fatalf("ListBySeller: %v", err)
	}
	if len(received) != 1 || received[0].ID != first.ID {
		t.Errorf("expected only the offer on seller's listing, got %d", len(received))
	}

	byListing, err := offers.ListByListing(ctx, listing2.ID)
	if err != nil {
		t.Fatalf("ListByListing: %v", err)
	}
	if len(byListing) != 1 || byListing[0].ID != second.ID {
		t.Errorf("expected only listing2's offer, got %d", len(byListing))
	}
}

func TestOfferExpireBefore(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seller := testUser(t, database, "seller", model.RoleSeller)
	buyer := testUser(t, database, "buyer", model.RoleBuyer)
	listing := testListing(t, database, seller.ID, "PET bales")

	offers := &Offers{DB: database}

	stale := testOffer(listing.ID, buyer.ID)
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	offers.Insert(ctx, stale)

	fresh := testOffer(listing.ID, buyer.ID)
	offers.Insert(ctx, fresh)

	accepted := testOffer(listing.ID, buyer.ID)
	accepted.ExpiresAt = time.Now().Add(-time.Hour)
	offers.Insert(ctx, accepted)
	offers.SetStatus(ctx, accepted.ID, model.OfferPending, model.OfferAccepted)

	n, err := offers.ExpireBefore(ctx, time.Now())
	if err != nil {
		t.Fatalf("ExpireBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired offer, got %d", n)
	}

	got, _ := offers.Get(ctx, stale.ID)
	if got.Status != model.OfferExpired {
		t.Errorf("expected stale offer EXPIRED, got %s", got.Status)
	}
	got, _ = offers.Get(ctx, fresh.ID)
	if got.Status != model.OfferPending {
		t.Errorf("expected fresh offer still PENDING, got %s", got.Status)
	}
	got, _ = offers.Get(ctx, accepted.ID)
	if got.Status != model.OfferAccepted {
		t.Errorf("expected accepted offer untouched, got %s", got.Status)
	}
}
