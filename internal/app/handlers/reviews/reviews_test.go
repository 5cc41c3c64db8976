package reviews_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"quickhost/internal/app/handlers/reviews"
	"quickhost/internal/app/uow"
	domainlistings "quickhost/internal/domain/listings"
	"quickhost/internal/domain/pricing"
	domainreviews "quickhost/internal/domain/reviews"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/money"
	"quickhost/internal/infra/storage/memory"
)

var now = time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)

var comment = strings.Repeat("Lugar limpo, anfitrião atencioso. ", 4)

type fixture struct {
	store   *memory.Store
	factory memory.Factory
	ids     int
}

func newFixture(t *testing.T, listingIDs ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{store: store, factory: memory.Factory{Store: store}}
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, id := range listingIDs {
		listing, err := domainlistings.NewListing(domainlistings.CreateParams{
			ID:    domainlistings.ListingID(id),
			Owner: "host-1",
			Fields: domainlistings.CreateListingFields{
				Title:       "Pousada " + id,
				Category:    domainlistings.CategoryInn,
				SpaceType:   domainlistings.SpaceLimited,
				Address:     domainlistings.Address{Street: "Rua do Porto 45", City: "Paraty", Neighborhood: "Centro Histórico", PostalCode: "23970-000", UF: "RJ"},
				Capacity:    domainlistings.Capacity{Rooms: 1, Beds: 2, Bathrooms: 1, Guests: 2},
				NightlyRate: money.Cents(25000),
				CleaningFee: money.Cents(0),
			},
			Commission: pricing.DefaultCommission,
			Now:        now,
		})
		if err != nil {
			t.Fatalf("listing %s: %v", id, err)
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return f
}

func (f *fixture) clock() time.Time { return now }

func (f *fixture) newID() string {
	f.ids++
	return fmt.Sprintf("review-%d", f.ids)
}

func (f *fixture) rating(t *testing.T, listingID string) float64 {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer unit.Rollback(context.Background())
	listing, err := unit.Listings().ByID(context.Background(), domainlistings.ListingID(listingID))
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	return listing.Rating
}

func (f *fixture) review(t *testing.T, author, listingID string, rating int) string {
	t.Helper()
	h := &reviews.CreateReviewHandler{UoWFactory: f.factory, Outbox: f.store.Outbox(), Now: f.clock, NewID: f.newID}
	got, err := h.Handle(context.Background(), reviews.CreateReviewCommand{AuthorID: author, ListingID: listingID, Rating: rating, Comment: comment})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	return got.ID
}

func TestCreateReviewRecomputesRating(t *testing.T) {
	f := newFixture(t, "listing-1")
	f.review(t, "guest-1", "listing-1", 5)
	f.review(t, "guest-2", "listing-1", 4)
	f.review(t, "guest-3", "listing-1", 4)
	if got := f.rating(t, "listing-1"); got != 4.33 {
		t.Fatalf("expected 4.33, got %v", got)
	}
}

func TestCreateReviewRejectsInput(t *testing.T) {
	cases := []struct {
		name    string
		listing string
		rating  int
		comment string
		want    error
	}{
		{"rating too high", "listing-1", 6, comment, domainreviews.ErrInvalidRating},
		{"rating zero", "listing-1", 0, comment, domainreviews.ErrInvalidRating},
		{"comment too short", "listing-1", 3, "ok", domainreviews.ErrCommentTooShort},
		{"comment too long", "listing-1", 3, strings.Repeat("x", 600), domainreviews.ErrCommentTooLong},
		{"unknown listing", "listing-9", 3, comment, apperr.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "listing-1")
			h := &reviews.CreateReviewHandler{UoWFactory: f.factory, Now: f.clock, NewID: f.newID}
			_, err := h.Handle(context.Background(), reviews.CreateReviewCommand{AuthorID: "guest-1", ListingID: tc.listing, Rating: tc.rating, Comment: tc.comment})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got := f.rating(t, "listing-1"); got != 0 {
				t.Fatalf("rating must stay 0, got %v", got)
			}
		})
	}
}

func TestUpdateReviewMovingListingRecomputesBoth(t *testing.T) {
	f := newFixture(t, "listing-1", "listing-2")
	f.review(t, "guest-1", "listing-1", 2)
	moving := f.review(t, "guest-2", "listing-1", 5)
	f.review(t, "guest-3", "listing-2", 3)

	target := "listing-2"
	rating := 4
	h := &reviews.UpdateReviewHandler{UoWFactory: f.factory, Outbox: f.store.Outbox(), Now: f.clock}
	got, err := h.Handle(context.Background(), reviews.UpdateReviewCommand{CallerID: "guest-2", ReviewID: moving, ListingID: &target, Rating: &rating})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ListingID != "listing-2" || got.Rating != 4 {
		t.Fatalf("unexpected review %+v", got)
	}
	if r := f.rating(t, "listing-1"); r != 2 {
		t.Fatalf("previous listing rating %v, want 2", r)
	}
	if r := f.rating(t, "listing-2"); r != 3.5 {
		t.Fatalf("new listing rating %v, want 3.5", r)
	}
}

func TestUpdateReviewRequiresAuthor(t *testing.T) {
	f := newFixture(t, "listing-1")
	id := f.review(t, "guest-1", "listing-1", 5)
	rating := 1
	h := &reviews.UpdateReviewHandler{UoWFactory: f.factory, Now: f.clock}
	_, err := h.Handle(context.Background(), reviews.UpdateReviewCommand{CallerID: "guest-2", ReviewID: id, Rating: &rating})
	if !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if r := f.rating(t, "listing-1"); r != 5 {
		t.Fatalf("rating changed to %v", r)
	}
}

func TestDeleteLastReviewResetsRating(t *testing.T) {
	f := newFixture(t, "listing-1")
	first := f.review(t, "guest-1", "listing-1", 5)
	second := f.review(t, "guest-2", "listing-1", 2)
	h := &reviews.DeleteReviewHandler{UoWFactory: f.factory, Outbox: f.store.Outbox(), Now: f.clock}

	if _, err := h.Handle(context.Background(), reviews.DeleteReviewCommand{CallerID: "guest-2", ReviewID: first}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if _, err := h.Handle(context.Background(), reviews.DeleteReviewCommand{CallerID: "guest-2", ReviewID: second}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if r := f.rating(t, "listing-1"); r != 5 {
		t.Fatalf("rating %v, want 5", r)
	}
	if _, err := h.Handle(context.Background(), reviews.DeleteReviewCommand{CallerID: "guest-1", ReviewID: first}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if r := f.rating(t, "listing-1"); r != 0 {
		t.Fatalf("rating %v, want 0", r)
	}
}

func TestListListingReviewsPaginates(t *testing.T) {
	f := newFixture(t, "listing-1")
	for i := 0; i < 5; i++ {
		f.review(t, fmt.Sprintf("guest-%d", i), "listing-1", 1+i%5)
	}
	h := &reviews.ListListingReviewsHandler{UoWFactory: f.factory}
	page, err := h.Handle(context.Background(), reviews.ListListingReviewsQuery{ListingID: "listing-1", Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 1 {
		t.Fatalf("unexpected page total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Rating != "3.00" {
		t.Fatalf("rating %q, want 3.00", page.Rating)
	}
	if _, err := h.Handle(context.Background(), reviews.ListListingReviewsQuery{ListingID: "missing"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
