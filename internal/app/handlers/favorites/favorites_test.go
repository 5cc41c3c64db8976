package favorites_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quickhost/internal/app/handlers/favorites"
	"quickhost/internal/app/uow"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	"quickhost/internal/domain/pricing"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/money"
	"quickhost/internal/infra/storage/memory"
)

var now = time.Date(2025, 11, 5, 18, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*memory.Store, memory.Factory) {
	t.Helper()
	store := memory.NewStore()
	factory := memory.Factory{Store: store}
	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:    "listing-1",
		Owner: "host-1",
		Fields: domainlistings.CreateListingFields{
			Title:       "Casa de praia",
			Category:    domainlistings.CategoryHome,
			SpaceType:   domainlistings.SpaceFull,
			Address:     domainlistings.Address{Street: "Rua das Gaivotas 9", City: "Ubatuba", Neighborhood: "Itaguá", PostalCode: "11680-000", UF: "SP"},
			Capacity:    domainlistings.Capacity{Rooms: 3, Beds: 4, Bathrooms: 2, Guests: 8},
			NightlyRate: money.Cents(70000),
			CleaningFee: money.Cents(15000),
		},
		Commission: pricing.DefaultCommission,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return store, factory
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestAddFavoriteRejectsDuplicates(t *testing.T) {
	store, factory := setup(t)
	add := &favorites.AddFavoriteHandler{UoWFactory: factory, Outbox: store.Outbox(), Now: func() time.Time { return now }, NewID: sequence("favorite")}
	ctx := context.Background()

	got, err := add.Handle(ctx, favorites.AddFavoriteCommand{UserID: "guest-1", ListingID: "listing-1"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ListingID != "listing-1" || got.UserID != "guest-1" {
		t.Fatalf("unexpected favorite %+v", got)
	}

	_, err = add.Handle(ctx, favorites.AddFavoriteCommand{UserID: "guest-1", ListingID: "listing-1"})
	if !errors.Is(err, domainfavorites.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("duplicate should be reported on a field, got %T", err)
	}
	if _, ok := verr.Map()["accommodation"]; !ok {
		t.Fatalf("missing accommodation field in %v", verr.Map())
	}

	if _, err := add.Handle(ctx, favorites.AddFavoriteCommand{UserID: "guest-2", ListingID: "listing-1"}); err != nil {
		t.Fatalf("another user may favorite the same listing: %v", err)
	}
	if _, err := add.Handle(ctx, favorites.AddFavoriteCommand{UserID: "guest-1", ListingID: "listing-404"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveFavoriteOnlyByOwner(t *testing.T) {
	store, factory := setup(t)
	ctx := context.Background()
	add := &favorites.AddFavoriteHandler{UoWFactory: factory, Now: func() time.Time { return now }, NewID: sequence("favorite")}
	fav, err := add.Handle(ctx, favorites.AddFavoriteCommand{UserID: "guest-1", ListingID: "listing-1"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	remove := &favorites.RemoveFavoriteHandler{UoWFactory: factory, Outbox: store.Outbox()}
	if _, err := remove.Handle(ctx, favorites.RemoveFavoriteCommand{UserID: "guest-2", FavoriteID: fav.ID}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if _, err := remove.Handle(ctx, favorites.RemoveFavoriteCommand{UserID: "guest-1", FavoriteID: fav.ID}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := remove.Handle(ctx, favorites.RemoveFavoriteCommand{UserID: "guest-1", FavoriteID: fav.ID}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}

	list := &favorites.ListFavoritesHandler{UoWFactory: factory}
	got, err := list.Handle(ctx, favorites.ListFavoritesQuery{UserID: "guest-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("expected no favorites, got %d", len(got.Items))
	}
	if _, err := add.Handle(ctx, favorites.AddFavoriteCommand{UserID: "guest-1", ListingID: "listing-1"}); err != nil {
		t.Fatalf("re-adding after removal should work: %v", err)
	}
}
