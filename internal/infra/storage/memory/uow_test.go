package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	appoutbox "quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	"quickhost/internal/domain/membership"
)

var testTime = time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)

func TestOutboxRecordsWaitForCommit(t *testing.T) {
	store := NewStore()
	factory := Factory{Store: store}
	box := store.Outbox()

	for _, commit := range []bool{false, true} {
		unit, ctx, err := uow.Begin(context.Background(), factory, uow.TxOptions{})
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := box.Add(ctx, appoutbox.EventRecord{ID: "evt", Name: "listing.created", Payload: []byte(`{}`)}); err != nil {
			t.Fatalf("add: %v", err)
		}
		if n := len(box.Pending()); n != 0 {
			t.Fatalf("record visible before commit: %d", n)
		}
		if commit {
			err = unit.Commit(ctx)
		} else {
			err = unit.Rollback(ctx)
		}
		if err != nil {
			t.Fatalf("finish: %v", err)
		}
	}
	if n := len(box.Pending()); n != 1 {
		t.Fatalf("expected only the committed record, got %d", n)
	}

	doc, err := box.Claim(context.Background(), "w1")
	if err != nil || doc == nil {
		t.Fatalf("claim: %v %v", doc, err)
	}
	if again, _ := box.Claim(context.Background(), "w2"); again != nil {
		t.Fatal("claimed record must not be handed out twice")
	}
	if err := box.MarkSent(context.Background(), doc.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if n := len(box.Pending()); n != 0 {
		t.Fatalf("sent record still pending: %d", n)
	}
}

func TestUnitIsolationAndReadOnly(t *testing.T) {
	store := NewStore()
	factory := Factory{Store: store}
	ctx := context.Background()

	writer, _ := factory.Begin(ctx, uow.TxOptions{})
	reader, _ := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err := membership.LinkListing(ctx, writer.Memberships(), "owner-1", "listing-1"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if ok, _ := reader.Memberships().Contains(ctx, membership.UserListings, "owner-1", "listing-1"); ok {
		t.Fatal("uncommitted write leaked into another unit")
	}
	if err := reader.Memberships().Add(ctx, membership.UserListings, "owner-1", "listing-2"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := writer.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := writer.Commit(ctx); !errors.Is(err, ErrUnitClosed) {
		t.Fatalf("expected ErrUnitClosed, got %v", err)
	}

	after, _ := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if ok, _ := after.Memberships().Contains(ctx, membership.UserListings, "owner-1", "listing-1"); !ok {
		t.Fatal("committed write not visible")
	}
}

func TestFavoriteUniquenessAcrossUnits(t *testing.T) {
	store := NewStore()
	factory := Factory{Store: store}
	ctx := context.Background()

	first, _ := factory.Begin(ctx, uow.TxOptions{})
	second, _ := factory.Begin(ctx, uow.TxOptions{})
	a, _ := domainfavorites.New("fav-a", "guest-1", "listing-1", testTime)
	b, _ := domainfavorites.New("fav-b", "guest-1", "listing-1", testTime)
	if err := first.Favorites().Insert(ctx, a); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := second.Favorites().Insert(ctx, b); err != nil {
		t.Fatalf("insert b in its own snapshot: %v", err)
	}
	if err := first.Commit(ctx); err != nil {
		t.Fatalf("commit a: %v", err)
	}
	if err := second.Commit(ctx); !errors.Is(err, domainfavorites.ErrDuplicate) {
		t.Fatalf("expected duplicate on commit, got %v", err)
	}
}

func TestConcurrentSavesLastWriteWins(t *testing.T) {
	store := NewStore()
	factory := Factory{Store: store}
	ctx := context.Background()

	seed, _ := factory.Begin(ctx, uow.TxOptions{})
	if err := seed.Listings().Save(ctx, &domainlistings.Listing{ID: "listing-1", Title: "seed"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := seed.Commit(ctx); err != nil {
		t.Fatalf("seed commit: %v", err)
	}

	first, _ := factory.Begin(ctx, uow.TxOptions{})
	second, _ := factory.Begin(ctx, uow.TxOptions{})
	for i, unit := range []uow.UnitOfWork{first, second} {
		listing, err := unit.Listings().ByID(ctx, "listing-1")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		listing.Title = []string{"first", "second"}[i]
		if err := unit.Listings().Save(ctx, listing); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if err := first.Commit(ctx); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := second.Commit(ctx); err != nil {
		t.Fatalf("stale writer must not be rejected: %v", err)
	}

	reader, _ := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	got, err := reader.Listings().ByID(ctx, "listing-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Title != "second" {
		t.Fatalf("expected last write to win, got %q", got.Title)
	}
}
