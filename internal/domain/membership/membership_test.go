package membership

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type pairKey struct {
	rel   Relation
	owner string
}

type fakeRepo struct {
	pairs map[pairKey][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{pairs: make(map[pairKey][]string)}
}

func (f *fakeRepo) Add(_ context.Context, rel Relation, owner, member string) error {
	k := pairKey{rel, owner}
	if !slices.Contains(f.pairs[k], member) {
		f.pairs[k] = append(f.pairs[k], member)
	}
	return nil
}

func (f *fakeRepo) Remove(_ context.Context, rel Relation, owner, member string) error {
	k := pairKey{rel, owner}
	f.pairs[k] = slices.DeleteFunc(f.pairs[k], func(m string) bool { return m == member })
	return nil
}

func (f *fakeRepo) Members(_ context.Context, rel Relation, owner string) ([]string, error) {
	return slices.Clone(f.pairs[pairKey{rel, owner}]), nil
}

func (f *fakeRepo) Contains(_ context.Context, rel Relation, owner, member string) (bool, error) {
	return slices.Contains(f.pairs[pairKey{rel, owner}], member), nil
}

func (f *fakeRepo) RemoveOwner(_ context.Context, rel Relation, owner string) error {
	delete(f.pairs, pairKey{rel, owner})
	return nil
}

func (f *fakeRepo) RemoveMember(ctx context.Context, rel Relation, member string) error {
	for k := range f.pairs {
		if k.rel == rel {
			_ = f.Remove(ctx, rel, k.owner, member)
		}
	}
	return nil
}

func TestLinkAndUnlinkBooking(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	if err := LinkBooking(ctx, repo, "u1", "l1", "b1"); err != nil {
		t.Fatalf("LinkBooking: %v", err)
	}
	if err := CheckBooking(ctx, repo, "u1", "l1", "b1"); err != nil {
		t.Fatalf("CheckBooking: %v", err)
	}
	if err := UnlinkBooking(ctx, repo, "u1", "l1", "b1"); err != nil {
		t.Fatalf("UnlinkBooking: %v", err)
	}
	if err := CheckBooking(ctx, repo, "u1", "l1", "b1"); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("expected ErrInconsistent after unlink, got %v", err)
	}
}

func TestMoveBooking(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	_ = LinkBooking(ctx, repo, "u1", "l1", "b1")
	err := MoveBooking(ctx, repo, Move{BookingID: "b1", FromUser: "u1", ToUser: "u1", FromListing: "l1", ToListing: "l2"})
	if err != nil {
		t.Fatalf("MoveBooking: %v", err)
	}
	if ok, _ := repo.Contains(ctx, ListingBookings, "l1", "b1"); ok {
		t.Fatal("booking still on old listing")
	}
	if err := CheckBooking(ctx, repo, "u1", "l2", "b1"); err != nil {
		t.Fatalf("CheckBooking after move: %v", err)
	}
}

func TestCheckBookingDetectsOneSided(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	_ = repo.Add(ctx, UserBookings, "u1", "b1")
	if err := CheckBooking(ctx, repo, "u1", "l1", "b1"); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("expected ErrInconsistent, got %v", err)
	}
}

func TestUnlinkListing(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	_ = LinkListing(ctx, repo, "owner", "l1")
	_ = LinkBooking(ctx, repo, "u1", "l1", "b1")
	if err := UnlinkListing(ctx, repo, "l1"); err != nil {
		t.Fatalf("UnlinkListing: %v", err)
	}
	if members, _ := repo.Members(ctx, UserListings, "owner"); len(members) != 0 {
		t.Fatalf("listing still registered: %v", members)
	}
	if members, _ := repo.Members(ctx, ListingBookings, "l1"); len(members) != 0 {
		t.Fatalf("listing bookings not cleared: %v", members)
	}
}
