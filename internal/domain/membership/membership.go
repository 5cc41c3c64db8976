// Package membership keeps the redundant many-to-many registrations between
// users, listings and bookings. Each relation is an independent join collection;
// the helpers below mutate both sides of a booking together.
package membership

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInconsistent = errors.New("membership: booking registered on one side only")
	ErrUnknown      = errors.New("membership: unknown relation")
)

type Relation string

const (
	UserListings    Relation = "user_listings"
	UserBookings    Relation = "user_bookings"
	ListingBookings Relation = "listing_bookings"
)

func (r Relation) Valid() bool {
	switch r {
	case UserListings, UserBookings, ListingBookings:
		return true
	}
	return false
}

// Repository stores (owner, member) pairs per relation. Add is idempotent.
type Repository interface {
	Add(ctx context.Context, rel Relation, owner, member string) error
	Remove(ctx context.Context, rel Relation, owner, member string) error
	Members(ctx context.Context, rel Relation, owner string) ([]string, error)
	Contains(ctx context.Context, rel Relation, owner, member string) (bool, error)
	RemoveOwner(ctx context.Context, rel Relation, owner string) error
	RemoveMember(ctx context.Context, rel Relation, member string) error
}

// LinkListing registers a listing in its owner's collection.
func LinkListing(ctx context.Context, repo Repository, ownerID, listingID string) error {
	return repo.Add(ctx, UserListings, ownerID, listingID)
}

// UnlinkListing drops the listing from every user and its bookings index.
func UnlinkListing(ctx context.Context, repo Repository, listingID string) error {
	if err := repo.RemoveMember(ctx, UserListings, listingID); err != nil {
		return err
	}
	return repo.RemoveOwner(ctx, ListingBookings, listingID)
}

// LinkBooking registers the booking on both the user and the listing side.
func LinkBooking(ctx context.Context, repo Repository, userID, listingID, bookingID string) error {
	if err := repo.Add(ctx, UserBookings, userID, bookingID); err != nil {
		return fmt.Errorf("link user booking: %w", err)
	}
	if err := repo.Add(ctx, ListingBookings, listingID, bookingID); err != nil {
		return fmt.Errorf("link listing booking: %w", err)
	}
	return nil
}

// UnlinkBooking removes the booking from both sides.
func UnlinkBooking(ctx context.Context, repo Repository, userID, listingID, bookingID string) error {
	if err := repo.Remove(ctx, UserBookings, userID, bookingID); err != nil {
		return fmt.Errorf("unlink user booking: %w", err)
	}
	if err := repo.Remove(ctx, ListingBookings, listingID, bookingID); err != nil {
		return fmt.Errorf("unlink listing booking: %w", err)
	}
	return nil
}

// Move describes a booking reassignment. Unchanged sides are left alone.
type Move struct {
	BookingID   string
	FromUser    string
	ToUser      string
	FromListing string
	ToListing   string
}

// MoveBooking removes membership from the old side(s) and adds it to the new ones.
func MoveBooking(ctx context.Context, repo Repository, move Move) error {
	if move.FromUser != move.ToUser {
		if err := repo.Remove(ctx, UserBookings, move.FromUser, move.BookingID); err != nil {
			return err
		}
		if err := repo.Add(ctx, UserBookings, move.ToUser, move.BookingID); err != nil {
			return err
		}
	}
	if move.FromListing != move.ToListing {
		if err := repo.Remove(ctx, ListingBookings, move.FromListing, move.BookingID); err != nil {
			return err
		}
		if err := repo.Add(ctx, ListingBookings, move.ToListing, move.BookingID); err != nil {
			return err
		}
	}
	return nil
}

// CheckBooking verifies that the booking is registered on both sides.
func CheckBooking(ctx context.Context, repo Repository, userID, listingID, bookingID string) error {
	onUser, err := repo.Contains(ctx, UserBookings, userID, bookingID)
	if err != nil {
		return err
	}
	onListing, err := repo.Contains(ctx, ListingBookings, listingID, bookingID)
	if err != nil {
		return err
	}
	if !onUser || !onListing {
		return fmt.Errorf("%w: booking %s (user=%t listing=%t)", ErrInconsistent, bookingID, onUser, onListing)
	}
	return nil
}
