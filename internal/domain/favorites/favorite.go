package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"quickhost/internal/domain/listings"
	"quickhost/internal/domain/shared/events"
)

var (
	ErrDuplicate       = errors.New("favorites: listing already in favorites")
	ErrNotFound        = errors.New("favorites: not found")
	ErrUserRequired    = errors.New("favorites: user is required")
	ErrListingRequired = errors.New("favorites: listing is required")
)

type FavoriteID string

// Favorite marks a listing bookmarked by a user. (UserID, ListingID) is unique.
type Favorite struct {
	ID        FavoriteID
	UserID    string
	ListingID listings.ListingID
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id FavoriteID) (*Favorite, error)
	ByPair(ctx context.Context, userID string, listingID listings.ListingID) (*Favorite, error)
	// Insert returns ErrDuplicate when the pair already exists.
	Insert(ctx context.Context, favorite *Favorite) error
	Delete(ctx context.Context, id FavoriteID) error
	DeleteByListing(ctx context.Context, listingID listings.ListingID) error
	ListByUser(ctx context.Context, userID string) ([]*Favorite, error)
}

func New(id FavoriteID, userID string, listingID listings.ListingID, now time.Time) (*Favorite, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	if strings.TrimSpace(string(listingID)) == "" {
		return nil, ErrListingRequired
	}
	f := &Favorite{ID: id, UserID: userID, ListingID: listingID, CreatedAt: now.UTC()}
	f.Record(FavoriteAdded{FavoriteID: f.ID, UserID: userID, ListingID: listingID, At: f.CreatedAt})
	return f, nil
}

func (f *Favorite) MarkRemoved(now time.Time) {
	f.Record(FavoriteRemoved{FavoriteID: f.ID, UserID: f.UserID, ListingID: f.ListingID, At: now.UTC()})
}

type FavoriteAdded struct {
	FavoriteID FavoriteID
	UserID     string
	ListingID  listings.ListingID
	At         time.Time
}

func (e FavoriteAdded) EventName() string     { return "favorite.added" }
func (e FavoriteAdded) AggregateID() string   { return string(e.FavoriteID) }
func (e FavoriteAdded) OccurredAt() time.Time { return e.At }

type FavoriteRemoved struct {
	FavoriteID FavoriteID
	UserID     string
	ListingID  listings.ListingID
	At         time.Time
}

func (e FavoriteRemoved) EventName() string     { return "favorite.removed" }
func (e FavoriteRemoved) AggregateID() string   { return string(e.FavoriteID) }
func (e FavoriteRemoved) OccurredAt() time.Time { return e.At }
