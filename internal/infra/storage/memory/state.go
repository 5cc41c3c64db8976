package memory

import (
	"slices"

	domainbooking "quickhost/internal/domain/booking"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	domainreviews "quickhost/internal/domain/reviews"
	"quickhost/internal/domain/shared/events"
)

// state is one consistent snapshot of every collection.
type state struct {
	listings  map[domainlistings.ListingID]*domainlistings.Listing
	bookings  map[domainbooking.BookingID]*domainbooking.Booking
	reviews   map[domainreviews.ReviewID]*domainreviews.Review
	favorites map[domainfavorites.FavoriteID]*domainfavorites.Favorite
	members   map[domainmembership.Relation]map[string][]string
}

func newState() *state {
	return &state{
		listings:  make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings:  make(map[domainbooking.BookingID]*domainbooking.Booking),
		reviews:   make(map[domainreviews.ReviewID]*domainreviews.Review),
		favorites: make(map[domainfavorites.FavoriteID]*domainfavorites.Favorite),
		members:   make(map[domainmembership.Relation]map[string][]string),
	}
}

// clone copies the maps and join slices. Entities are immutable once stored
// (every write stores a fresh copy), so they are shared.
func (s *state) clone() *state {
	out := newState()
	for k, v := range s.listings {
		out.listings[k] = v
	}
	for k, v := range s.bookings {
		out.bookings[k] = v
	}
	for k, v := range s.reviews {
		out.reviews[k] = v
	}
	for k, v := range s.favorites {
		out.favorites[k] = v
	}
	for rel, owners := range s.members {
		copied := make(map[string][]string, len(owners))
		for owner, members := range owners {
			copied[owner] = slices.Clone(members)
		}
		out.members[rel] = copied
	}
	return out
}

func copyListing(l *domainlistings.Listing) *domainlistings.Listing {
	c := *l
	c.Images = slices.Clone(l.Images)
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func copyBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func copyReview(r *domainreviews.Review) *domainreviews.Review {
	c := *r
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func copyFavorite(f *domainfavorites.Favorite) *domainfavorites.Favorite {
	c := *f
	c.EventRecorder = events.EventRecorder{}
	return &c
}
