package memory

import (
	"context"
	"slices"
	"sort"

	domainbooking "quickhost/internal/domain/booking"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	domainreviews "quickhost/internal/domain/reviews"
)

type listingRepo struct{ u *Unit }

func (r listingRepo) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	listing, ok := r.u.view.listings[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return copyListing(listing), nil
}

func (r listingRepo) Save(ctx context.Context, listing *domainlistings.Listing) error {
	listing.Version++
	stored := copyListing(listing)
	return r.u.write(ctx, func(s *state) error {
		s.listings[stored.ID] = stored
		return nil
	})
}

func (r listingRepo) Delete(ctx context.Context, id domainlistings.ListingID) error {
	return r.u.write(ctx, func(s *state) error {
		delete(s.listings, id)
		return nil
	})
}

// List returns listings that satisfy the filter.
func (r listingRepo) List(ctx context.Context, filter domainlistings.ListFilter) ([]*domainlistings.Listing, error) {
	opts := filter.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.u.view.listings))
	for _, listing := range r.u.view.listings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.Matches(listing) {
			matches = append(matches, listing)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch opts.Sort {
		case domainlistings.SortPriceAsc:
			if a.NightlyRate.Amount != b.NightlyRate.Amount {
				return a.NightlyRate.Amount < b.NightlyRate.Amount
			}
		case domainlistings.SortPriceDesc:
			if a.NightlyRate.Amount != b.NightlyRate.Amount {
				return a.NightlyRate.Amount > b.NightlyRate.Amount
			}
		case domainlistings.SortRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	page := paginate(matches, opts.Offset, opts.Limit)
	out := make([]*domainlistings.Listing, 0, len(page))
	for _, l := range page {
		out = append(out, copyListing(l))
	}
	return out, nil
}

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	b, ok := r.u.view.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (r bookingRepo) Save(ctx context.Context, b *domainbooking.Booking) error {
	b.Version++
	stored := copyBooking(b)
	return r.u.write(ctx, func(s *state) error {
		s.bookings[stored.ID] = stored
		return nil
	})
}

func (r bookingRepo) Delete(ctx context.Context, id domainbooking.BookingID) error {
	return r.u.write(ctx, func(s *state) error {
		delete(s.bookings, id)
		return nil
	})
}

func (r bookingRepo) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.collect(func(b *domainbooking.Booking) bool { return b.ListingID == listingID }), nil
}

func (r bookingRepo) collect(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.u.view.bookings {
		if keep(b) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type reviewRepo struct{ u *Unit }

func (r reviewRepo) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	review, ok := r.u.view.reviews[id]
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return copyReview(review), nil
}

func (r reviewRepo) Save(ctx context.Context, review *domainreviews.Review) error {
	stored := copyReview(review)
	return r.u.write(ctx, func(s *state) error {
		s.reviews[stored.ID] = stored
		return nil
	})
}

func (r reviewRepo) Delete(ctx context.Context, id domainreviews.ReviewID) error {
	return r.u.write(ctx, func(s *state) error {
		delete(s.reviews, id)
		return nil
	})
}

func (r reviewRepo) ListByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.u.view.reviews {
		if review.ListingID == listingID {
			matches = append(matches, review)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if limit > 0 {
		matches = paginate(matches, offset, limit)
	}
	out := make([]*domainreviews.Review, 0, len(matches))
	for _, review := range matches {
		out = append(out, copyReview(review))
	}
	return out, nil
}

type favoriteRepo struct{ u *Unit }

func (r favoriteRepo) ByID(ctx context.Context, id domainfavorites.FavoriteID) (*domainfavorites.Favorite, error) {
	f, ok := r.u.view.favorites[id]
	if !ok {
		return nil, domainfavorites.ErrNotFound
	}
	return copyFavorite(f), nil
}

func (r favoriteRepo) ByPair(ctx context.Context, userID string, listingID domainlistings.ListingID) (*domainfavorites.Favorite, error) {
	if f := findPair(r.u.view, userID, listingID); f != nil {
		return copyFavorite(f), nil
	}
	return nil, domainfavorites.ErrNotFound
}

// Insert enforces (user, listing) uniqueness again at commit time.
func (r favoriteRepo) Insert(ctx context.Context, favorite *domainfavorites.Favorite) error {
	stored := copyFavorite(favorite)
	return r.u.write(ctx, func(s *state) error {
		if existing := findPair(s, stored.UserID, stored.ListingID); existing != nil && existing.ID != stored.ID {
			return domainfavorites.ErrDuplicate
		}
		s.favorites[stored.ID] = stored
		return nil
	})
}

func (r favoriteRepo) Delete(ctx context.Context, id domainfavorites.FavoriteID) error {
	return r.u.write(ctx, func(s *state) error {
		delete(s.favorites, id)
		return nil
	})
}

func (r favoriteRepo) DeleteByListing(ctx context.Context, listingID domainlistings.ListingID) error {
	return r.u.write(ctx, func(s *state) error {
		for id, f := range s.favorites {
			if f.ListingID == listingID {
				delete(s.favorites, id)
			}
		}
		return nil
	})
}

func (r favoriteRepo) ListByUser(ctx context.Context, userID string) ([]*domainfavorites.Favorite, error) {
	out := make([]*domainfavorites.Favorite, 0)
	for _, f := range r.u.view.favorites {
		if f.UserID == userID {
			out = append(out, copyFavorite(f))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func findPair(s *state, userID string, listingID domainlistings.ListingID) *domainfavorites.Favorite {
	for _, f := range s.favorites {
		if f.UserID == userID && f.ListingID == listingID {
			return f
		}
	}
	return nil
}

type membershipRepo struct{ u *Unit }

func (r membershipRepo) Add(ctx context.Context, rel domainmembership.Relation, owner, member string) error {
	if !rel.Valid() {
		return domainmembership.ErrUnknown
	}
	return r.u.write(ctx, func(s *state) error {
		owners := s.members[rel]
		if owners == nil {
			owners = make(map[string][]string)
			s.members[rel] = owners
		}
		if !slices.Contains(owners[owner], member) {
			owners[owner] = append(owners[owner], member)
		}
		return nil
	})
}

func (r membershipRepo) Remove(ctx context.Context, rel domainmembership.Relation, owner, member string) error {
	if !rel.Valid() {
		return domainmembership.ErrUnknown
	}
	return r.u.write(ctx, func(s *state) error {
		owners := s.members[rel]
		if owners == nil {
			return nil
		}
		owners[owner] = slices.DeleteFunc(owners[owner], func(m string) bool { return m == member })
		if len(owners[owner]) == 0 {
			delete(owners, owner)
		}
		return nil
	})
}

func (r membershipRepo) Members(ctx context.Context, rel domainmembership.Relation, owner string) ([]string, error) {
	if !rel.Valid() {
		return nil, domainmembership.ErrUnknown
	}
	return slices.Clone(r.u.view.members[rel][owner]), nil
}

func (r membershipRepo) Contains(ctx context.Context, rel domainmembership.Relation, owner, member string) (bool, error) {
	if !rel.Valid() {
		return false, domainmembership.ErrUnknown
	}
	return slices.Contains(r.u.view.members[rel][owner], member), nil
}

func (r membershipRepo) RemoveOwner(ctx context.Context, rel domainmembership.Relation, owner string) error {
	if !rel.Valid() {
		return domainmembership.ErrUnknown
	}
	return r.u.write(ctx, func(s *state) error {
		delete(s.members[rel], owner)
		return nil
	})
}

func (r membershipRepo) RemoveMember(ctx context.Context, rel domainmembership.Relation, member string) error {
	if !rel.Valid() {
		return domainmembership.ErrUnknown
	}
	return r.u.write(ctx, func(s *state) error {
		for owner, members := range s.members[rel] {
			kept := slices.DeleteFunc(members, func(m string) bool { return m == member })
			if len(kept) == 0 {
				delete(s.members[rel], owner)
				continue
			}
			s.members[rel][owner] = kept
		}
		return nil
	})
}

func paginate[T any](items []T, offset, limit int) []T {
	total := len(items)
	start := min(max(offset, 0), total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	return items[start:end]
}
