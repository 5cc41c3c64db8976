package reviews

import (
	"context"
	"time"

	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainlistings "quickhost/internal/domain/listings"
	domainreviews "quickhost/internal/domain/reviews"
)

// RecomputeRating rereads the full review set of a listing inside unit and
// stores the new average on it. It must run in the same unit as the review
// write so both commit together.
func RecomputeRating(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, encoder outbox.EventEncoder, listingID domainlistings.ListingID, now time.Time) (float64, error) {
	listing, err := unit.Listings().ByID(ctx, listingID)
	if err != nil {
		return 0, support.NotFound(err, domainlistings.ErrNotFound, "listing", string(listingID))
	}
	items, err := unit.Reviews().ListByListing(ctx, listingID, 0, 0)
	if err != nil {
		return 0, err
	}
	average := domainreviews.Average(domainreviews.Ratings(items))
	if err := listing.SetRating(average, now); err != nil {
		return 0, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return 0, err
	}
	if err := outbox.Drain(ctx, box, encoder, listing); err != nil {
		return 0, err
	}
	return average, nil
}
