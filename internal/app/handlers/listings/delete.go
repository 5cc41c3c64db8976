package listings

import (
	"context"
	"log/slog"
	"time"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/images"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainmembership "quickhost/internal/domain/membership"
)

type DeleteListingCommand struct {
	CallerID  string
	ListingID string
}

func (c DeleteListingCommand) Key() string    { return deleteListingKey }
func (c DeleteListingCommand) Caller() string { return c.CallerID }

// DeleteListingResult summarizes the cascade.
type DeleteListingResult struct {
	ListingID       string `json:"id"`
	ImagesRemoved   int    `json:"images_removed"`
	BookingsRemoved int    `json:"bookings_removed"`
	ReviewsRemoved  int    `json:"reviews_removed"`
}

type DeleteListingHandler struct {
	UoWFactory uow.UoWFactory
	Images     *images.Manager
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle removes the listing images from the blob store first; a storage
// failure aborts before any record is touched. The record delete then cascades
// over bookings, reviews, favorites and memberships.
func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (DeleteListingResult, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return DeleteListingResult{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit
	now := support.Now(h.Now)

	listing, err := loadOwned(ctx, unit, cmd.ListingID, cmd.CallerID)
	if err != nil {
		return DeleteListingResult{}, err
	}
	if err := managerOrEmpty(h.Images).Purge(ctx, string(listing.ID), listing.Images); err != nil {
		return DeleteListingResult{}, err
	}
	result := DeleteListingResult{ListingID: string(listing.ID), ImagesRemoved: len(listing.Images)}

	bookings, err := unit.Bookings().ListByListing(ctx, listing.ID)
	if err != nil {
		return DeleteListingResult{}, err
	}
	for _, b := range bookings {
		if err := domainmembership.UnlinkBooking(ctx, unit.Memberships(), b.UserID, string(b.ListingID), string(b.ID)); err != nil {
			return DeleteListingResult{}, err
		}
		if err := unit.Bookings().Delete(ctx, b.ID); err != nil {
			return DeleteListingResult{}, err
		}
		b.MarkDeleted(now)
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, b); err != nil {
			return DeleteListingResult{}, err
		}
	}
	result.BookingsRemoved = len(bookings)

	reviews, err := unit.Reviews().ListByListing(ctx, listing.ID, 0, 0)
	if err != nil {
		return DeleteListingResult{}, err
	}
	for _, r := range reviews {
		if err := unit.Reviews().Delete(ctx, r.ID); err != nil {
			return DeleteListingResult{}, err
		}
		r.MarkDeleted(now)
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, r); err != nil {
			return DeleteListingResult{}, err
		}
	}
	result.ReviewsRemoved = len(reviews)

	if err := unit.Favorites().DeleteByListing(ctx, listing.ID); err != nil {
		return DeleteListingResult{}, err
	}
	if err := domainmembership.UnlinkListing(ctx, unit.Memberships(), string(listing.ID)); err != nil {
		return DeleteListingResult{}, err
	}
	if err := unit.Listings().Delete(ctx, listing.ID); err != nil {
		return DeleteListingResult{}, err
	}
	listing.MarkDeleted(now)
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return DeleteListingResult{}, err
	}
	if err := managed.Commit(); err != nil {
		return DeleteListingResult{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing deleted", "listing_id", listing.ID, "user_id", cmd.CallerID,
			"images", result.ImagesRemoved, "bookings", result.BookingsRemoved, "reviews", result.ReviewsRemoved)
	}
	return result, nil
}

var _ commands.Handler[DeleteListingCommand, DeleteListingResult] = (*DeleteListingHandler)(nil)
