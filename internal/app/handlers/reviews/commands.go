package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainlistings "quickhost/internal/domain/listings"
	domainreviews "quickhost/internal/domain/reviews"
	"quickhost/internal/domain/shared/apperr"
)

const (
	createReviewKey = "reviews.create"
	updateReviewKey = "reviews.update"
	deleteReviewKey = "reviews.delete"
)

// CreateReviewCommand rates a listing on behalf of AuthorID.
type CreateReviewCommand struct {
	AuthorID  string
	ListingID string
	Rating    int
	Comment   string
}

func (c CreateReviewCommand) Key() string    { return createReviewKey }
func (c CreateReviewCommand) Caller() string { return c.AuthorID }

type CreateReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

func (h *CreateReviewHandler) Handle(ctx context.Context, cmd CreateReviewCommand) (dto.Review, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit
	now := support.Now(h.Now)

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:        domainreviews.ReviewID(h.newID()),
		ListingID: domainlistings.ListingID(cmd.ListingID),
		AuthorID:  cmd.AuthorID,
		Rating:    cmd.Rating,
		Comment:   cmd.Comment,
		CreatedAt: now,
	})
	if err != nil {
		return dto.Review{}, err
	}
	if _, err := unit.Listings().ByID(ctx, review.ListingID); err != nil {
		return dto.Review{}, support.NotFound(err, domainlistings.ErrNotFound, "listing", cmd.ListingID)
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.Review{}, err
	}
	average, err := RecomputeRating(ctx, unit, h.Outbox, h.Encoder, review.ListingID, now)
	if err != nil {
		return dto.Review{}, err
	}
	if err := managed.Commit(); err != nil {
		return dto.Review{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("review created", "review_id", review.ID, "listing_id", review.ListingID, "user_id", cmd.AuthorID, "rating", review.Rating, "average", average)
	}
	return dto.MapReview(review), nil
}

func (h *CreateReviewHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

// UpdateReviewCommand is a partial update. Moving a review to another
// listing recomputes both listings.
type UpdateReviewCommand struct {
	CallerID  string
	ReviewID  string
	ListingID *string
	Rating    *int
	Comment   *string
}

func (c UpdateReviewCommand) Key() string    { return updateReviewKey }
func (c UpdateReviewCommand) Caller() string { return c.CallerID }

type UpdateReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *UpdateReviewHandler) Handle(ctx context.Context, cmd UpdateReviewCommand) (dto.Review, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit
	now := support.Now(h.Now)

	review, err := loadOwned(ctx, unit, cmd.ReviewID, cmd.CallerID)
	if err != nil {
		return dto.Review{}, err
	}
	update := domainreviews.Update{Rating: cmd.Rating, Comment: cmd.Comment}
	if cmd.ListingID != nil {
		id := domainlistings.ListingID(*cmd.ListingID)
		update.ListingID = &id
	}
	previous, err := review.Apply(update, now)
	if err != nil {
		return dto.Review{}, err
	}
	if review.ListingID != previous {
		if _, err := unit.Listings().ByID(ctx, review.ListingID); err != nil {
			return dto.Review{}, support.NotFound(err, domainlistings.ErrNotFound, "listing", string(review.ListingID))
		}
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.Review{}, err
	}
	if review.ListingID != previous {
		if _, err := RecomputeRating(ctx, unit, h.Outbox, h.Encoder, previous, now); err != nil {
			return dto.Review{}, err
		}
	}
	average, err := RecomputeRating(ctx, unit, h.Outbox, h.Encoder, review.ListingID, now)
	if err != nil {
		return dto.Review{}, err
	}
	if err := managed.Commit(); err != nil {
		return dto.Review{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("review updated", "review_id", review.ID, "listing_id", review.ListingID, "previous_listing_id", previous, "user_id", cmd.CallerID, "average", average)
	}
	return dto.MapReview(review), nil
}

type DeleteReviewCommand struct {
	CallerID string
	ReviewID string
}

func (c DeleteReviewCommand) Key() string    { return deleteReviewKey }
func (c DeleteReviewCommand) Caller() string { return c.CallerID }

type DeleteReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle removes the review and recomputes the listing it belonged to.
func (h *DeleteReviewHandler) Handle(ctx context.Context, cmd DeleteReviewCommand) (struct{}, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit
	now := support.Now(h.Now)

	review, err := loadOwned(ctx, unit, cmd.ReviewID, cmd.CallerID)
	if err != nil {
		return struct{}{}, err
	}
	if err := unit.Reviews().Delete(ctx, review.ID); err != nil {
		return struct{}{}, err
	}
	review.MarkDeleted(now)
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, review); err != nil {
		return struct{}{}, err
	}
	average, err := RecomputeRating(ctx, unit, h.Outbox, h.Encoder, review.ListingID, now)
	if err != nil {
		return struct{}{}, err
	}
	if err := managed.Commit(); err != nil {
		return struct{}{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("review deleted", "review_id", review.ID, "listing_id", review.ListingID, "user_id", cmd.CallerID, "average", average)
	}
	return struct{}{}, nil
}

func loadOwned(ctx context.Context, unit uow.UnitOfWork, reviewID, callerID string) (*domainreviews.Review, error) {
	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(reviewID))
	if err != nil {
		return nil, support.NotFound(err, domainreviews.ErrNotFound, "review", reviewID)
	}
	if !review.WrittenBy(callerID) {
		return nil, apperr.Permission("review %s was written by another user", reviewID)
	}
	return review, nil
}

var _ commands.Handler[CreateReviewCommand, dto.Review] = (*CreateReviewHandler)(nil)
var _ commands.Handler[UpdateReviewCommand, dto.Review] = (*UpdateReviewHandler)(nil)
var _ commands.Handler[DeleteReviewCommand, struct{}] = (*DeleteReviewHandler)(nil)
