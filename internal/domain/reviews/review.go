package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"quickhost/internal/domain/listings"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/events"
)

var (
	ErrInvalidRating   = errors.New("reviews: rating must be between 1 and 5")
	ErrNotFound        = errors.New("reviews: not found")
	ErrCommentRequired = errors.New("reviews: comment is required")
	ErrCommentTooShort = fmt.Errorf("reviews: comment must have more than %d characters", MinCommentLength)
	ErrCommentTooLong  = fmt.Errorf("reviews: comment must have fewer than %d characters", MaxCommentLength)
)

// Comment length bounds are exclusive on both ends.
const (
	MinCommentLength = 100
	MaxCommentLength = 500
)

type ReviewID string

type Review struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id ReviewID) error
	// ListByListing returns reviews newest first; limit <= 0 returns all of them.
	ListByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*Review, error)
}

type SubmitParams struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	var errs apperr.Collector
	if strings.TrimSpace(params.AuthorID) == "" {
		errs.Addf("user", "reviews: author is required")
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		errs.Addf("accommodation", "reviews: listing is required")
	}
	errs.Add("rating", ValidateRating(params.Rating))
	comment, err := NormalizeComment(params.Comment)
	errs.Add("comment", err)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	review := &Review{
		ID:        params.ID,
		ListingID: params.ListingID,
		AuthorID:  params.AuthorID,
		Rating:    params.Rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, ListingID: review.ListingID, AuthorID: review.AuthorID, Rating: review.Rating, At: now})
	return review, nil
}

// Update is a partial review payload.
type Update struct {
	ListingID *listings.ListingID
	Rating    *int
	Comment   *string
}

// Apply merges the update and returns the listing the review belonged to before.
func (r *Review) Apply(update Update, now time.Time) (listings.ListingID, error) {
	previous := r.ListingID
	var errs apperr.Collector
	if update.ListingID != nil && strings.TrimSpace(string(*update.ListingID)) == "" {
		errs.Addf("accommodation", "reviews: listing is required")
	}
	if update.Rating != nil {
		errs.Add("rating", ValidateRating(*update.Rating))
	}
	var comment string
	if update.Comment != nil {
		var err error
		comment, err = NormalizeComment(*update.Comment)
		errs.Add("comment", err)
	}
	if err := errs.Err(); err != nil {
		return previous, err
	}
	if update.ListingID != nil {
		r.ListingID = *update.ListingID
	}
	if update.Rating != nil {
		r.Rating = *update.Rating
	}
	if update.Comment != nil {
		r.Comment = comment
	}
	r.UpdatedAt = now.UTC()
	r.Record(ReviewUpdated{ReviewID: r.ID, ListingID: r.ListingID, Rating: r.Rating, At: r.UpdatedAt})
	return previous, nil
}

func (r *Review) MarkDeleted(now time.Time) {
	r.Record(ReviewDeleted{ReviewID: r.ID, ListingID: r.ListingID, At: now.UTC()})
}

func (r *Review) WrittenBy(userID string) bool {
	return userID != "" && r.AuthorID == userID
}

func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// NormalizeComment enforces the exclusive length bounds on the comment as
// sent, surrounding whitespace included, and returns it trimmed.
func NormalizeComment(comment string) (string, error) {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" {
		return "", ErrCommentRequired
	}
	n := utf8.RuneCountInString(comment)
	switch {
	case n <= MinCommentLength:
		return "", ErrCommentTooShort
	case n >= MaxCommentLength:
		return "", ErrCommentTooLong
	}
	return trimmed, nil
}
