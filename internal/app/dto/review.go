package dto

import (
	"fmt"
	"time"

	domainreviews "quickhost/internal/domain/reviews"
)

// Review represents a public review payload.
type Review struct {
	ID        string    `json:"id"`
	ListingID string    `json:"accommodation"`
	AuthorID  string    `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReviewCollection struct {
	Items  []Review `json:"items"`
	Rating string   `json:"rating"`
	Total  int      `json:"total"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:        string(review.ID),
		ListingID: string(review.ListingID),
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

// FormatRating renders a stored average with two decimals.
func FormatRating(avg float64) string {
	return fmt.Sprintf("%.2f", avg)
}
