package reviews

import (
	"time"

	"quickhost/internal/domain/listings"
)

type ReviewSubmitted struct {
	ReviewID  ReviewID
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	At        time.Time
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

type ReviewUpdated struct {
	ReviewID  ReviewID
	ListingID listings.ListingID
	Rating    int
	At        time.Time
}

func (e ReviewUpdated) EventName() string     { return "review.updated" }
func (e ReviewUpdated) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewUpdated) OccurredAt() time.Time { return e.At }

type ReviewDeleted struct {
	ReviewID  ReviewID
	ListingID listings.ListingID
	At        time.Time
}

func (e ReviewDeleted) EventName() string     { return "review.deleted" }
func (e ReviewDeleted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewDeleted) OccurredAt() time.Time { return e.At }
