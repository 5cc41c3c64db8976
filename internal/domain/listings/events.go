package listings

import (
	"time"
)

type ListingCreated struct {
	ListingID ListingID
	OwnerID   OwnerID
	At        time.Time
}

func (e ListingCreated) EventName() string     { return "listing.created" }
func (e ListingCreated) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreated) OccurredAt() time.Time { return e.At }

type ListingUpdated struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingUpdated) EventName() string     { return "listing.updated" }
func (e ListingUpdated) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdated) OccurredAt() time.Time { return e.At }

type ListingActivated struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingActivated) EventName() string     { return "listing.activated" }
func (e ListingActivated) AggregateID() string   { return string(e.ListingID) }
func (e ListingActivated) OccurredAt() time.Time { return e.At }

type ListingDeactivated struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingDeactivated) EventName() string     { return "listing.deactivated" }
func (e ListingDeactivated) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeactivated) OccurredAt() time.Time { return e.At }

type ListingRated struct {
	ListingID ListingID
	Rating    float64
	At        time.Time
}

func (e ListingRated) EventName() string     { return "listing.rated" }
func (e ListingRated) AggregateID() string   { return string(e.ListingID) }
func (e ListingRated) OccurredAt() time.Time { return e.At }

type ListingDeleted struct {
	ListingID ListingID
	OwnerID   OwnerID
	At        time.Time
}

func (e ListingDeleted) EventName() string     { return "listing.deleted" }
func (e ListingDeleted) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeleted) OccurredAt() time.Time { return e.At }
