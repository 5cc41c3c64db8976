package booking

import (
	"time"

	"quickhost/internal/domain/listings"
	"quickhost/internal/domain/shared/daterange"
	"quickhost/internal/domain/shared/money"
)

type BookingCreated struct {
	BookingID BookingID
	ListingID listings.ListingID
	UserID    string
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingUpdated struct {
	BookingID BookingID
	ListingID listings.ListingID
	UserID    string
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingUpdated) EventName() string     { return "booking.updated" }
func (e BookingUpdated) AggregateID() string   { return string(e.BookingID) }
func (e BookingUpdated) OccurredAt() time.Time { return e.At }

type BookingDeleted struct {
	BookingID BookingID
	ListingID listings.ListingID
	UserID    string
	At        time.Time
}

func (e BookingDeleted) EventName() string     { return "booking.deleted" }
func (e BookingDeleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeleted) OccurredAt() time.Time { return e.At }
