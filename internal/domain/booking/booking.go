package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"quickhost/internal/domain/listings"
	"quickhost/internal/domain/pricing"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/daterange"
	"quickhost/internal/domain/shared/events"
	"quickhost/internal/domain/shared/money"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrUserRequired    = errors.New("booking: user id required")
	ErrListingRequired = errors.New("booking: listing id required")
)

type BookingID string

// Booking stores the computed total; the caller's nightly rate is kept only as
// the input the total was derived from.
type Booking struct {
	ID          BookingID
	ListingID   listings.ListingID
	UserID      string
	Range       daterange.DateRange
	NightlyRate money.Money
	Nights      int
	Multiplier  string
	Total       money.Money
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id BookingID) error
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
}

type CreateParams struct {
	ID          BookingID
	ListingID   listings.ListingID
	UserID      string
	CheckIn     time.Time
	CheckOut    time.Time
	NightlyRate money.Money
	CreatedAt   time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, apperr.Field("user", ErrUserRequired)
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, apperr.Field("accommodation", ErrListingRequired)
	}
	dr, quote, err := quoteStay(params.CheckIn, params.CheckOut, params.NightlyRate)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		UserID:    params.UserID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.applyQuote(dr, quote)
	b.Record(BookingCreated{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, Range: b.Range, Total: b.Total, At: now})
	return b, nil
}

// Update is a partial booking payload; nil fields retain prior values.
type Update struct {
	ListingID   *listings.ListingID
	UserID      *string
	CheckIn     *time.Time
	CheckOut    *time.Time
	NightlyRate *money.Money
	Active      *bool
}

// Reassignment reports which membership sides changed during Apply.
type Reassignment struct {
	FromListing listings.ListingID
	ToListing   listings.ListingID
	FromUser    string
	ToUser      string
}

func (r Reassignment) ListingChanged() bool { return r.FromListing != r.ToListing }
func (r Reassignment) UserChanged() bool    { return r.FromUser != r.ToUser }

// Apply merges the update and recomputes the total from the merged stay.
func (b *Booking) Apply(update Update, now time.Time) (Reassignment, error) {
	moved := Reassignment{FromListing: b.ListingID, ToListing: b.ListingID, FromUser: b.UserID, ToUser: b.UserID}
	if update.ListingID != nil {
		if strings.TrimSpace(string(*update.ListingID)) == "" {
			return Reassignment{}, apperr.Field("accommodation", ErrListingRequired)
		}
		moved.ToListing = *update.ListingID
	}
	if update.UserID != nil {
		if strings.TrimSpace(*update.UserID) == "" {
			return Reassignment{}, apperr.Field("user", ErrUserRequired)
		}
		moved.ToUser = *update.UserID
	}
	checkIn, checkOut, rate := b.Range.CheckIn, b.Range.CheckOut, b.NightlyRate
	if update.CheckIn != nil {
		checkIn = *update.CheckIn
	}
	if update.CheckOut != nil {
		checkOut = *update.CheckOut
	}
	if update.NightlyRate != nil {
		rate = *update.NightlyRate
	}
	dr, quote, err := quoteStay(checkIn, checkOut, rate)
	if err != nil {
		return Reassignment{}, err
	}
	b.ListingID = moved.ToListing
	b.UserID = moved.ToUser
	b.applyQuote(dr, quote)
	if update.Active != nil {
		b.Active = *update.Active
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingUpdated{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	return moved, nil
}

func (b *Booking) MarkDeleted(now time.Time) {
	b.Record(BookingDeleted{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, At: now.UTC()})
}

func (b *Booking) BelongsTo(userID string) bool {
	return userID != "" && b.UserID == userID
}

func (b *Booking) applyQuote(dr daterange.DateRange, quote pricing.BookingQuote) {
	b.Range = dr
	b.NightlyRate = quote.Nightly
	b.Nights = quote.Nights
	b.Multiplier = quote.Multiplier.FloatString(2)
	b.Total = quote.Total
}

func quoteStay(checkIn, checkOut time.Time, rate money.Money) (daterange.DateRange, pricing.BookingQuote, error) {
	var errs apperr.Collector
	if err := pricing.ValidateNightlyRate(rate); err != nil {
		errs.Add("price", err)
	}
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		errs.Add("check_out_date", err)
	}
	if err := errs.Err(); err != nil {
		return daterange.DateRange{}, pricing.BookingQuote{}, err
	}
	if rate.Currency == "" {
		rate.Currency = money.DefaultCurrency
	}
	quote, err := pricing.ComputeBookingTotal(rate, dr.CheckIn, dr.CheckOut)
	if errors.Is(err, money.ErrOverflow) {
		return daterange.DateRange{}, pricing.BookingQuote{}, apperr.Field("price", err)
	}
	if err != nil {
		return daterange.DateRange{}, pricing.BookingQuote{}, apperr.Field("check_out_date", err)
	}
	return dr, quote, nil
}
