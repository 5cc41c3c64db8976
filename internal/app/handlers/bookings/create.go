package bookings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/middleware"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainbooking "quickhost/internal/domain/booking"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/daterange"
	"quickhost/internal/domain/shared/money"
)

const (
	createBookingKey = "bookings.create"
	updateBookingKey = "bookings.update"
	deleteBookingKey = "bookings.delete"
)

var ErrListingInactive = errors.New("bookings: listing is not accepting bookings")

// CreateBookingCommand books a listing. Dates are calendar dates in
// YYYY-MM-DD form; NightlyRate is the per-night price the total is derived from.
type CreateBookingCommand struct {
	UserID          string
	ListingID       string
	CheckIn         string
	CheckOut        string
	NightlyRate     money.Money
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string    { return createBookingKey }
func (c CreateBookingCommand) Caller() string { return c.UserID }

// IdempotencyKey is scoped to the caller so two users never share a replay.
func (c CreateBookingCommand) IdempotencyKey() string {
	if strings.TrimSpace(c.IdempotencyKeyV) == "" {
		return ""
	}
	return createBookingKey + ":" + c.UserID + ":" + c.IdempotencyKeyV
}

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	now := support.Now(h.Now)
	checkIn, checkOut, err := parseStay(cmd.CheckIn, cmd.CheckOut, now)
	if err != nil {
		return nil, err
	}

	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, support.NotFound(err, domainlistings.ErrNotFound, "listing", cmd.ListingID)
	}
	if !listing.Active {
		return nil, apperr.Field("accommodation", ErrListingInactive)
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(h.newID()),
		ListingID:   listing.ID,
		UserID:      cmd.UserID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		NightlyRate: cmd.NightlyRate,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := domainmembership.LinkBooking(ctx, unit.Memberships(), booking.UserID, string(booking.ListingID), string(booking.ID)); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if err := managed.Commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking created", "booking_id", booking.ID, "listing_id", booking.ListingID, "user_id", booking.UserID, "nights", booking.Nights, "total", booking.Total.String())
	}
	result := dto.MapBooking(booking)
	return &result, nil
}

func (h *CreateBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

// parseStay validates check-in against today and check-out against check-in,
// reporting both fields at once.
func parseStay(rawIn, rawOut string, today time.Time) (time.Time, time.Time, error) {
	var errs apperr.Collector
	checkIn, err := daterange.ValidateCheckIn(rawIn, today)
	errs.Add("check_in_date", err)
	var checkOut time.Time
	if err == nil {
		checkOut, err = daterange.ValidateCheckOut(rawOut, checkIn)
	} else {
		checkOut, err = daterange.Resolve(rawOut)
	}
	errs.Add("check_out_date", err)
	if err := errs.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
