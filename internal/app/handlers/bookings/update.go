package bookings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainbooking "quickhost/internal/domain/booking"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/daterange"
	"quickhost/internal/domain/shared/money"
)

// UpdateBookingCommand is a partial update; nil fields keep their stored values.
type UpdateBookingCommand struct {
	CallerID    string
	BookingID   string
	ListingID   *string
	UserID      *string
	CheckIn     *string
	CheckOut    *string
	NightlyRate *money.Money
	Active      *bool
}

func (c UpdateBookingCommand) Key() string    { return updateBookingKey }
func (c UpdateBookingCommand) Caller() string { return c.CallerID }

type UpdateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle merges the update, recomputes the total and moves the membership of
// whichever side was reassigned.
func (h *UpdateBookingHandler) Handle(ctx context.Context, cmd UpdateBookingCommand) (dto.Booking, error) {
	now := support.Now(h.Now)
	update, err := h.decode(cmd, now)
	if err != nil {
		return dto.Booking{}, err
	}

	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit

	booking, err := loadOwned(ctx, unit, cmd.BookingID, cmd.CallerID)
	if err != nil {
		return dto.Booking{}, err
	}
	if update.ListingID != nil && *update.ListingID != booking.ListingID {
		target, err := unit.Listings().ByID(ctx, *update.ListingID)
		if err != nil {
			return dto.Booking{}, support.NotFound(err, domainlistings.ErrNotFound, "listing", string(*update.ListingID))
		}
		if !target.Active {
			return dto.Booking{}, apperr.Field("accommodation", ErrListingInactive)
		}
	}

	consistent, err := checkMembership(ctx, unit, booking, h.Logger)
	if err != nil {
		return dto.Booking{}, err
	}
	moved, err := booking.Apply(update, now)
	if err != nil {
		return dto.Booking{}, err
	}
	if !consistent {
		if err := domainmembership.LinkBooking(ctx, unit.Memberships(), booking.UserID, string(booking.ListingID), string(booking.ID)); err != nil {
			return dto.Booking{}, err
		}
	}
	if moved.ListingChanged() || moved.UserChanged() {
		if err := domainmembership.MoveBooking(ctx, unit.Memberships(), domainmembership.Move{
			BookingID:   string(booking.ID),
			FromUser:    moved.FromUser,
			ToUser:      moved.ToUser,
			FromListing: string(moved.FromListing),
			ToListing:   string(moved.ToListing),
		}); err != nil {
			return dto.Booking{}, err
		}
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return dto.Booking{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return dto.Booking{}, err
	}
	if err := managed.Commit(); err != nil {
		return dto.Booking{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking updated", "booking_id", booking.ID, "listing_id", booking.ListingID, "user_id", booking.UserID,
			"listing_moved", moved.ListingChanged(), "user_moved", moved.UserChanged(), "total", booking.Total.String())
	}
	return dto.MapBooking(booking), nil
}

// decode parses the supplied dates. A new check-in must still lie in the future.
func (h *UpdateBookingHandler) decode(cmd UpdateBookingCommand, today time.Time) (domainbooking.Update, error) {
	update := domainbooking.Update{
		UserID:      cmd.UserID,
		NightlyRate: cmd.NightlyRate,
		Active:      cmd.Active,
	}
	if cmd.ListingID != nil {
		id := domainlistings.ListingID(*cmd.ListingID)
		update.ListingID = &id
	}
	var errs apperr.Collector
	if cmd.CheckIn != nil {
		checkIn, err := daterange.ValidateCheckIn(*cmd.CheckIn, today)
		errs.Add("check_in_date", err)
		update.CheckIn = &checkIn
	}
	if cmd.CheckOut != nil {
		checkOut, err := daterange.Resolve(*cmd.CheckOut)
		errs.Add("check_out_date", err)
		update.CheckOut = &checkOut
	}
	if err := errs.Err(); err != nil {
		return domainbooking.Update{}, err
	}
	return update, nil
}

type DeleteBookingCommand struct {
	CallerID  string
	BookingID string
}

func (c DeleteBookingCommand) Key() string    { return deleteBookingKey }
func (c DeleteBookingCommand) Caller() string { return c.CallerID }

type DeleteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle removes the booking together with both of its memberships.
func (h *DeleteBookingHandler) Handle(ctx context.Context, cmd DeleteBookingCommand) (struct{}, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit

	booking, err := loadOwned(ctx, unit, cmd.BookingID, cmd.CallerID)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := checkMembership(ctx, unit, booking, h.Logger); err != nil {
		return struct{}{}, err
	}
	if err := domainmembership.UnlinkBooking(ctx, unit.Memberships(), booking.UserID, string(booking.ListingID), string(booking.ID)); err != nil {
		return struct{}{}, err
	}
	if err := unit.Bookings().Delete(ctx, booking.ID); err != nil {
		return struct{}{}, err
	}
	booking.MarkDeleted(support.Now(h.Now))
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return struct{}{}, err
	}
	if err := managed.Commit(); err != nil {
		return struct{}{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking deleted", "booking_id", booking.ID, "listing_id", booking.ListingID, "user_id", cmd.CallerID)
	}
	return struct{}{}, nil
}

// checkMembership reports whether the booking is registered on both sides.
// A one-sided registration is logged and left for the caller to repair.
func checkMembership(ctx context.Context, unit uow.UnitOfWork, booking *domainbooking.Booking, logger *slog.Logger) (bool, error) {
	err := domainmembership.CheckBooking(ctx, unit.Memberships(), booking.UserID, string(booking.ListingID), string(booking.ID))
	if errors.Is(err, domainmembership.ErrInconsistent) {
		if logger != nil {
			logger.Warn("booking membership repaired", "booking_id", booking.ID, "error", err)
		}
		return false, nil
	}
	return err == nil, err
}

func loadOwned(ctx context.Context, unit uow.UnitOfWork, bookingID, callerID string) (*domainbooking.Booking, error) {
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, support.NotFound(err, domainbooking.ErrBookingNotFound, "booking", bookingID)
	}
	if !booking.BelongsTo(callerID) {
		return nil, apperr.Permission("booking %s does not belong to caller", bookingID)
	}
	return booking, nil
}

var _ commands.Handler[UpdateBookingCommand, dto.Booking] = (*UpdateBookingHandler)(nil)
var _ commands.Handler[DeleteBookingCommand, struct{}] = (*DeleteBookingHandler)(nil)
