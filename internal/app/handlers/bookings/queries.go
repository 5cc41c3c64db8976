package bookings

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/queries"
	"quickhost/internal/app/uow"
	domainbooking "quickhost/internal/domain/booking"
	domainmembership "quickhost/internal/domain/membership"
	"quickhost/internal/domain/shared/apperr"
)

const (
	getBookingKey       = "bookings.get"
	listUserBookingsKey = "bookings.user.list"
)

type GetBookingQuery struct {
	CallerID  string
	BookingID string
}

func (q GetBookingQuery) Key() string    { return getBookingKey }
func (q GetBookingQuery) Caller() string { return q.CallerID }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	booking, err := loadOwned(execCtx, unit, q.BookingID, q.CallerID)
	if err != nil {
		return dto.Booking{}, err
	}
	return dto.MapBooking(booking), nil
}

// ListUserBookingsQuery lists the caller's own bookings.
type ListUserBookingsQuery struct {
	CallerID string
	UserID   string
}

func (q ListUserBookingsQuery) Key() string    { return listUserBookingsKey }
func (q ListUserBookingsQuery) Caller() string { return q.CallerID }

type ListUserBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle reads the user's booking collection and loads each member, newest
// first. Members whose booking record is gone are skipped.
func (h *ListUserBookingsHandler) Handle(ctx context.Context, q ListUserBookingsQuery) (dto.BookingCollection, error) {
	user := q.UserID
	if user == "" {
		user = q.CallerID
	}
	if user != q.CallerID {
		return dto.BookingCollection{}, apperr.Permission("bookings of another user")
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	ids, err := unit.Memberships().Members(execCtx, domainmembership.UserBookings, user)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items := make([]*domainbooking.Booking, 0, len(ids))
	for _, id := range ids {
		booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(id))
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			if h.Logger != nil {
				h.Logger.Warn("user booking member without record", "user_id", user, "booking_id", id)
			}
			continue
		}
		if err != nil {
			return dto.BookingCollection{}, err
		}
		items = append(items, booking)
	}
	slices.SortFunc(items, newestFirst)
	if h.Logger != nil {
		h.Logger.Debug("user bookings listed", "user_id", user, "count", len(items))
	}
	return dto.MapBookings(items), nil
}

func newestFirst(a, b *domainbooking.Booking) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(string(a.ID), string(b.ID))
}

var _ queries.Handler[GetBookingQuery, dto.Booking] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListUserBookingsQuery, dto.BookingCollection] = (*ListUserBookingsHandler)(nil)
