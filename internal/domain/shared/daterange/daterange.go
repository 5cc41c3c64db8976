package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical wire format for calendar dates.
const Layout = "2006-01-02"

var (
	ErrMalformedDate = errors.New("daterange: date must use the YYYY-MM-DD format")
	ErrInvalidDate   = errors.New("daterange: invalid date")
	ErrInvalidRange  = fmt.Errorf("%w: checkout must be after checkin", ErrInvalidDate)
)

// Input is anything the validators accept as a calendar date.
type Input interface {
	string | time.Time
}

// DateRange represents a half-open interval [checkIn, checkOut) of calendar days.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts whole calendar days between check-in and check-out.
func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the calendar-day difference to - from.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// ParseDate reads a canonical YYYY-MM-DD date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return t, nil
}

// Resolve turns an Input into a calendar date.
func Resolve[T Input](value T) (time.Time, error) {
	switch v := any(value).(type) {
	case string:
		return ParseDate(v)
	case time.Time:
		if v.IsZero() {
			return time.Time{}, ErrMalformedDate
		}
		return Day(v), nil
	}
	return time.Time{}, ErrMalformedDate
}

// Format renders a date in the canonical layout.
func Format(t time.Time) string {
	return Day(t).Format(Layout)
}
