package daterange

import (
	"fmt"
	"time"
)

// ValidateCheckIn accepts only dates strictly after today; today itself is rejected.
// The caller supplies today so the check never depends on the wall clock.
func ValidateCheckIn[T Input](date T, today time.Time) (time.Time, error) {
	checkIn, err := Resolve(date)
	if err != nil {
		return time.Time{}, err
	}
	if !checkIn.After(Day(today)) {
		return time.Time{}, fmt.Errorf("%w: check-in must be after %s", ErrInvalidDate, Format(today))
	}
	return checkIn, nil
}

// ValidateCheckOut requires at least one night after checkIn.
func ValidateCheckOut[T Input](checkOut T, checkIn time.Time) (time.Time, error) {
	out, err := Resolve(checkOut)
	if err != nil {
		return time.Time{}, err
	}
	if !out.After(Day(checkIn)) {
		return time.Time{}, ErrInvalidRange
	}
	return out, nil
}
