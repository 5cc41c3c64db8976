package pricing

import (
	"errors"
	"math/big"
	"time"

	"quickhost/internal/domain/shared/daterange"
	"quickhost/internal/domain/shared/money"
)

var (
	ErrNegativeRate  = errors.New("pricing: nightly rate must be non-negative")
	ErrNegativeFee   = errors.New("pricing: cleaning fee must be non-negative")
	ErrRateRequired  = errors.New("pricing: nightly rate must be greater than zero")
	ErrStayTooShort  = errors.New("pricing: stay must be at least one night")
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
)

// Commission describes the sliding host commission. The rate grows linearly from
// MinRate at zero to MaxRate at Ceiling and stays flat above it.
type Commission struct {
	MinRate *big.Rat
	MaxRate *big.Rat
	Ceiling money.Money
}

// DefaultCommission is 3% rising to 15% at 1000.00.
var DefaultCommission = Commission{
	MinRate: big.NewRat(3, 100),
	MaxRate: big.NewRat(15, 100),
	Ceiling: money.Cents(100000),
}

// ListingTotals are the derived price fields of a listing.
type ListingTotals struct {
	TotalNightlyCost     money.Money
	EffectiveNightlyRate money.Money
	CommissionRate       *big.Rat
}

// Rate returns the commission rate for the given base rate.
func (c Commission) Rate(base money.Money) *big.Rat {
	ceiling := c.Ceiling.Amount
	if ceiling <= 0 {
		return new(big.Rat).Set(c.MaxRate)
	}
	capped := base.Amount
	if capped < 0 {
		capped = 0
	}
	if capped > ceiling {
		capped = ceiling
	}
	spread := new(big.Rat).Sub(c.MaxRate, c.MinRate)
	spread.Mul(spread, big.NewRat(capped, ceiling))
	return spread.Add(spread, c.MinRate)
}

// EffectiveRate deducts the commission from base. Non-positive rates are returned unchanged.
func (c Commission) EffectiveRate(base money.Money) (money.Money, error) {
	if base.Amount <= 0 {
		return base, nil
	}
	keep := new(big.Rat).Sub(big.NewRat(1, 1), c.Rate(base))
	return base.MulRat(keep)
}

// Totals derives the listing price fields.
func (c Commission) Totals(base, cleaningFee money.Money) (ListingTotals, error) {
	if err := ValidateRates(base, cleaningFee); err != nil {
		return ListingTotals{}, err
	}
	total, err := base.Add(cleaningFee)
	if err != nil {
		return ListingTotals{}, err
	}
	effective, err := c.EffectiveRate(base)
	if err != nil {
		return ListingTotals{}, err
	}
	return ListingTotals{
		TotalNightlyCost:     total,
		EffectiveNightlyRate: effective,
		CommissionRate:       c.Rate(base),
	}, nil
}

// ComputeListingTotals applies DefaultCommission.
func ComputeListingTotals(base, cleaningFee money.Money) (ListingTotals, error) {
	return DefaultCommission.Totals(base, cleaningFee)
}

// ValidateRates rejects negative listing prices.
func ValidateRates(base, cleaningFee money.Money) error {
	if base.Currency == "" || cleaningFee.Currency == "" {
		return ErrCurrencyUnset
	}
	if base.IsNegative() {
		return ErrNegativeRate
	}
	if cleaningFee.IsNegative() {
		return ErrNegativeFee
	}
	return nil
}

// BookingQuote is the computed price of a stay.
type BookingQuote struct {
	Nights     int
	Nightly    money.Money
	Multiplier *big.Rat
	Total      money.Money
}

// StayMultiplier returns the tiered surcharge for a stay length.
func StayMultiplier(nights int) *big.Rat {
	switch {
	case nights <= 3:
		return big.NewRat(105, 100)
	case nights <= 7:
		return big.NewRat(110, 100)
	default:
		return big.NewRat(115, 100)
	}
}

// ComputeBookingTotal prices nightly * nights * multiplier, rounded once at the end.
func ComputeBookingTotal(nightly money.Money, checkIn, checkOut time.Time) (BookingQuote, error) {
	nights := daterange.DaysBetween(checkIn, checkOut)
	if nights < 1 {
		return BookingQuote{}, ErrStayTooShort
	}
	if nightly.Currency == "" {
		return BookingQuote{}, ErrCurrencyUnset
	}
	multiplier := StayMultiplier(nights)
	factor := new(big.Rat).Mul(big.NewRat(int64(nights), 1), multiplier)
	total, err := nightly.MulRat(factor)
	if err != nil {
		return BookingQuote{}, err
	}
	return BookingQuote{
		Nights:     nights,
		Nightly:    nightly,
		Multiplier: multiplier,
		Total:      total,
	}, nil
}

// ValidateNightlyRate is the upstream guard for booking prices.
func ValidateNightlyRate(nightly money.Money) error {
	if nightly.Amount <= 0 {
		return ErrRateRequired
	}
	return nil
}
