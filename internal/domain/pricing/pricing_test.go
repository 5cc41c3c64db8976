package pricing

import (
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"quickhost/internal/domain/shared/money"
)

func TestCommissionRateMonotonicAndBounded(t *testing.T) {
	lower := big.NewRat(3, 100)
	upper := big.NewRat(15, 100)
	prev := DefaultCommission.Rate(money.Cents(0))
	for cents := int64(0); cents <= 100000; cents += 250 {
		rate := DefaultCommission.Rate(money.Cents(cents))
		if rate.Cmp(lower) < 0 || rate.Cmp(upper) > 0 {
			t.Fatalf("rate %s out of bounds at %d cents", rate.FloatString(6), cents)
		}
		if rate.Cmp(prev) < 0 {
			t.Fatalf("rate decreased at %d cents: %s < %s", cents, rate.FloatString(6), prev.FloatString(6))
		}
		prev = rate
	}
	if got := DefaultCommission.Rate(money.Cents(100000)); got.Cmp(upper) != 0 {
		t.Fatalf("expected 0.15 at the ceiling, got %s", got.FloatString(4))
	}
	if got := DefaultCommission.Rate(money.Cents(5000000)); got.Cmp(upper) != 0 {
		t.Fatalf("expected flat 0.15 above the ceiling, got %s", got.FloatString(4))
	}
}

func TestComputeListingTotals(t *testing.T) {
	cases := []struct {
		name          string
		base, fee     int64
		wantTotal     int64
		wantEffective int64
	}{
		{"zero base", 0, 5000, 5000, 0},
		{"mid range", 50000, 2000, 52000, 45500},
		{"fractional", 12345, 0, 12345, 11792},
		{"ceiling", 100000, 10000, 110000, 85000},
		{"above ceiling", 200000, 0, 200000, 170000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeListingTotals(money.Cents(tc.base), money.Cents(tc.fee))
			if err != nil {
				t.Fatalf("ComputeListingTotals: %v", err)
			}
			if got.TotalNightlyCost.Amount != tc.wantTotal {
				t.Fatalf("expected total %d got %d", tc.wantTotal, got.TotalNightlyCost.Amount)
			}
			if got.EffectiveNightlyRate.Amount != tc.wantEffective {
				t.Fatalf("expected effective %d got %d", tc.wantEffective, got.EffectiveNightlyRate.Amount)
			}
		})
	}
}

func TestComputeListingTotalsRejectsNegatives(t *testing.T) {
	if _, err := ComputeListingTotals(money.Cents(-1), money.Cents(0)); !errors.Is(err, ErrNegativeRate) {
		t.Fatalf("expected negative rate error, got %v", err)
	}
	if _, err := ComputeListingTotals(money.Cents(100), money.Cents(-1)); !errors.Is(err, ErrNegativeFee) {
		t.Fatalf("expected negative fee error, got %v", err)
	}
}

func TestComputeBookingTotal(t *testing.T) {
	checkIn := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		nights int
		want   int64
	}{
		{1, 10500},
		{2, 21000},
		{3, 31500},
		{4, 44000},
		{5, 55000},
		{7, 77000},
		{8, 92000},
		{10, 115000},
	}
	for _, tc := range cases {
		quote, err := ComputeBookingTotal(money.Cents(10000), checkIn, checkIn.AddDate(0, 0, tc.nights))
		if err != nil {
			t.Fatalf("%d nights: %v", tc.nights, err)
		}
		if quote.Nights != tc.nights {
			t.Fatalf("expected %d nights got %d", tc.nights, quote.Nights)
		}
		if quote.Total.Amount != tc.want {
			t.Fatalf("%d nights: expected %d got %d", tc.nights, tc.want, quote.Total.Amount)
		}
	}
}

func TestComputeBookingTotalRoundsOnce(t *testing.T) {
	checkIn := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// 33.33 * 3 * 1.05 = 104.9895 -> 104.99
	quote, err := ComputeBookingTotal(money.Cents(3333), checkIn, checkIn.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("ComputeBookingTotal: %v", err)
	}
	if quote.Total.Amount != 10499 {
		t.Fatalf("expected 10499 got %d", quote.Total.Amount)
	}
}

func TestComputeBookingTotalRejectsShortStay(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := ComputeBookingTotal(money.Cents(10000), day, day); !errors.Is(err, ErrStayTooShort) {
		t.Fatalf("expected ErrStayTooShort, got %v", err)
	}
	if _, err := ComputeBookingTotal(money.Cents(10000), day, day.AddDate(0, 0, -1)); !errors.Is(err, ErrStayTooShort) {
		t.Fatalf("expected ErrStayTooShort, got %v", err)
	}
}

func TestPricesOutOfRangeReportOverflow(t *testing.T) {
	if _, err := ComputeListingTotals(money.Cents(math.MaxInt64), money.Cents(1)); !errors.Is(err, money.ErrOverflow) {
		t.Fatalf("expected overflow on total, got %v", err)
	}
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := ComputeBookingTotal(money.Cents(9e18), day, day.AddDate(0, 0, 10)); !errors.Is(err, money.ErrOverflow) {
		t.Fatalf("expected overflow on stay, got %v", err)
	}
}
