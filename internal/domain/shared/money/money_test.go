package money

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"0", 0, false},
		{"12", 1200, false},
		{"12.5", 1250, false},
		{"12.05", 1205, false},
		{"-3.10", -310, false},
		{" 1000.00 ", 100000, false},
		{"", 0, true},
		{"1.234", 0, true},
		{"1.", 0, true},
		{".5", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseAmount(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tc.raw, err)
			}
			if got.Amount != tc.want || got.Currency != DefaultCurrency {
				t.Fatalf("expected %d %s, got %d %s", tc.want, DefaultCurrency, got.Amount, got.Currency)
			}
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		num, den int64
		want     int64
	}{
		{5, 2, 3},
		{-5, 2, -3},
		{7, 3, 2},
		{8, 3, 3},
		{1, 2, 1},
		{49, 100, 0},
		{0, 1, 0},
	}
	for _, tc := range cases {
		got, err := RoundHalfUp(big.NewRat(tc.num, tc.den))
		if err != nil {
			t.Fatalf("RoundHalfUp(%d/%d): %v", tc.num, tc.den, err)
		}
		if got != tc.want {
			t.Fatalf("RoundHalfUp(%d/%d): expected %d got %d", tc.num, tc.den, tc.want, got)
		}
	}
}

func TestMulRatAndString(t *testing.T) {
	m, err := Cents(10000).MulRat(big.NewRat(105, 100))
	if err != nil {
		t.Fatalf("MulRat: %v", err)
	}
	if m.Amount != 10500 {
		t.Fatalf("expected 10500 got %d", m.Amount)
	}
	if s := Cents(-1205).String(); s != "-12.05" {
		t.Fatalf("unexpected string %q", s)
	}
	if s := Cents(7).String(); s != "0.07" {
		t.Fatalf("unexpected string %q", s)
	}
}

func TestAddCurrencyMismatch(t *testing.T) {
	if _, err := Cents(1).Add(Must(1, "usd")); err != ErrCurrencyMismatch {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestParseAmountRejectsOverflow(t *testing.T) {
	for _, raw := range []string{"184467440737095517", "92233720368547758.08", "-92233720368547758.08"} {
		_, err := ParseAmount(raw)
		if !errors.Is(err, ErrInvalidAmount) || !errors.Is(err, ErrOverflow) {
			t.Fatalf("ParseAmount(%q): expected overflow, got %v", raw, err)
		}
	}
	m, err := ParseAmount("92233720368547758.07")
	if err != nil {
		t.Fatalf("largest amount rejected: %v", err)
	}
	if m.Amount != math.MaxInt64 {
		t.Fatalf("expected max int64 cents, got %d", m.Amount)
	}
}

func TestArithmeticOverflow(t *testing.T) {
	if _, err := Cents(9e18).MulRat(big.NewRat(115, 10)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("MulRat: expected overflow, got %v", err)
	}
	if _, err := RoundHalfUp(new(big.Rat).SetFrac(new(big.Int).Lsh(big.NewInt(1), 70), big.NewInt(1))); !errors.Is(err, ErrOverflow) {
		t.Fatalf("RoundHalfUp: expected overflow, got %v", err)
	}
	if _, err := Cents(math.MaxInt64).Add(Cents(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Add: expected overflow, got %v", err)
	}
	if _, err := Cents(math.MinInt64).Sub(Cents(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Sub: expected overflow, got %v", err)
	}
	if sum, err := Cents(-5).Add(Cents(3)); err != nil || sum.Amount != -2 {
		t.Fatalf("Add: unexpected %v %v", sum, err)
	}
}
