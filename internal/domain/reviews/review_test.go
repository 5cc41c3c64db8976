package reviews

import (
	"errors"
	"strings"
	"testing"
	"time"

	"quickhost/internal/domain/listings"
	"quickhost/internal/domain/shared/apperr"
)

func comment(n int) string {
	return strings.Repeat("a", n)
}

func TestAverage(t *testing.T) {
	cases := []struct {
		ratings []int
		want    float64
	}{
		{nil, 0},
		{[]int{3, 4, 5}, 4},
		{[]int{3, 4}, 3.5},
		{[]int{5, 4, 4}, 4.33},
		{[]int{5, 5, 4}, 4.67},
		{[]int{1, 2, 2, 2, 2, 2, 2, 2}, 1.88},
	}
	for _, tc := range cases {
		if got := Average(tc.ratings); got != tc.want {
			t.Fatalf("Average(%v) = %v, want %v", tc.ratings, got, tc.want)
		}
	}
}

func TestNormalizeCommentBounds(t *testing.T) {
	cases := []struct {
		name string
		in   string
		err  error
	}{
		{"blank", "   ", ErrCommentRequired},
		{"exactly 100", comment(100), ErrCommentTooShort},
		{"101", comment(101), nil},
		{"499", comment(499), nil},
		{"exactly 500", comment(500), ErrCommentTooLong},
		{"padded", "  " + comment(150) + "  ", nil},
		{"padding counts toward minimum", "  " + comment(99), nil},
		{"padding counts toward maximum", comment(498) + "  ", ErrCommentTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeComment(tc.in)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v got %v", tc.err, err)
			}
			if err == nil && got != strings.TrimSpace(tc.in) {
				t.Fatal("comment not trimmed")
			}
		})
	}
}

func TestSubmitValidates(t *testing.T) {
	_, err := Submit(SubmitParams{ID: "r", ListingID: "l", AuthorID: "u", Rating: 6, Comment: "short"})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := verr.Map()
	if _, ok := fields["rating"]; !ok {
		t.Fatalf("missing rating error: %v", fields)
	}
	if _, ok := fields["comment"]; !ok {
		t.Fatalf("missing comment error: %v", fields)
	}
}

func TestApplyReturnsPreviousListing(t *testing.T) {
	review, err := Submit(SubmitParams{ID: "r", ListingID: "l1", AuthorID: "u", Rating: 4, Comment: comment(120), CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	target := listings.ListingID("l2")
	rating := 2
	prev, err := review.Apply(Update{ListingID: &target, Rating: &rating}, time.Now())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if prev != "l1" || review.ListingID != "l2" || review.Rating != 2 {
		t.Fatalf("unexpected state prev=%s listing=%s rating=%d", prev, review.ListingID, review.Rating)
	}
	bad := 0
	if _, err := review.Apply(Update{Rating: &bad}, time.Now()); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
	if review.Rating != 2 {
		t.Fatal("rating mutated by rejected update")
	}
}
