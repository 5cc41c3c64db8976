package dto

import (
	"time"

	domainbooking "quickhost/internal/domain/booking"
	"quickhost/internal/domain/shared/daterange"
)

type Booking struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"accommodation"`
	UserID      string    `json:"user"`
	CheckIn     string    `json:"check_in_date"`
	CheckOut    string    `json:"check_out_date"`
	Nights      int       `json:"nights"`
	NightlyRate MoneyDTO  `json:"price"`
	Multiplier  string    `json:"multiplier"`
	Total       MoneyDTO  `json:"total_price"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	return Booking{
		ID:          string(b.ID),
		ListingID:   string(b.ListingID),
		UserID:      b.UserID,
		CheckIn:     daterange.Format(b.Range.CheckIn),
		CheckOut:    daterange.Format(b.Range.CheckOut),
		Nights:      b.Nights,
		NightlyRate: MapMoney(b.NightlyRate),
		Multiplier:  b.Multiplier,
		Total:       MapMoney(b.Total),
		Active:      b.Active,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func MapBookings(items []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]Booking, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, MapBooking(item))
	}
	return out
}
