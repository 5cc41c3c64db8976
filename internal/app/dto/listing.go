package dto

import (
	"time"

	domainlistings "quickhost/internal/domain/listings"
	"quickhost/internal/domain/shared/money"
)

// MoneyDTO renders amounts as two-decimal strings so clients never round.
type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.String(), Currency: value.Currency}
}

type ListingAddress struct {
	Street       string `json:"address"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	PostalCode   string `json:"postal_code"`
	UF           string `json:"uf"`
}

type ListingCapacity struct {
	Rooms     int `json:"room_count"`
	Beds      int `json:"bed_count"`
	Bathrooms int `json:"bathroom_count"`
	Guests    int `json:"guest_capacity"`
}

type ListingAmenities struct {
	WiFi             bool `json:"wifi"`
	TV               bool `json:"tv"`
	Kitchen          bool `json:"kitchen"`
	WashingMachine   bool `json:"washing_machine"`
	ParkingIncluded  bool `json:"parking_included"`
	AirConditioning  bool `json:"air_conditioning"`
	Pool             bool `json:"pool"`
	Jacuzzi          bool `json:"jacuzzi"`
	Grill            bool `json:"grill"`
	PrivateGym       bool `json:"private_gym"`
	BeachAccess      bool `json:"beach_access"`
	SmokeDetector    bool `json:"smoke_detector"`
	FireExtinguisher bool `json:"fire_extinguisher"`
	FirstAidKit      bool `json:"first_aid_kit"`
	OutdoorCamera    bool `json:"outdoor_camera"`
}

// Listing is the public representation of a listing.
type Listing struct {
	ID                   string           `json:"id"`
	OwnerID              string           `json:"owner"`
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Category             string           `json:"category"`
	SpaceType            string           `json:"space_type"`
	Address              ListingAddress   `json:"location"`
	Capacity             ListingCapacity  `json:"capacity"`
	Amenities            ListingAmenities `json:"amenities"`
	Discount             bool             `json:"discount"`
	ConsecutiveDaysLimit int              `json:"consecutive_days_limit"`
	PricePerNight        MoneyDTO         `json:"price_per_night"`
	CleaningFee          MoneyDTO         `json:"cleaning_fee"`
	TotalNightlyCost     MoneyDTO         `json:"final_price"`
	EffectiveNightlyRate MoneyDTO         `json:"effective_nightly_rate"`
	Images               []string         `json:"internal_images"`
	CoverImage           *string          `json:"internal_cover_image"`
	Active               bool             `json:"is_active"`
	Rating               string           `json:"rating"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

type ListingCollection struct {
	Items  []Listing `json:"items"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// MapListing builds the DTO. A missing cover renders as null.
func MapListing(listing *domainlistings.Listing) Listing {
	if listing == nil {
		return Listing{}
	}
	var cover *string
	if listing.CoverImage != "" {
		c := listing.CoverImage
		cover = &c
	}
	images := append([]string{}, listing.Images...)
	a := listing.Amenities
	return Listing{
		ID:          string(listing.ID),
		OwnerID:     string(listing.Owner),
		Title:       listing.Title,
		Description: listing.Description,
		Category:    string(listing.Category),
		SpaceType:   string(listing.SpaceType),
		Address: ListingAddress{
			Street:       listing.Address.Street,
			City:         listing.Address.City,
			Neighborhood: listing.Address.Neighborhood,
			PostalCode:   listing.Address.PostalCode,
			UF:           listing.Address.UF,
		},
		Capacity: ListingCapacity{
			Rooms:     listing.Capacity.Rooms,
			Beds:      listing.Capacity.Beds,
			Bathrooms: listing.Capacity.Bathrooms,
			Guests:    listing.Capacity.Guests,
		},
		Amenities: ListingAmenities{
			WiFi:             a.WiFi,
			TV:               a.TV,
			Kitchen:          a.Kitchen,
			WashingMachine:   a.WashingMachine,
			ParkingIncluded:  a.ParkingIncluded,
			AirConditioning:  a.AirConditioning,
			Pool:             a.Pool,
			Jacuzzi:          a.Jacuzzi,
			Grill:            a.Grill,
			PrivateGym:       a.PrivateGym,
			BeachAccess:      a.BeachAccess,
			SmokeDetector:    a.SmokeDetector,
			FireExtinguisher: a.FireExtinguisher,
			FirstAidKit:      a.FirstAidKit,
			OutdoorCamera:    a.OutdoorCamera,
		},
		Discount:             listing.Discount,
		ConsecutiveDaysLimit: listing.ConsecutiveDaysLimit,
		PricePerNight:        MapMoney(listing.NightlyRate),
		CleaningFee:          MapMoney(listing.CleaningFee),
		TotalNightlyCost:     MapMoney(listing.TotalNightlyCost),
		EffectiveNightlyRate: MapMoney(listing.EffectiveNightlyRate),
		Images:               images,
		CoverImage:           cover,
		Active:               listing.Active,
		Rating:               FormatRating(listing.Rating),
		CreatedAt:            listing.CreatedAt,
		UpdatedAt:            listing.UpdatedAt,
	}
}

func MapListings(items []*domainlistings.Listing, limit, offset int) ListingCollection {
	out := ListingCollection{Items: make([]Listing, 0, len(items)), Limit: limit, Offset: offset}
	for _, item := range items {
		out.Items = append(out.Items, MapListing(item))
	}
	return out
}
