package listings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"quickhost/internal/domain/pricing"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/money"
)

var (
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrCategory        = errors.New("listings: category must be one of inn, chalet, apartment, home, room")
	ErrSpaceType       = errors.New("listings: space type must be one of full_space, limited_space")
	ErrAddressLength   = errors.New("listings: address must have at least 5 characters")
	ErrCityLength      = errors.New("listings: city must have at least 2 characters")
	ErrNeighborhood    = errors.New("listings: neighborhood must have at least 2 characters")
	ErrPostalCode      = errors.New("listings: postal code must look like 12345-678 or 12345678")
	ErrCountOutOfRange = errors.New("listings: count must be between 1 and 20")
)

const (
	minCount = 1
	maxCount = 20
)

var postalCodePattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

type Category string

const (
	CategoryInn       Category = "inn"
	CategoryChalet    Category = "chalet"
	CategoryApartment Category = "apartment"
	CategoryHome      Category = "home"
	CategoryRoom      Category = "room"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryInn, CategoryChalet, CategoryApartment, CategoryHome, CategoryRoom:
		return true
	}
	return false
}

type SpaceType string

const (
	SpaceFull    SpaceType = "full_space"
	SpaceLimited SpaceType = "limited_space"
)

func (s SpaceType) Valid() bool {
	return s == SpaceFull || s == SpaceLimited
}

type Address struct {
	Street       string
	City         string
	Neighborhood string
	PostalCode   string
	UF           string
}

type AddressPatch struct {
	Street       *string
	City         *string
	Neighborhood *string
	PostalCode   *string
	UF           *string
}

func (a Address) Normalized() Address {
	return Address{
		Street:       strings.TrimSpace(a.Street),
		City:         strings.TrimSpace(a.City),
		Neighborhood: strings.TrimSpace(a.Neighborhood),
		PostalCode:   strings.TrimSpace(a.PostalCode),
		UF:           strings.ToUpper(strings.TrimSpace(a.UF)),
	}
}

func (a Address) Apply(p AddressPatch) Address {
	out := a
	if p.Street != nil {
		out.Street = *p.Street
	}
	if p.City != nil {
		out.City = *p.City
	}
	if p.Neighborhood != nil {
		out.Neighborhood = *p.Neighborhood
	}
	if p.PostalCode != nil {
		out.PostalCode = *p.PostalCode
	}
	if p.UF != nil {
		out.UF = *p.UF
	}
	return out.Normalized()
}

func validateStreet(v string) error {
	if runeLen(v) < 5 {
		return ErrAddressLength
	}
	return nil
}

func validateCity(v string) error {
	if runeLen(v) < 2 {
		return ErrCityLength
	}
	return nil
}

func validateNeighborhood(v string) error {
	if runeLen(v) < 2 {
		return ErrNeighborhood
	}
	return nil
}

func validatePostalCode(v string) error {
	if !postalCodePattern.MatchString(v) {
		return ErrPostalCode
	}
	return nil
}

// Capacity holds the bounded room/bed/bathroom/guest counts.
type Capacity struct {
	Rooms     int
	Beds      int
	Bathrooms int
	Guests    int
}

type CapacityPatch struct {
	Rooms     *int
	Beds      *int
	Bathrooms *int
	Guests    *int
}

func (c Capacity) Apply(p CapacityPatch) Capacity {
	out := c
	if p.Rooms != nil {
		out.Rooms = *p.Rooms
	}
	if p.Beds != nil {
		out.Beds = *p.Beds
	}
	if p.Bathrooms != nil {
		out.Bathrooms = *p.Bathrooms
	}
	if p.Guests != nil {
		out.Guests = *p.Guests
	}
	return out
}

func (c Capacity) Validate() error {
	var errs apperr.Collector
	errs.Add("room_count", validateCount(c.Rooms))
	errs.Add("bed_count", validateCount(c.Beds))
	errs.Add("bathroom_count", validateCount(c.Bathrooms))
	errs.Add("guest_capacity", validateCount(c.Guests))
	return errs.Err()
}

func validateCount(n int) error {
	if n < minCount || n > maxCount {
		return fmt.Errorf("%w, got %d", ErrCountOutOfRange, n)
	}
	return nil
}

type Amenities struct {
	WiFi             bool
	TV               bool
	Kitchen          bool
	WashingMachine   bool
	ParkingIncluded  bool
	AirConditioning  bool
	Pool             bool
	Jacuzzi          bool
	Grill            bool
	PrivateGym       bool
	BeachAccess      bool
	SmokeDetector    bool
	FireExtinguisher bool
	FirstAidKit      bool
	OutdoorCamera    bool
}

// AmenitiesPatch carries only the flags the caller sent; nil keeps the stored value.
type AmenitiesPatch struct {
	WiFi             *bool
	TV               *bool
	Kitchen          *bool
	WashingMachine   *bool
	ParkingIncluded  *bool
	AirConditioning  *bool
	Pool             *bool
	Jacuzzi          *bool
	Grill            *bool
	PrivateGym       *bool
	BeachAccess      *bool
	SmokeDetector    *bool
	FireExtinguisher *bool
	FirstAidKit      *bool
	OutdoorCamera    *bool
}

func (a Amenities) Apply(p AmenitiesPatch) Amenities {
	out := a
	pick := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	pick(&out.WiFi, p.WiFi)
	pick(&out.TV, p.TV)
	pick(&out.Kitchen, p.Kitchen)
	pick(&out.WashingMachine, p.WashingMachine)
	pick(&out.ParkingIncluded, p.ParkingIncluded)
	pick(&out.AirConditioning, p.AirConditioning)
	pick(&out.Pool, p.Pool)
	pick(&out.Jacuzzi, p.Jacuzzi)
	pick(&out.Grill, p.Grill)
	pick(&out.PrivateGym, p.PrivateGym)
	pick(&out.BeachAccess, p.BeachAccess)
	pick(&out.SmokeDetector, p.SmokeDetector)
	pick(&out.FireExtinguisher, p.FireExtinguisher)
	pick(&out.FirstAidKit, p.FirstAidKit)
	pick(&out.OutdoorCamera, p.OutdoorCamera)
	return out
}

// CreateListingFields is the full payload required to create a listing.
type CreateListingFields struct {
	Title                string
	Description          string
	Category             Category
	SpaceType            SpaceType
	Address              Address
	Capacity             Capacity
	Amenities            Amenities
	Discount             bool
	ConsecutiveDaysLimit *int
	NightlyRate          money.Money
	CleaningFee          money.Money
}

func (f CreateListingFields) Normalized() CreateListingFields {
	out := f
	out.Title = strings.TrimSpace(f.Title)
	out.Description = strings.TrimSpace(f.Description)
	out.Category = Category(strings.ToLower(strings.TrimSpace(string(f.Category))))
	out.SpaceType = SpaceType(strings.ToLower(strings.TrimSpace(string(f.SpaceType))))
	out.Address = f.Address.Normalized()
	if out.NightlyRate.Currency == "" {
		out.NightlyRate.Currency = money.DefaultCurrency
	}
	if out.CleaningFee.Currency == "" {
		out.CleaningFee.Currency = money.DefaultCurrency
	}
	return out
}

// Validate reports every rejected field at once.
func (f CreateListingFields) Validate() error {
	var errs apperr.Collector
	if strings.TrimSpace(f.Title) == "" {
		errs.Add("title", ErrTitleRequired)
	}
	if !f.Category.Valid() {
		errs.Add("category", ErrCategory)
	}
	if !f.SpaceType.Valid() {
		errs.Add("space_type", ErrSpaceType)
	}
	errs.Add("address", validateStreet(f.Address.Street))
	errs.Add("city", validateCity(f.Address.City))
	errs.Add("neighborhood", validateNeighborhood(f.Address.Neighborhood))
	errs.Add("postal_code", validatePostalCode(f.Address.PostalCode))
	errs.Add("room_count", validateCount(f.Capacity.Rooms))
	errs.Add("bed_count", validateCount(f.Capacity.Beds))
	errs.Add("bathroom_count", validateCount(f.Capacity.Bathrooms))
	errs.Add("guest_capacity", validateCount(f.Capacity.Guests))
	addRateErrors(&errs, &f.NightlyRate, &f.CleaningFee)
	return errs.Err()
}

// UpdateListingFields is a partial payload. Nil pointers mean "not supplied".
type UpdateListingFields struct {
	Title                *string
	Description          *string
	Category             *Category
	SpaceType            *SpaceType
	Address              AddressPatch
	Capacity             CapacityPatch
	Amenities            AmenitiesPatch
	Discount             *bool
	ConsecutiveDaysLimit *int
	Active               *bool
	NightlyRate          *money.Money
	CleaningFee          *money.Money
}

// PriceChanged reports whether the derived totals need recomputation.
func (f UpdateListingFields) PriceChanged() bool {
	return f.NightlyRate != nil || f.CleaningFee != nil
}

// Normalized lowercases and trims the supplied category and space type the
// same way creation does.
func (f UpdateListingFields) Normalized() UpdateListingFields {
	out := f
	if f.Category != nil {
		c := Category(strings.ToLower(strings.TrimSpace(string(*f.Category))))
		out.Category = &c
	}
	if f.SpaceType != nil {
		s := SpaceType(strings.ToLower(strings.TrimSpace(string(*f.SpaceType))))
		out.SpaceType = &s
	}
	return out
}

// Validate checks only the supplied fields.
func (f UpdateListingFields) Validate() error {
	var errs apperr.Collector
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		errs.Add("title", ErrTitleRequired)
	}
	if f.Category != nil && !f.Category.Valid() {
		errs.Add("category", ErrCategory)
	}
	if f.SpaceType != nil && !f.SpaceType.Valid() {
		errs.Add("space_type", ErrSpaceType)
	}
	if v := f.Address.Street; v != nil {
		errs.Add("address", validateStreet(strings.TrimSpace(*v)))
	}
	if v := f.Address.City; v != nil {
		errs.Add("city", validateCity(strings.TrimSpace(*v)))
	}
	if v := f.Address.Neighborhood; v != nil {
		errs.Add("neighborhood", validateNeighborhood(strings.TrimSpace(*v)))
	}
	if v := f.Address.PostalCode; v != nil {
		errs.Add("postal_code", validatePostalCode(strings.TrimSpace(*v)))
	}
	counts := []struct {
		field string
		value *int
	}{
		{"room_count", f.Capacity.Rooms},
		{"bed_count", f.Capacity.Beds},
		{"bathroom_count", f.Capacity.Bathrooms},
		{"guest_capacity", f.Capacity.Guests},
	}
	for _, c := range counts {
		if c.value != nil {
			errs.Add(c.field, validateCount(*c.value))
		}
	}
	addRateErrors(&errs, f.NightlyRate, f.CleaningFee)
	return errs.Err()
}

func addRateErrors(errs *apperr.Collector, rate, fee *money.Money) {
	if rate != nil && rate.IsNegative() {
		errs.Add("price_per_night", pricing.ErrNegativeRate)
	}
	if fee != nil && fee.IsNegative() {
		errs.Add("cleaning_fee", pricing.ErrNegativeFee)
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}
