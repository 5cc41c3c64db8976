package listings

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"quickhost/internal/domain/pricing"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/events"
	"quickhost/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("listings: not found")
	ErrIDRequired       = errors.New("listings: id is required")
	ErrOwnerRequired    = errors.New("listings: owner is required")
	ErrCoverNotInImages = errors.New("listings: cover image must be one of the listing images")
	ErrRatingRange      = errors.New("listings: rating must be between 0 and 5")
)

// UnlimitedStay marks a listing without a consecutive-days limit.
const UnlimitedStay = -1

type ListingID string
type OwnerID string

type Listing struct {
	ID                   ListingID
	Owner                OwnerID
	Title                string
	Description          string
	Category             Category
	SpaceType            SpaceType
	Address              Address
	Capacity             Capacity
	Amenities            Amenities
	Discount             bool
	ConsecutiveDaysLimit int
	NightlyRate          money.Money
	CleaningFee          money.Money
	TotalNightlyCost     money.Money
	EffectiveNightlyRate money.Money
	Images               []string
	CoverImage           string
	Active               bool
	Rating               float64
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	List(ctx context.Context, filter ListFilter) ([]*Listing, error)
}

type CreateParams struct {
	ID         ListingID
	Owner      OwnerID
	Fields     CreateListingFields
	Commission pricing.Commission
	Now        time.Time
}

// NewListing validates the payload and derives the price fields. Images are
// attached afterwards with SetImages once the blobs are stored.
func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	fields := params.Fields.Normalized()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	totals, err := params.Commission.Totals(fields.NightlyRate, fields.CleaningFee)
	if err != nil {
		return nil, totalsError(err)
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:                   params.ID,
		Owner:                params.Owner,
		Title:                fields.Title,
		Description:          fields.Description,
		Category:             fields.Category,
		SpaceType:            fields.SpaceType,
		Address:              fields.Address,
		Capacity:             fields.Capacity,
		Amenities:            fields.Amenities,
		Discount:             fields.Discount,
		ConsecutiveDaysLimit: normalizeDaysLimit(fields.ConsecutiveDaysLimit),
		NightlyRate:          fields.NightlyRate,
		CleaningFee:          fields.CleaningFee,
		TotalNightlyCost:     totals.TotalNightlyCost,
		EffectiveNightlyRate: totals.EffectiveNightlyRate,
		Images:               []string{},
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	listing.Record(ListingCreated{ListingID: listing.ID, OwnerID: listing.Owner, At: now})
	return listing, nil
}

// ApplyUpdate merges the supplied fields. Anything left nil keeps its stored
// value, and the derived prices are recomputed from the merged rate and fee.
func (l *Listing) ApplyUpdate(fields UpdateListingFields, commission pricing.Commission, now time.Time) error {
	fields = fields.Normalized()
	if err := fields.Validate(); err != nil {
		return err
	}
	merged := *l
	if fields.Title != nil {
		merged.Title = strings.TrimSpace(*fields.Title)
	}
	if fields.Description != nil {
		merged.Description = strings.TrimSpace(*fields.Description)
	}
	if fields.Category != nil {
		merged.Category = *fields.Category
	}
	if fields.SpaceType != nil {
		merged.SpaceType = *fields.SpaceType
	}
	merged.Address = l.Address.Apply(fields.Address)
	merged.Capacity = l.Capacity.Apply(fields.Capacity)
	merged.Amenities = l.Amenities.Apply(fields.Amenities)
	if fields.Discount != nil {
		merged.Discount = *fields.Discount
	}
	if fields.ConsecutiveDaysLimit != nil {
		merged.ConsecutiveDaysLimit = normalizeDaysLimit(fields.ConsecutiveDaysLimit)
	}
	if fields.Active != nil {
		merged.Active = *fields.Active
	}
	if fields.NightlyRate != nil {
		merged.NightlyRate = *fields.NightlyRate
	}
	if fields.CleaningFee != nil {
		merged.CleaningFee = *fields.CleaningFee
	}
	totals, err := commission.Totals(merged.NightlyRate, merged.CleaningFee)
	if err != nil {
		return totalsError(err)
	}
	l.Title = merged.Title
	l.Description = merged.Description
	l.Category = merged.Category
	l.SpaceType = merged.SpaceType
	l.Address = merged.Address
	l.Capacity = merged.Capacity
	l.Amenities = merged.Amenities
	l.Discount = merged.Discount
	l.ConsecutiveDaysLimit = merged.ConsecutiveDaysLimit
	l.Active = merged.Active
	l.NightlyRate = merged.NightlyRate
	l.CleaningFee = merged.CleaningFee
	l.TotalNightlyCost = totals.TotalNightlyCost
	l.EffectiveNightlyRate = totals.EffectiveNightlyRate
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdated{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// SetImages replaces the ordered image list and cover together.
func (l *Listing) SetImages(images []string, cover string, now time.Time) error {
	if cover != "" && !slices.Contains(images, cover) {
		return ErrCoverNotInImages
	}
	l.Images = append([]string{}, images...)
	l.CoverImage = cover
	l.UpdatedAt = now.UTC()
	return nil
}

func (l *Listing) SetActive(active bool, now time.Time) {
	if l.Active == active {
		return
	}
	l.Active = active
	l.UpdatedAt = now.UTC()
	if active {
		l.Record(ListingActivated{ListingID: l.ID, At: l.UpdatedAt})
		return
	}
	l.Record(ListingDeactivated{ListingID: l.ID, At: l.UpdatedAt})
}

// SetRating stores a recomputed review average.
func (l *Listing) SetRating(average float64, now time.Time) error {
	if average < 0 || average > 5 {
		return ErrRatingRange
	}
	if l.Rating == average {
		return nil
	}
	l.Rating = average
	l.UpdatedAt = now.UTC()
	l.Record(ListingRated{ListingID: l.ID, Rating: average, At: l.UpdatedAt})
	return nil
}

func (l *Listing) MarkDeleted(now time.Time) {
	l.Record(ListingDeleted{ListingID: l.ID, OwnerID: l.Owner, At: now.UTC()})
}

func (l *Listing) OwnedBy(caller OwnerID) bool {
	return caller != "" && l.Owner == caller
}

// Validate checks the invariants that must hold before persistence.
func (l *Listing) Validate() error {
	if l.CoverImage != "" && !slices.Contains(l.Images, l.CoverImage) {
		return ErrCoverNotInImages
	}
	if l.Rating < 0 || l.Rating > 5 {
		return ErrRatingRange
	}
	return l.Capacity.Validate()
}

func normalizeDaysLimit(limit *int) int {
	if limit == nil || *limit <= 0 {
		return UnlimitedStay
	}
	return *limit
}

// totalsError reports prices too large to compute as a field error.
func totalsError(err error) error {
	if errors.Is(err, money.ErrOverflow) {
		return apperr.Field("price_per_night", err)
	}
	return err
}
