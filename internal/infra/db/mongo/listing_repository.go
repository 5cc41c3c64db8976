package mongo

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "quickhost/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection(listingsCollection)
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainlistings.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

// Save upserts by id. Concurrent writers are not coordinated, the last
// write wins.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	doc.Version = listing.Version + 1
	if _, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true)); err != nil {
		return err
	}
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

func (r *ListingRepository) List(ctx context.Context, filter domainlistings.ListFilter) ([]*domainlistings.Listing, error) {
	opts := filter.Normalized()
	query := bson.M{}
	if opts.Owner != "" {
		query["owner_id"] = string(opts.Owner)
	}
	if opts.OnlyActive {
		query["active"] = true
	}
	if opts.City != "" {
		query["address.city"] = bson.M{"$regex": "^" + regexp.QuoteMeta(opts.City) + "$", "$options": "i"}
	}
	if opts.Category != "" {
		query["category"] = string(opts.Category)
	}
	find := options.Find().
		SetSort(listingSort(opts.Sort)).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, query, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*domainlistings.Listing, 0)
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func listingSort(sort domainlistings.ListSort) bson.D {
	newest := bson.E{Key: "created_at", Value: -1}
	byID := bson.E{Key: "_id", Value: 1}
	switch sort {
	case domainlistings.SortPriceAsc:
		return bson.D{{Key: "nightly_rate.amount", Value: 1}, newest, byID}
	case domainlistings.SortPriceDesc:
		return bson.D{{Key: "nightly_rate.amount", Value: -1}, newest, byID}
	case domainlistings.SortRating:
		return bson.D{{Key: "rating", Value: -1}, newest, byID}
	default:
		return bson.D{newest, byID}
	}
}

type listingDocument struct {
	ID                   string            `bson:"_id"`
	OwnerID              string            `bson:"owner_id"`
	Title                string            `bson:"title"`
	Description          string            `bson:"description"`
	Category             string            `bson:"category"`
	SpaceType            string            `bson:"space_type"`
	Address              addressDocument   `bson:"address"`
	Capacity             capacityDocument  `bson:"capacity"`
	Amenities            amenitiesDocument `bson:"amenities"`
	Discount             bool              `bson:"discount"`
	ConsecutiveDaysLimit int               `bson:"consecutive_days_limit"`
	NightlyRate          moneyDocument     `bson:"nightly_rate"`
	CleaningFee          moneyDocument     `bson:"cleaning_fee"`
	TotalNightlyCost     moneyDocument     `bson:"total_nightly_cost"`
	EffectiveNightlyRate moneyDocument     `bson:"effective_nightly_rate"`
	Images               []string          `bson:"images"`
	CoverImage           string            `bson:"cover_image"`
	Active               bool              `bson:"active"`
	Rating               float64           `bson:"rating"`
	CreatedAt            int64             `bson:"created_at"`
	UpdatedAt            int64             `bson:"updated_at"`
	Version              int64             `bson:"version"`
}

type addressDocument struct {
	Street       string `bson:"street"`
	City         string `bson:"city"`
	Neighborhood string `bson:"neighborhood"`
	PostalCode   string `bson:"postal_code"`
	UF           string `bson:"uf"`
}

type capacityDocument struct {
	Rooms     int `bson:"rooms"`
	Beds      int `bson:"beds"`
	Bathrooms int `bson:"bathrooms"`
	Guests    int `bson:"guests"`
}

type amenitiesDocument struct {
	WiFi             bool `bson:"wifi"`
	TV               bool `bson:"tv"`
	Kitchen          bool `bson:"kitchen"`
	WashingMachine   bool `bson:"washing_machine"`
	ParkingIncluded  bool `bson:"parking_included"`
	AirConditioning  bool `bson:"air_conditioning"`
	Pool             bool `bson:"pool"`
	Jacuzzi          bool `bson:"jacuzzi"`
	Grill            bool `bson:"grill"`
	PrivateGym       bool `bson:"private_gym"`
	BeachAccess      bool `bson:"beach_access"`
	SmokeDetector    bool `bson:"smoke_detector"`
	FireExtinguisher bool `bson:"fire_extinguisher"`
	FirstAidKit      bool `bson:"first_aid_kit"`
	OutdoorCamera    bool `bson:"outdoor_camera"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return listingDocument{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		Title:       l.Title,
		Description: l.Description,
		Category:    string(l.Category),
		SpaceType:   string(l.SpaceType),
		Address: addressDocument{
			Street:       l.Address.Street,
			City:         l.Address.City,
			Neighborhood: l.Address.Neighborhood,
			PostalCode:   l.Address.PostalCode,
			UF:           l.Address.UF,
		},
		Capacity: capacityDocument{
			Rooms:     l.Capacity.Rooms,
			Beds:      l.Capacity.Beds,
			Bathrooms: l.Capacity.Bathrooms,
			Guests:    l.Capacity.Guests,
		},
		Amenities:            amenitiesDocument(l.Amenities),
		Discount:             l.Discount,
		ConsecutiveDaysLimit: l.ConsecutiveDaysLimit,
		NightlyRate:          newMoneyDocument(l.NightlyRate),
		CleaningFee:          newMoneyDocument(l.CleaningFee),
		TotalNightlyCost:     newMoneyDocument(l.TotalNightlyCost),
		EffectiveNightlyRate: newMoneyDocument(l.EffectiveNightlyRate),
		Images:               images,
		CoverImage:           l.CoverImage,
		Active:               l.Active,
		Rating:               l.Rating,
		CreatedAt:            l.CreatedAt.UnixMilli(),
		UpdatedAt:            l.UpdatedAt.UnixMilli(),
		Version:              l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Owner:       domainlistings.OwnerID(d.OwnerID),
		Title:       d.Title,
		Description: d.Description,
		Category:    domainlistings.Category(d.Category),
		SpaceType:   domainlistings.SpaceType(d.SpaceType),
		Address: domainlistings.Address{
			Street:       d.Address.Street,
			City:         d.Address.City,
			Neighborhood: d.Address.Neighborhood,
			PostalCode:   d.Address.PostalCode,
			UF:           d.Address.UF,
		},
		Capacity: domainlistings.Capacity{
			Rooms:     d.Capacity.Rooms,
			Beds:      d.Capacity.Beds,
			Bathrooms: d.Capacity.Bathrooms,
			Guests:    d.Capacity.Guests,
		},
		Amenities:            domainlistings.Amenities(d.Amenities),
		Discount:             d.Discount,
		ConsecutiveDaysLimit: d.ConsecutiveDaysLimit,
		NightlyRate:          d.NightlyRate.toMoney(),
		CleaningFee:          d.CleaningFee.toMoney(),
		TotalNightlyCost:     d.TotalNightlyCost.toMoney(),
		EffectiveNightlyRate: d.EffectiveNightlyRate.toMoney(),
		Images:               images,
		CoverImage:           d.CoverImage,
		Active:               d.Active,
		Rating:               d.Rating,
		CreatedAt:            timestampToTime(d.CreatedAt),
		UpdatedAt:            timestampToTime(d.UpdatedAt),
		Version:              d.Version,
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
