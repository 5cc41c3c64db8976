package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainfavorites "quickhost/internal/domain/favorites"
	"quickhost/internal/domain/listings"
)

// FavoriteRepository relies on a unique (user_id, listing_id) index, so a
// duplicate is rejected even when two requests race.
type FavoriteRepository struct {
	col *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	col := db.Collection(favoritesCollection)
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
	})
	return &FavoriteRepository{col: col}
}

func (r *FavoriteRepository) ByID(ctx context.Context, id domainfavorites.FavoriteID) (*domainfavorites.Favorite, error) {
	var doc favoriteDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainfavorites.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *FavoriteRepository) ByPair(ctx context.Context, userID string, listingID listings.ListingID) (*domainfavorites.Favorite, error) {
	var doc favoriteDocument
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID, "listing_id": string(listingID)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainfavorites.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *FavoriteRepository) Insert(ctx context.Context, favorite *domainfavorites.Favorite) error {
	_, err := r.col.InsertOne(ctx, favoriteDocument{
		ID:        string(favorite.ID),
		UserID:    favorite.UserID,
		ListingID: string(favorite.ListingID),
		CreatedAt: favorite.CreatedAt.UnixMilli(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return domainfavorites.ErrDuplicate
	}
	return err
}

func (r *FavoriteRepository) Delete(ctx context.Context, id domainfavorites.FavoriteID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

func (r *FavoriteRepository) DeleteByListing(ctx context.Context, listingID listings.ListingID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"listing_id": string(listingID)})
	return err
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]*domainfavorites.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*domainfavorites.Favorite, 0)
	for cur.Next(ctx) {
		var doc favoriteDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type favoriteDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	ListingID string `bson:"listing_id"`
	CreatedAt int64  `bson:"created_at"`
}

func (d favoriteDocument) toAggregate() *domainfavorites.Favorite {
	return &domainfavorites.Favorite{
		ID:        domainfavorites.FavoriteID(d.ID),
		UserID:    d.UserID,
		ListingID: listings.ListingID(d.ListingID),
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

var _ domainfavorites.Repository = (*FavoriteRepository)(nil)
