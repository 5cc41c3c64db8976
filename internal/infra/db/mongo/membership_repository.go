package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickhost/internal/domain/membership"
)

// MembershipRepository stores one document per (relation, owner, member) pair.
// Members come back in insertion order.
type MembershipRepository struct {
	col *mongo.Collection
}

func NewMembershipRepository(db *mongo.Database) *MembershipRepository {
	col := db.Collection(membershipsCollection)
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "relation", Value: 1}, {Key: "member", Value: 1}}},
		{Keys: bson.D{{Key: "relation", Value: 1}, {Key: "owner", Value: 1}, {Key: "added_at", Value: 1}}},
	})
	return &MembershipRepository{col: col}
}

func membershipID(rel membership.Relation, owner, member string) string {
	return string(rel) + ":" + owner + ":" + member
}

func (r *MembershipRepository) Add(ctx context.Context, rel membership.Relation, owner, member string) error {
	if !rel.Valid() {
		return membership.ErrUnknown
	}
	id := membershipID(rel, owner, member)
	update := bson.M{"$setOnInsert": bson.M{
		"_id":      id,
		"relation": string(rel),
		"owner":    owner,
		"member":   member,
		"added_at": time.Now().UnixNano(),
	}}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	return err
}

func (r *MembershipRepository) Remove(ctx context.Context, rel membership.Relation, owner, member string) error {
	if !rel.Valid() {
		return membership.ErrUnknown
	}
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": membershipID(rel, owner, member)})
	return err
}

func (r *MembershipRepository) Members(ctx context.Context, rel membership.Relation, owner string) ([]string, error) {
	if !rel.Valid() {
		return nil, membership.ErrUnknown
	}
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "_id", Value: 1}}).SetProjection(bson.M{"member": 1})
	cur, err := r.col.Find(ctx, bson.M{"relation": string(rel), "owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]string, 0)
	for cur.Next(ctx) {
		var doc struct {
			Member string `bson:"member"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Member)
	}
	return out, cur.Err()
}

func (r *MembershipRepository) Contains(ctx context.Context, rel membership.Relation, owner, member string) (bool, error) {
	if !rel.Valid() {
		return false, membership.ErrUnknown
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": membershipID(rel, owner, member)}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *MembershipRepository) RemoveOwner(ctx context.Context, rel membership.Relation, owner string) error {
	if !rel.Valid() {
		return membership.ErrUnknown
	}
	_, err := r.col.DeleteMany(ctx, bson.M{"relation": string(rel), "owner": owner})
	return err
}

func (r *MembershipRepository) RemoveMember(ctx context.Context, rel membership.Relation, member string) error {
	if !rel.Valid() {
		return membership.ErrUnknown
	}
	_, err := r.col.DeleteMany(ctx, bson.M{"relation": string(rel), "member": member})
	return err
}

var _ membership.Repository = (*MembershipRepository)(nil)
