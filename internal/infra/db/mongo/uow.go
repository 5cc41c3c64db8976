package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"quickhost/internal/app/uow"
	domainbooking "quickhost/internal/domain/booking"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	domainreviews "quickhost/internal/domain/reviews"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Repositories are stateless; the session travels in the context returned by
// InjectContext.
type Factory struct {
	DB *mongo.Database

	ListingsRepo    domainlistings.Repository
	BookingsRepo    domainbooking.Repository
	ReviewsRepo     domainreviews.Repository
	FavoritesRepo   domainfavorites.Repository
	MembershipsRepo domainmembership.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds every repository over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:              db,
		ListingsRepo:    NewListingRepository(db),
		BookingsRepo:    NewBookingRepository(db),
		ReviewsRepo:     NewReviewRepository(db),
		FavoritesRepo:   NewFavoriteRepository(db),
		MembershipsRepo: NewMembershipRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{session: session, repos: f}, nil
}

type Unit struct {
	session mongo.Session
	repos   Factory
}

func (u *Unit) Listings() domainlistings.Repository      { return u.repos.ListingsRepo }
func (u *Unit) Bookings() domainbooking.Repository       { return u.repos.BookingsRepo }
func (u *Unit) Reviews() domainreviews.Repository        { return u.repos.ReviewsRepo }
func (u *Unit) Favorites() domainfavorites.Repository    { return u.repos.FavoritesRepo }
func (u *Unit) Memberships() domainmembership.Repository { return u.repos.MembershipsRepo }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
