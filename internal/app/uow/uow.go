package uow

import (
	"context"

	domainbooking "quickhost/internal/domain/booking"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	domainreviews "quickhost/internal/domain/reviews"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository
	Favorites() domainfavorites.Repository
	Memberships() domainmembership.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
