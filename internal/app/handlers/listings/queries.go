package listings

import (
	"context"
	"log/slog"

	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/queries"
	"quickhost/internal/app/uow"
	domainlistings "quickhost/internal/domain/listings"
)

const (
	getListingKey   = "listings.get"
	listListingsKey = "listings.list"
)

type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Listing{}, support.NotFound(err, domainlistings.ErrNotFound, "listing", q.ListingID)
	}
	return dto.MapListing(listing), nil
}

// ListListingsQuery lists the catalog. Inactive listings are only included
// when an owner asks for their own listings.
type ListListingsQuery struct {
	CallerID        string
	OwnerID         string
	City            string
	Category        string
	Sort            string
	IncludeInactive bool
	Limit           int
	Offset          int
}

func (q ListListingsQuery) Key() string { return listListingsKey }

func (q ListListingsQuery) filter() domainlistings.ListFilter {
	ownView := q.OwnerID != "" && q.OwnerID == q.CallerID
	return domainlistings.ListFilter{
		Owner:      domainlistings.OwnerID(q.OwnerID),
		OnlyActive: !(ownView && q.IncludeInactive),
		City:       q.City,
		Category:   domainlistings.Category(q.Category),
		Sort:       domainlistings.ListSort(q.Sort),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}.Normalized()
}

type ListListingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListListingsHandler) Handle(ctx context.Context, q ListListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	filter := q.filter()
	items, err := unit.Listings().List(execCtx, filter)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("listings listed", "owner", filter.Owner, "count", len(items), "only_active", filter.OnlyActive)
	}
	return dto.MapListings(items, filter.Limit, filter.Offset), nil
}

var _ queries.Handler[GetListingQuery, dto.Listing] = (*GetListingHandler)(nil)
var _ queries.Handler[ListListingsQuery, dto.ListingCollection] = (*ListListingsHandler)(nil)
