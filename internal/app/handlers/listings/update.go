package listings

import (
	"context"
	"log/slog"
	"time"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/images"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainlistings "quickhost/internal/domain/listings"
	"quickhost/internal/domain/pricing"
	"quickhost/internal/domain/shared/apperr"
)

// UpdateListingCommand is a partial update. Images is acted on only when
// ImagesSupplied is set: an empty list clears every stored image, a non-empty
// one appends its uploads to the current list.
type UpdateListingCommand struct {
	CallerID       string
	ListingID      string
	Fields         domainlistings.UpdateListingFields
	ImagesSupplied bool
	Images         []images.ImageInput
	CoverIndex     *string
}

func (c UpdateListingCommand) Key() string    { return updateListingKey }
func (c UpdateListingCommand) Caller() string { return c.CallerID }

func (c UpdateListingCommand) Validate() error {
	return apperr.Merge(c.Fields.Validate(), images.ValidateUploads(images.Uploads(c.Images)))
}

type UpdateListingHandler struct {
	UoWFactory uow.UoWFactory
	Images     *images.Manager
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Commission pricing.Commission
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (dto.Listing, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit
	now := support.Now(h.Now)

	listing, err := loadOwned(ctx, unit, cmd.ListingID, cmd.CallerID)
	if err != nil {
		return dto.Listing{}, err
	}
	if err := listing.ApplyUpdate(cmd.Fields, commissionOrDefault(h.Commission), now); err != nil {
		return dto.Listing{}, err
	}

	refs, cover := listing.Images, listing.CoverImage
	index := ""
	if cmd.CoverIndex != nil {
		index = *cmd.CoverIndex
	}
	if cmd.ImagesSupplied {
		manager := managerOrEmpty(h.Images)
		refs, err = manager.ApplyUpdate(ctx, string(listing.ID), listing.Images, cmd.Images)
		if err != nil {
			return dto.Listing{}, err
		}
		if len(refs) > len(listing.Images) {
			discardOnRollback(ctx, manager, string(listing.ID), refs[len(listing.Images):])
		}
		cover = images.ReassignCover(refs, listing.CoverImage, index)
	} else if cmd.CoverIndex != nil {
		cover = images.ReassignCover(refs, listing.CoverImage, index)
	}
	if err := listing.SetImages(refs, cover, now); err != nil {
		return dto.Listing{}, err
	}
	if err := listing.Validate(); err != nil {
		return dto.Listing{}, err
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return dto.Listing{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return dto.Listing{}, err
	}
	if err := managed.Commit(); err != nil {
		return dto.Listing{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing updated", "listing_id", listing.ID, "user_id", cmd.CallerID, "images", len(listing.Images), "price_changed", cmd.Fields.PriceChanged())
	}
	return dto.MapListing(listing), nil
}

// SetListingActiveCommand toggles a listing between active and inactive.
type SetListingActiveCommand struct {
	CallerID  string
	ListingID string
	Active    bool
}

func (c SetListingActiveCommand) Key() string    { return setListingActiveKey }
func (c SetListingActiveCommand) Caller() string { return c.CallerID }

type SetListingActiveHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SetListingActiveHandler) Handle(ctx context.Context, cmd SetListingActiveCommand) (dto.Listing, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit

	listing, err := loadOwned(ctx, unit, cmd.ListingID, cmd.CallerID)
	if err != nil {
		return dto.Listing{}, err
	}
	if listing.Active == cmd.Active {
		return dto.MapListing(listing), nil
	}
	listing.SetActive(cmd.Active, support.Now(h.Now))
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return dto.Listing{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return dto.Listing{}, err
	}
	if err := managed.Commit(); err != nil {
		return dto.Listing{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing activity changed", "listing_id", listing.ID, "user_id", cmd.CallerID, "active", cmd.Active)
	}
	return dto.MapListing(listing), nil
}

// loadOwned fetches a listing and rejects callers other than its owner before
// anything is written.
func loadOwned(ctx context.Context, unit uow.UnitOfWork, listingID, callerID string) (*domainlistings.Listing, error) {
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, support.NotFound(err, domainlistings.ErrNotFound, "listing", listingID)
	}
	if !listing.OwnedBy(domainlistings.OwnerID(callerID)) {
		return nil, apperr.Permission("listing %s is not owned by caller", listingID)
	}
	return listing, nil
}

var _ commands.Handler[UpdateListingCommand, dto.Listing] = (*UpdateListingHandler)(nil)
var _ commands.Handler[SetListingActiveCommand, dto.Listing] = (*SetListingActiveHandler)(nil)
