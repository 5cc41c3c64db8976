package listings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/images"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	"quickhost/internal/domain/pricing"
	"quickhost/internal/domain/shared/apperr"
)

const (
	createListingKey    = "listings.create"
	updateListingKey    = "listings.update"
	deleteListingKey    = "listings.delete"
	setListingActiveKey = "listings.set_active"
)

// CreateListingCommand carries the owner's payload. CoverIndex is an index
// into the stored image list; anything invalid leaves the listing without a cover.
type CreateListingCommand struct {
	OwnerID    string
	Fields     domainlistings.CreateListingFields
	Images     []images.Upload
	CoverIndex string
}

func (c CreateListingCommand) Key() string    { return createListingKey }
func (c CreateListingCommand) Caller() string { return c.OwnerID }

func (c CreateListingCommand) Validate() error {
	return apperr.Merge(c.Fields.Normalized().Validate(), images.ValidateUploads(c.Images))
}

type CreateListingHandler struct {
	UoWFactory uow.UoWFactory
	Images     *images.Manager
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Commission pricing.Commission
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Handle stores the uploads first and then writes the listing, its images and
// the owner registration in one unit of work. If the unit is rolled back the
// stored blobs are removed on a best-effort basis.
func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (dto.Listing, error) {
	if strings.TrimSpace(cmd.OwnerID) == "" {
		return dto.Listing{}, apperr.Permission("owner required")
	}
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit
	now := support.Now(h.Now)

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:         domainlistings.ListingID(h.newID()),
		Owner:      domainlistings.OwnerID(cmd.OwnerID),
		Fields:     cmd.Fields,
		Commission: commissionOrDefault(h.Commission),
		Now:        now,
	})
	if err != nil {
		return dto.Listing{}, err
	}

	manager := managerOrEmpty(h.Images)
	refs, err := manager.StoreUploads(ctx, string(listing.ID), cmd.Images)
	if err != nil {
		return dto.Listing{}, err
	}
	discardOnRollback(ctx, manager, string(listing.ID), refs)

	if err := listing.SetImages(refs, images.SelectCover(refs, cmd.CoverIndex), now); err != nil {
		return dto.Listing{}, err
	}
	if err := listing.Validate(); err != nil {
		return dto.Listing{}, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return dto.Listing{}, err
	}
	if err := domainmembership.LinkListing(ctx, unit.Memberships(), cmd.OwnerID, string(listing.ID)); err != nil {
		return dto.Listing{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return dto.Listing{}, err
	}
	if err := managed.Commit(); err != nil {
		return dto.Listing{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "user_id", cmd.OwnerID, "images", len(refs), "cover", listing.CoverImage != "")
	}
	return dto.MapListing(listing), nil
}

func (h *CreateListingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func commissionOrDefault(c pricing.Commission) pricing.Commission {
	if c.MinRate == nil || c.MaxRate == nil {
		return pricing.DefaultCommission
	}
	return c
}

func managerOrEmpty(m *images.Manager) *images.Manager {
	if m == nil {
		return &images.Manager{}
	}
	return m
}

// discardOnRollback removes refs again if the unit in ctx never commits,
// whether the handler or the Transaction middleware owns it.
func discardOnRollback(ctx context.Context, manager *images.Manager, listingID string, refs []string) {
	if len(refs) == 0 {
		return
	}
	uow.OnRollback(ctx, func() {
		manager.Discard(context.WithoutCancel(ctx), listingID, refs)
	})
}

var _ commands.Handler[CreateListingCommand, dto.Listing] = (*CreateListingHandler)(nil)
