package favorites

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/support"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/queries"
	"quickhost/internal/app/uow"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	"quickhost/internal/domain/shared/apperr"
)

const (
	addFavoriteKey    = "favorites.add"
	removeFavoriteKey = "favorites.remove"
	listFavoritesKey  = "favorites.list"
)

type AddFavoriteCommand struct {
	UserID    string
	ListingID string
}

func (c AddFavoriteCommand) Key() string    { return addFavoriteKey }
func (c AddFavoriteCommand) Caller() string { return c.UserID }

type AddFavoriteHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Handle bookmarks a listing. A second favorite for the same pair is rejected
// as a conflict on the accommodation field.
func (h *AddFavoriteHandler) Handle(ctx context.Context, cmd AddFavoriteCommand) (dto.Favorite, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Favorite{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit

	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := unit.Listings().ByID(ctx, listingID); err != nil {
		return dto.Favorite{}, support.NotFound(err, domainlistings.ErrNotFound, "listing", cmd.ListingID)
	}
	favorite, err := domainfavorites.New(domainfavorites.FavoriteID(h.newID()), cmd.UserID, listingID, support.Now(h.Now))
	if err != nil {
		return dto.Favorite{}, apperr.Field("accommodation", err)
	}
	if err := unit.Favorites().Insert(ctx, favorite); err != nil {
		if errors.Is(err, domainfavorites.ErrDuplicate) {
			return dto.Favorite{}, duplicate()
		}
		return dto.Favorite{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, favorite); err != nil {
		return dto.Favorite{}, err
	}
	if err := managed.Commit(); err != nil {
		if errors.Is(err, domainfavorites.ErrDuplicate) {
			return dto.Favorite{}, duplicate()
		}
		return dto.Favorite{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("favorite added", "favorite_id", favorite.ID, "listing_id", favorite.ListingID, "user_id", favorite.UserID)
	}
	return dto.MapFavorite(favorite), nil
}

func (h *AddFavoriteHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func duplicate() error {
	return apperr.Field("accommodation", domainfavorites.ErrDuplicate)
}

type RemoveFavoriteCommand struct {
	UserID     string
	FavoriteID string
}

func (c RemoveFavoriteCommand) Key() string    { return removeFavoriteKey }
func (c RemoveFavoriteCommand) Caller() string { return c.UserID }

type RemoveFavoriteHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *RemoveFavoriteHandler) Handle(ctx context.Context, cmd RemoveFavoriteCommand) (struct{}, error) {
	managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer managed.Close()
	ctx = managed.Ctx
	unit := managed.Unit

	favorite, err := unit.Favorites().ByID(ctx, domainfavorites.FavoriteID(cmd.FavoriteID))
	if err != nil {
		return struct{}{}, support.NotFound(err, domainfavorites.ErrNotFound, "favorite", cmd.FavoriteID)
	}
	if favorite.UserID != cmd.UserID {
		return struct{}{}, apperr.Permission("favorite %s belongs to another user", cmd.FavoriteID)
	}
	if err := unit.Favorites().Delete(ctx, favorite.ID); err != nil {
		return struct{}{}, err
	}
	favorite.MarkRemoved(support.Now(h.Now))
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, favorite); err != nil {
		return struct{}{}, err
	}
	if err := managed.Commit(); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("favorite removed", "favorite_id", favorite.ID, "listing_id", favorite.ListingID, "user_id", cmd.UserID)
	}
	return struct{}{}, nil
}

type ListFavoritesQuery struct {
	UserID string
}

func (q ListFavoritesQuery) Key() string    { return listFavoritesKey }
func (q ListFavoritesQuery) Caller() string { return q.UserID }

type ListFavoritesHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) (dto.FavoriteCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.FavoriteCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Favorites().ListByUser(execCtx, q.UserID)
	if err != nil {
		return dto.FavoriteCollection{}, err
	}
	out := dto.FavoriteCollection{Items: make([]dto.Favorite, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, dto.MapFavorite(item))
	}
	return out, nil
}

var _ commands.Handler[AddFavoriteCommand, dto.Favorite] = (*AddFavoriteHandler)(nil)
var _ commands.Handler[RemoveFavoriteCommand, struct{}] = (*RemoveFavoriteHandler)(nil)
var _ queries.Handler[ListFavoritesQuery, dto.FavoriteCollection] = (*ListFavoritesHandler)(nil)
