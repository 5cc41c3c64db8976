// Package wiring registers every command and query handler on the in-memory
// buses and wraps them with the middleware pipeline.
package wiring

import (
	"log/slog"
	"time"

	"quickhost/internal/app/commands"
	bookingapp "quickhost/internal/app/handlers/bookings"
	favoriteapp "quickhost/internal/app/handlers/favorites"
	listingapp "quickhost/internal/app/handlers/listings"
	reviewapp "quickhost/internal/app/handlers/reviews"
	"quickhost/internal/app/images"
	"quickhost/internal/app/middleware"
	"quickhost/internal/app/outbox"
	"quickhost/internal/app/queries"
	"quickhost/internal/app/uow"
	"quickhost/internal/domain/pricing"
)

type Deps struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Images      *images.Manager
	Commission  pricing.Commission
	Logger      *slog.Logger
	Now         func() time.Time
	NewID       func() string
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Build registers the handlers. Commands run through idempotency,
// authorization, validation and a shared unit of work in that order.
func Build(d Deps) Buses {
	commandBus := commands.NewInMemoryBus()

	commands.RegisterHandler(commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{
		UoWFactory: d.UoWFactory, Images: d.Images, Outbox: d.Outbox, Encoder: d.Encoder,
		Commission: d.Commission, Logger: d.Logger, Now: d.Now, NewID: d.NewID,
	})
	commands.RegisterHandler(commandBus, listingapp.UpdateListingCommand{}.Key(), &listingapp.UpdateListingHandler{
		UoWFactory: d.UoWFactory, Images: d.Images, Outbox: d.Outbox, Encoder: d.Encoder,
		Commission: d.Commission, Logger: d.Logger, Now: d.Now,
	})
	commands.RegisterHandler(commandBus, listingapp.SetListingActiveCommand{}.Key(), &listingapp.SetListingActiveHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now,
	})
	commands.RegisterHandler(commandBus, listingapp.DeleteListingCommand{}.Key(), &listingapp.DeleteListingHandler{
		UoWFactory: d.UoWFactory, Images: d.Images, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now,
	})

	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now, NewID: d.NewID,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateBookingCommand{}.Key(), &bookingapp.UpdateBookingHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now,
	})
	commands.RegisterHandler(commandBus, bookingapp.DeleteBookingCommand{}.Key(), &bookingapp.DeleteBookingHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now,
	})

	commands.RegisterHandler(commandBus, reviewapp.CreateReviewCommand{}.Key(), &reviewapp.CreateReviewHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now, NewID: d.NewID,
	})
	commands.RegisterHandler(commandBus, reviewapp.UpdateReviewCommand{}.Key(), &reviewapp.UpdateReviewHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now,
	})
	commands.RegisterHandler(commandBus, reviewapp.DeleteReviewCommand{}.Key(), &reviewapp.DeleteReviewHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now,
	})

	commands.RegisterHandler(commandBus, favoriteapp.AddFavoriteCommand{}.Key(), &favoriteapp.AddFavoriteHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now, NewID: d.NewID,
	})
	commands.RegisterHandler(commandBus, favoriteapp.RemoveFavoriteCommand{}.Key(), &favoriteapp.RemoveFavoriteHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Logger: d.Logger, Now: d.Now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, listingapp.GetListingQuery{}.Key(), &listingapp.GetListingHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler(queryBus, listingapp.ListListingsQuery{}.Key(), &listingapp.ListListingsHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler(queryBus, reviewapp.ListListingReviewsQuery{}.Key(), &reviewapp.ListListingReviewsHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler(queryBus, bookingapp.ListUserBookingsQuery{}.Key(), &bookingapp.ListUserBookingsHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler(queryBus, favoriteapp.ListFavoritesQuery{}.Key(), &favoriteapp.ListFavoritesHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})

	cmdMiddleware := []middleware.CommandMiddleware{}
	if d.Idempotency != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.Idempotency(d.Idempotency, nil))
	}
	cmdMiddleware = append(cmdMiddleware,
		middleware.Authorization(middleware.CallerRequired{}),
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Transaction(d.UoWFactory, nil),
		middleware.OutboxFlush(d.Outbox),
	)

	return Buses{
		Commands: middleware.ChainCommands(commandBus, cmdMiddleware...),
		Queries: middleware.ChainQueries(queryBus,
			middleware.QueryAuthorization(middleware.CallerRequired{}),
			middleware.QueryValidation(middleware.SelfValidator{}),
		),
	}
}
