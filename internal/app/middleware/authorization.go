package middleware

import (
	"context"
	"strings"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/queries"
	"quickhost/internal/domain/shared/apperr"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// CallerCarrier is implemented by messages issued on behalf of a user.
type CallerCarrier interface {
	Caller() string
}

// CallerRequired rejects caller-scoped messages that arrive without an identity.
// Ownership itself is checked by the handlers against the loaded aggregate.
type CallerRequired struct{}

func (CallerRequired) Authorize(ctx context.Context, message any) error {
	carrier, ok := message.(CallerCarrier)
	if !ok {
		return nil
	}
	if strings.TrimSpace(carrier.Caller()) == "" {
		return apperr.Permission("caller identity required")
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
