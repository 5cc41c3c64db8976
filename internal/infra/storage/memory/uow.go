package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	domainbooking "quickhost/internal/domain/booking"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	domainreviews "quickhost/internal/domain/reviews"
)

var (
	ErrReadOnly   = errors.New("memory: write in read-only unit of work")
	ErrUnitClosed = errors.New("memory: unit of work already finished")
)

// Store holds the committed state shared by every unit of work.
type Store struct {
	mu      sync.Mutex
	current *state
	events  *Outbox
}

func NewStore() *Store {
	return &Store{current: newState(), events: NewOutbox()}
}

// Outbox returns the event queue fed by committed units of work.
func (s *Store) Outbox() *Outbox {
	return s.events
}

// Factory begins units of work over a Store. Each unit reads its own snapshot
// and replays its writes onto the latest state at commit, so concurrent units
// resolve per entity as last write wins.
type Factory struct {
	Store *Store
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.Store.mu.Lock()
	view := f.Store.current.clone()
	f.Store.mu.Unlock()
	return &Unit{store: f.Store, view: view, readOnly: opts.ReadOnly}, nil
}

type op func(*state) error

// Unit is a uow.UnitOfWork over an isolated snapshot.
type Unit struct {
	store    *Store
	view     *state
	ops      []op
	staged   []appoutbox.EventRecord
	readOnly bool
	done     bool
}

func (u *Unit) Listings() domainlistings.Repository      { return listingRepo{u} }
func (u *Unit) Bookings() domainbooking.Repository       { return bookingRepo{u} }
func (u *Unit) Reviews() domainreviews.Repository        { return reviewRepo{u} }
func (u *Unit) Favorites() domainfavorites.Repository    { return favoriteRepo{u} }
func (u *Unit) Memberships() domainmembership.Repository { return membershipRepo{u} }

// Commit applies every recorded write to a copy of the latest state and swaps
// it in only if all of them succeed.
func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if len(u.ops) > 0 {
		u.store.mu.Lock()
		next := u.store.current.clone()
		for _, apply := range u.ops {
			if err := apply(next); err != nil {
				u.store.mu.Unlock()
				return err
			}
		}
		u.store.current = next
		u.store.mu.Unlock()
	}
	if u.store.events != nil {
		u.store.events.enqueue(u.staged...)
	}
	u.staged = nil
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.ops = nil
	u.staged = nil
	return nil
}

func (u *Unit) stage(record appoutbox.EventRecord) error {
	if u.done {
		return ErrUnitClosed
	}
	u.staged = append(u.staged, record)
	return nil
}

func (u *Unit) write(ctx context.Context, apply op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	if err := apply(u.view); err != nil {
		return err
	}
	u.ops = append(u.ops, apply)
	return nil
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
