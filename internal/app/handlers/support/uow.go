package support

import (
	"context"

	"quickhost/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already in ctx or opens a read-only one.
// The returned cleanup is nil when the unit was borrowed from ctx.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	newUnit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// Managed is a write unit either borrowed from ctx or owned by the caller.
type Managed struct {
	Unit    uow.UnitOfWork
	Ctx     context.Context
	owned   bool
	settled bool
}

// BeginUnit reuses the unit in ctx (committed by the Transaction middleware) or
// starts one the caller must Commit. Close rolls back an owned unit that was
// never committed, or whose commit failed, and runs its rollback hooks.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (*Managed, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &Managed{Unit: unit, Ctx: ctx}, nil
	}
	unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Managed{Unit: unit, Ctx: execCtx, owned: true}, nil
}

func (m *Managed) Commit() error {
	if !m.owned || m.settled {
		return nil
	}
	if err := m.Unit.Commit(m.Ctx); err != nil {
		return err
	}
	m.settled = true
	return nil
}

func (m *Managed) Close() {
	if !m.owned || m.settled {
		return
	}
	m.settled = true
	_ = uow.Rollback(m.Ctx, m.Unit)
}
