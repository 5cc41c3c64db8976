package uow

import (
	"context"
	"sync"
)

// rollbackHooks collects cleanups for side effects that live outside the unit,
// such as blobs written before the commit.
type rollbackHooks struct {
	mu  sync.Mutex
	fns []func()
}

type hooksKey struct{}

func withRollbackHooks(ctx context.Context) context.Context {
	return context.WithValue(ctx, hooksKey{}, &rollbackHooks{})
}

// OnRollback registers fn to run when the unit carried by ctx is rolled back,
// including after a failed commit. It reports false when ctx carries no unit.
func OnRollback(ctx context.Context, fn func()) bool {
	hooks, ok := ctx.Value(hooksKey{}).(*rollbackHooks)
	if !ok || fn == nil {
		return false
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
	return true
}

// Rollback rolls unit back and then runs the hooks registered on ctx, newest
// first. Hooks run once.
func Rollback(ctx context.Context, unit UnitOfWork) error {
	err := unit.Rollback(ctx)
	hooks, ok := ctx.Value(hooksKey{}).(*rollbackHooks)
	if !ok {
		return err
	}
	hooks.mu.Lock()
	fns := hooks.fns
	hooks.fns = nil
	hooks.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
	return err
}
