package support

import (
	"errors"
	"fmt"
	"time"

	"quickhost/internal/domain/shared/apperr"
)

// NotFound lifts a repository miss into apperr.ErrNotFound, keeping the
// domain sentinel in the chain. Other errors pass through.
func NotFound(err, sentinel error, kind, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel) {
		return fmt.Errorf("%w: %s %s: %w", apperr.ErrNotFound, kind, id, sentinel)
	}
	return err
}

// Now reads clock, falling back to the wall clock in UTC.
func Now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock().UTC()
	}
	return time.Now().UTC()
}
