package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	infraoutbox "quickhost/internal/infra/outbox"
)

const (
	recordNew     = "NEW"
	recordClaimed = "CLAIMED"
	recordFailed  = "FAILED"
)

// Outbox is an in-process event queue. Records added inside a memory unit of
// work are staged on the unit and only become claimable once it commits.
type Outbox struct {
	mu      sync.Mutex
	records []*infraoutbox.EventDocument
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: func() time.Time { return time.Now().UTC() }}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok && mu.store.events == o {
			return mu.stage(record)
		}
	}
	o.enqueue(record)
	return nil
}

// Flush is a no-op: staged records are published by the owning unit's commit.
func (o *Outbox) Flush(context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range o.records {
		if rec.State == recordClaimed || rec.NextAttempt.After(now) {
			continue
		}
		rec.State = recordClaimed
		rec.ClaimedBy = workerID
		rec.ClaimedAt = now
		out := *rec
		return &out, nil
	}
	return nil, nil
}

// MarkSent drops the record from the queue.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, rec := range o.records {
		if rec.ID == id {
			o.records = append(o.records[:i], o.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range o.records {
		if rec.ID == id {
			rec.State = recordFailed
			rec.NextAttempt = next
			rec.LastError = errMsg
			rec.Attempts++
			return nil
		}
	}
	return nil
}

// Pending returns a copy of the records not yet delivered.
func (o *Outbox) Pending() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, *rec)
	}
	return out
}

func (o *Outbox) enqueue(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, record := range records {
		o.records = append(o.records, &infraoutbox.EventDocument{
			ID:          record.ID,
			Name:        record.Name,
			Payload:     record.Payload,
			OccurredAt:  record.OccurredAt,
			Aggregate:   record.Aggregate,
			Headers:     record.Headers,
			State:       recordNew,
			NextAttempt: now,
		})
	}
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ infraoutbox.Source = (*Outbox)(nil)
