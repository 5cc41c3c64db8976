package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type queue struct {
	docs   []*EventDocument
	sent   []string
	failed map[string]string
}

func (q *queue) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	for _, doc := range q.docs {
		if doc.State == "NEW" {
			doc.State = "CLAIMED"
			doc.ClaimedBy = workerID
			return doc, nil
		}
	}
	return nil, nil
}

func (q *queue) MarkSent(ctx context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *queue) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	if q.failed == nil {
		q.failed = map[string]string{}
	}
	q.failed[id] = errMsg
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type recorder struct {
	out  []published
	fail bool
}

func (r *recorder) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if r.fail {
		return errors.New("broker down")
	}
	r.out = append(r.out, published{topic, key, payload, headers})
	return nil
}

func doc(id, name, payload string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(payload),
		Aggregate:  "listing-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
		State:      "NEW",
		OccurredAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWorkerPublishesCloudEvents(t *testing.T) {
	q := &queue{docs: []*EventDocument{
		doc("e1", "listing.created", `{"ListingID":"listing-1"}`),
		doc("e2", "booking.created", `{"BookingID":"booking-1"}`),
	}}
	producer := &recorder{}
	w := &Worker{Store: q, Producer: producer, TopicPrefix: "qh."}

	if err := w.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(producer.out) != 2 || len(q.sent) != 2 {
		t.Fatalf("published %d, sent %d", len(producer.out), len(q.sent))
	}
	first := producer.out[0]
	if first.topic != "qh.listing.events.v1" || first.key != "listing-1" {
		t.Fatalf("unexpected routing %s/%s", first.topic, first.key)
	}
	if producer.out[1].topic != "qh.booking.events.v1" {
		t.Fatalf("unexpected topic %s", producer.out[1].topic)
	}
	if first.headers["content-type"] != "application/cloudevents+json" {
		t.Fatalf("headers %v", first.headers)
	}
	var envelope map[string]any
	if err := json.Unmarshal(first.payload, &envelope); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if envelope["type"] != "listing.created.v1" || envelope["source"] != "app://quickhost" || envelope["traceparent"] != "00-abc-def-01" {
		t.Fatalf("envelope %v", envelope)
	}
	data, _ := envelope["data"].(map[string]any)
	if data["ListingID"] != "listing-1" {
		t.Fatalf("data %v", envelope["data"])
	}
}

func TestWorkerMarksFailures(t *testing.T) {
	q := &queue{docs: []*EventDocument{
		doc("bad", "listing.updated", `not json`),
		doc("e2", "review.submitted", `{}`),
	}}
	producer := &recorder{fail: true}
	w := &Worker{Store: q, Producer: producer, Backoff: []time.Duration{time.Minute}}

	if err := w.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, ok := q.failed["bad"]; !ok {
		t.Fatal("malformed record should be marked failed")
	}
	if err := w.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if q.failed["e2"] != "broker down" {
		t.Fatalf("publish failure not recorded: %v", q.failed)
	}
	if len(q.sent) != 0 {
		t.Fatalf("nothing should be sent, got %v", q.sent)
	}
}

func TestWorkerRequiresDependencies(t *testing.T) {
	if err := (&Worker{}).Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("expected ErrWorkerNotConfigured, got %v", err)
	}
}

func TestWorkerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Worker{Store: &queue{}, Producer: LogProducer{}, Interval: time.Millisecond}
	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
