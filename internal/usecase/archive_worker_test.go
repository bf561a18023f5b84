package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"PriceGate/internal/domain/models"
	"PriceGate/pkg/logger"
)

type memArchive struct {
	mu   sync.Mutex
	rows []models.ArchivedObservation
	fail bool
}

func (a *memArchive) Record(_ context.Context, obs models.ArchivedObservation) error {
	if a.fail {
		return errors.New("clickhouse down")
	}
	a.mu.Lock()
	a.rows = append(a.rows, obs)
	a.mu.Unlock()
	return nil
}

func (a *memArchive) History(context.Context, models.FeedID, time.Time, time.Time, int) ([]models.ArchivedObservation, error) {
	return nil, nil
}

func (a *memArchive) Health(context.Context) error { return nil }
func (a *memArchive) Close() error                 { return nil }

type memQueue struct {
	mu       sync.Mutex
	messages []interface{}
	fail     bool
}

func (q *memQueue) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	if q.fail {
		return errors.New("queue down")
	}
	q.mu.Lock()
	q.messages = append(q.messages, payload)
	q.mu.Unlock()
	return nil
}

func workerLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func sampleObservation() models.ArchivedObservation {
	var feed models.FeedID
	feed[31] = 5
	return models.ArchivedObservation{
		FeedID:     feed,
		Spot:       models.Observation{Price: 42, PublishTime: 1000},
		Ema:        models.Observation{Price: 41, PublishTime: 1000},
		ReceivedAt: 1001,
	}
}

func TestQueuedArchiveEnqueues(t *testing.T) {
	inner := &memArchive{}
	q := &memQueue{}
	a := NewQueuedArchive(workerLogger(t), inner, q)

	if err := a.Record(context.Background(), sampleObservation()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(q.messages) != 1 {
		t.Fatalf("expected 1 enqueued message, got %d", len(q.messages))
	}
	if len(inner.rows) != 0 {
		t.Fatalf("queued record must not write directly")
	}
}

func TestQueuedArchiveFallsBackToDirectWrite(t *testing.T) {
	inner := &memArchive{}
	q := &memQueue{fail: true}
	a := NewQueuedArchive(workerLogger(t), inner, q)

	if err := a.Record(context.Background(), sampleObservation()); err != nil {
		t.Fatalf("record with queue down: %v", err)
	}
	if len(inner.rows) != 1 {
		t.Fatalf("queue failure must write directly, got %d rows", len(inner.rows))
	}
}

func TestObservationArchiverHandlesTypedPayload(t *testing.T) {
	inner := &memArchive{}
	j := NewObservationArchiver(workerLogger(t), inner)

	want := sampleObservation()
	if err := j.Handle(context.Background(), want); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(inner.rows) != 1 || inner.rows[0] != want {
		t.Fatalf("unexpected archived rows %+v", inner.rows)
	}
}

func TestObservationArchiverHandlesJSONPayload(t *testing.T) {
	inner := &memArchive{}
	j := NewObservationArchiver(workerLogger(t), inner)

	// Queue messages arrive back as generic JSON maps after a Redis round trip.
	want := sampleObservation()
	raw, _ := json.Marshal(want)
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if err := j.Handle(context.Background(), generic); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(inner.rows) != 1 || inner.rows[0].FeedID != want.FeedID || inner.rows[0].Spot.Price != 42 {
		t.Fatalf("unexpected archived rows %+v", inner.rows)
	}
}

func TestObservationArchiverPropagatesWriteFailure(t *testing.T) {
	j := NewObservationArchiver(workerLogger(t), &memArchive{fail: true})
	if err := j.Handle(context.Background(), sampleObservation()); err == nil {
		t.Fatalf("write failure must propagate for retry")
	}
}

func TestObservationArchiverJobIdentity(t *testing.T) {
	j := NewObservationArchiver(workerLogger(t), &memArchive{})
	if j.Name() == "" || j.Type() != msgTypeObservationAccepted {
		t.Fatalf("unexpected job identity %q %q", j.Name(), j.Type())
	}
}
