package oracle

import (
	"context"
	"errors"
	"testing"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/provider"
)

func encodeUpdate(t *testing.T, u models.Update) []byte {
	t.Helper()
	p, err := provider.Encode(u, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return p
}

func newTestIngestor(t *testing.T, archive *fakeArchive) *Ingestor {
	t.Helper()
	if archive == nil {
		return NewIngestor(provider.NewSynthetic(5), nil, newNopMetrics(), testLogger(t))
	}
	return NewIngestor(provider.NewSynthetic(5), archive, newNopMetrics(), testLogger(t))
}

func TestSubmitUpdatesEmptyBatch(t *testing.T) {
	g := newTestIngestor(t, nil)
	// An empty batch succeeds regardless of fee.
	if err := g.SubmitUpdates(context.Background(), nil, 0); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestSubmitUpdatesCommits(t *testing.T) {
	g := newTestIngestor(t, nil)
	u := models.Update{FeedID: feedID(1), Price: 42, Conf: 3, Expo: -8, EmaPrice: 40, EmaConf: 2, PublishTime: 1000}

	if err := g.SubmitUpdates(context.Background(), [][]byte{encodeUpdate(t, u)}, 5); err != nil {
		t.Fatalf("submit: %v", err)
	}

	spot := g.Observation(feedID(1), false)
	if spot.Price != 42 || spot.PublishTime != 1000 {
		t.Fatalf("unexpected spot %+v", spot)
	}
	ema := g.Observation(feedID(1), true)
	if ema.Price != 40 || ema.Conf != 2 {
		t.Fatalf("unexpected ema %+v", ema)
	}
	if got := g.LastUpdateTime(feedID(1)); got != 1000 {
		t.Fatalf("unexpected last update time %d", got)
	}
}

func TestSubmitUpdatesInsufficientFee(t *testing.T) {
	g := newTestIngestor(t, nil)
	u := models.Update{FeedID: feedID(1), Price: 42, PublishTime: 1000}
	payloads := [][]byte{encodeUpdate(t, u), encodeUpdate(t, u)}

	err := g.SubmitUpdates(context.Background(), payloads, 9) // quote is 10
	if !errors.Is(err, ErrInsufficientFee) {
		t.Fatalf("expected ErrInsufficientFee, got %v", err)
	}
	if got := g.Observation(feedID(1), false); got.PublishTime != 0 {
		t.Fatalf("rejected batch must not commit")
	}
}

func TestSubmitUpdatesExactFee(t *testing.T) {
	g := newTestIngestor(t, nil)
	u := models.Update{FeedID: feedID(1), Price: 42, PublishTime: 1000}
	if err := g.SubmitUpdates(context.Background(), [][]byte{encodeUpdate(t, u), encodeUpdate(t, u)}, 10); err != nil {
		t.Fatalf("exact fee must be accepted: %v", err)
	}
}

func TestSubmitUpdatesAtomicRejection(t *testing.T) {
	g := newTestIngestor(t, nil)
	good := encodeUpdate(t, models.Update{FeedID: feedID(1), Price: 42, PublishTime: 1000})
	bad := []byte("not a payload")

	err := g.SubmitUpdates(context.Background(), [][]byte{good, bad}, 10)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if got := g.Observation(feedID(1), false); got.PublishTime != 0 {
		t.Fatalf("partial batch must not commit any update")
	}
}

func TestSubmitUpdatesOutOfOrderOverwrites(t *testing.T) {
	g := newTestIngestor(t, nil)
	ctx := context.Background()

	newer := encodeUpdate(t, models.Update{FeedID: feedID(1), Price: 50, PublishTime: 2000})
	older := encodeUpdate(t, models.Update{FeedID: feedID(1), Price: 40, PublishTime: 1000})

	if err := g.SubmitUpdates(ctx, [][]byte{newer}, 5); err != nil {
		t.Fatalf("newer: %v", err)
	}
	if err := g.SubmitUpdates(ctx, [][]byte{older}, 5); err != nil {
		t.Fatalf("older: %v", err)
	}

	got := g.Observation(feedID(1), false)
	if got.Price != 40 || got.PublishTime != 1000 {
		t.Fatalf("backdated update must overwrite, got %+v", got)
	}
}

func TestSubmitUpdatesArchives(t *testing.T) {
	arch := &fakeArchive{}
	g := newTestIngestor(t, arch)
	u := models.Update{FeedID: feedID(7), Price: 42, EmaPrice: 41, PublishTime: 1000}

	if err := g.SubmitUpdates(context.Background(), [][]byte{encodeUpdate(t, u)}, 5); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rows := arch.recorded()
	if len(rows) != 1 {
		t.Fatalf("expected 1 archived row, got %d", len(rows))
	}
	if rows[0].FeedID != feedID(7) || rows[0].Spot.Price != 42 || rows[0].Ema.Price != 41 {
		t.Fatalf("unexpected archived row %+v", rows[0])
	}
	if rows[0].ReceivedAt == 0 {
		t.Fatalf("received time must be stamped")
	}
}

func TestSubmitUpdatesArchiveFailureIsBestEffort(t *testing.T) {
	arch := &fakeArchive{fail: true}
	g := newTestIngestor(t, arch)
	u := models.Update{FeedID: feedID(1), Price: 42, PublishTime: 1000}

	if err := g.SubmitUpdates(context.Background(), [][]byte{encodeUpdate(t, u)}, 5); err != nil {
		t.Fatalf("archive failure must not fail the submit: %v", err)
	}
	if got := g.Observation(feedID(1), false); got.Price != 42 {
		t.Fatalf("observation must be committed despite archive failure")
	}
}

func TestConstructSyntheticUpdate(t *testing.T) {
	g := newTestIngestor(t, nil)
	payload, err := g.ConstructSyntheticUpdate(feedID(3), 77, 1, -8, 70, 1, 1234)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	// Round-trip through the ingestor itself.
	if err := g.SubmitUpdates(context.Background(), [][]byte{payload}, 5); err != nil {
		t.Fatalf("submit constructed payload: %v", err)
	}
	got := g.Observation(feedID(3), false)
	if got.Price != 77 || got.PublishTime != 1234 {
		t.Fatalf("unexpected observation %+v", got)
	}
}

func TestConstructSyntheticUpdateGenuineMode(t *testing.T) {
	pub := make([]byte, 32)
	genuine, err := provider.NewGenuine(pub, 5)
	if err != nil {
		t.Fatalf("genuine provider: %v", err)
	}
	g := NewIngestor(genuine, nil, newNopMetrics(), testLogger(t))

	_, err = g.ConstructSyntheticUpdate(feedID(3), 77, 1, -8, 70, 1, 1234)
	if !errors.Is(err, ErrUnsupportedInMode) {
		t.Fatalf("expected ErrUnsupportedInMode, got %v", err)
	}
}

func TestObservationUnknownFeed(t *testing.T) {
	g := newTestIngestor(t, nil)
	if got := g.Observation(feedID(99), false); got != (models.Observation{}) {
		t.Fatalf("unknown feed must read zero-valued, got %+v", got)
	}
	if got := g.LastUpdateTime(feedID(99)); got != 0 {
		t.Fatalf("unknown feed must report publish time 0")
	}
}
