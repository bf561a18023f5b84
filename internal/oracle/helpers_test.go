package oracle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PriceGate/internal/domain/models"
	"PriceGate/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func feedID(b byte) models.FeedID {
	var f models.FeedID
	f[31] = b
	return f
}

// fakeAuth authorizes a fixed caller key for both roles.
type fakeAuth struct {
	key string
}

func (a fakeAuth) IsAssetListingAdmin(caller string) bool { return caller == a.key }
func (a fakeAuth) IsPoolAdmin(caller string) bool         { return caller == a.key }

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []models.ConfigEvent
	fail   bool
}

func (p *fakePublisher) PublishEvent(_ context.Context, ev models.ConfigEvent) error {
	if p.fail {
		return errors.New("publish failed")
	}
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []models.ConfigEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ConfigEvent, len(p.events))
	copy(out, p.events)
	return out
}

// fakeFallback is an in-memory fallback oracle.
type fakeFallback struct {
	mu     sync.Mutex
	prices map[models.Asset]uint64
	ref    string
	err    error
}

func newFakeFallback(ref string) *fakeFallback {
	return &fakeFallback{prices: make(map[models.Asset]uint64), ref: ref}
}

func (f *fakeFallback) AssetPrice(_ context.Context, asset models.Asset) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prices[asset], nil
}

func (f *fakeFallback) SetAssetPrice(_ context.Context, asset models.Asset, price uint64) error {
	f.mu.Lock()
	f.prices[asset] = price
	f.mu.Unlock()
	return nil
}

func (f *fakeFallback) Ref() string { return f.ref }

// fakeArchive records archived observations.
type fakeArchive struct {
	mu   sync.Mutex
	rows []models.ArchivedObservation
	fail bool
}

func (a *fakeArchive) Record(_ context.Context, obs models.ArchivedObservation) error {
	if a.fail {
		return errors.New("archive down")
	}
	a.mu.Lock()
	a.rows = append(a.rows, obs)
	a.mu.Unlock()
	return nil
}

func (a *fakeArchive) History(context.Context, models.FeedID, time.Time, time.Time, int) ([]models.ArchivedObservation, error) {
	return nil, nil
}

func (a *fakeArchive) Health(context.Context) error { return nil }
func (a *fakeArchive) Close() error                 { return nil }

func (a *fakeArchive) recorded() []models.ArchivedObservation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ArchivedObservation, len(a.rows))
	copy(out, a.rows)
	return out
}

// nopMetrics counts recorded signals by label.
type nopMetrics struct {
	mu        sync.Mutex
	fallbacks map[string]int
	sources   map[string]int
	errors    map[string]int
}

func newNopMetrics() *nopMetrics {
	return &nopMetrics{
		fallbacks: make(map[string]int),
		sources:   make(map[string]int),
		errors:    make(map[string]int),
	}
}

func (m *nopMetrics) RecordResolution(source, _ string) {
	m.mu.Lock()
	m.sources[source]++
	m.mu.Unlock()
}

func (m *nopMetrics) RecordFallback(reason string) {
	m.mu.Lock()
	m.fallbacks[reason]++
	m.mu.Unlock()
}

func (m *nopMetrics) RecordUpdate(string)             {}
func (m *nopMetrics) RecordLastPrice(string, float64) {}
func (m *nopMetrics) RecordLatency(string, float64)   {}

func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *nopMetrics) fallbackCount(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks[reason]
}

func (m *nopMetrics) sourceCount(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sources[source]
}
