package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/oracle"
	"PriceGate/internal/provider"
	"PriceGate/pkg/logger"
)

type countingMetrics struct{}

func (countingMetrics) RecordResolution(string, string) {}
func (countingMetrics) RecordFallback(string)           {}
func (countingMetrics) RecordUpdate(string)             {}
func (countingMetrics) RecordError(string)              {}
func (countingMetrics) RecordLastPrice(string, float64) {}
func (countingMetrics) RecordLatency(string, float64)   {}

func newHandlerFixture(t *testing.T) (*KafkaUpdatesHandler, *oracle.Ingestor) {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	prov := provider.NewSynthetic(5)
	ing := oracle.NewIngestor(prov, nil, countingMetrics{}, l)
	return NewKafkaUpdatesHandler("oracle.updates", ing, prov, countingMetrics{}), ing
}

func testFeed(b byte) models.FeedID {
	var f models.FeedID
	f[31] = b
	return f
}

func encodePayload(t *testing.T, u models.Update) string {
	t.Helper()
	raw, err := provider.Encode(u, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestKafkaUpdatesHandlerCommits(t *testing.T) {
	h, ing := newHandlerFixture(t)

	msg, _ := json.Marshal(map[string]interface{}{
		"payloads": []string{encodePayload(t, models.Update{FeedID: testFeed(1), Price: 42, PublishTime: 1000})},
	})
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := ing.Observation(testFeed(1), false); got.Price != 42 {
		t.Fatalf("observation not committed: %+v", got)
	}
}

func TestKafkaUpdatesHandlerExplicitFee(t *testing.T) {
	h, _ := newHandlerFixture(t)

	fee := uint64(1) // below the quote of 5
	msg, _ := json.Marshal(map[string]interface{}{
		"payloads": []string{encodePayload(t, models.Update{FeedID: testFeed(1), Price: 42, PublishTime: 1000})},
		"fee":      fee,
	})
	err := h.Handle(context.Background(), msg)
	if !errors.Is(err, oracle.ErrInsufficientFee) {
		t.Fatalf("expected ErrInsufficientFee, got %v", err)
	}
}

func TestKafkaUpdatesHandlerEmptyBatch(t *testing.T) {
	h, _ := newHandlerFixture(t)
	if err := h.Handle(context.Background(), []byte(`{"payloads": []}`)); err != nil {
		t.Fatalf("empty batch must succeed: %v", err)
	}
}

func TestKafkaUpdatesHandlerBadBase64(t *testing.T) {
	h, _ := newHandlerFixture(t)
	err := h.Handle(context.Background(), []byte(`{"payloads": ["!!!not-base64!!!"]}`))
	if err == nil {
		t.Fatalf("bad base64 must fail")
	}
}

func TestKafkaUpdatesHandlerBadJSON(t *testing.T) {
	h, _ := newHandlerFixture(t)
	if err := h.Handle(context.Background(), []byte("{")); err == nil {
		t.Fatalf("bad json must fail")
	}
}

func TestKafkaUpdatesHandlerTopic(t *testing.T) {
	h, _ := newHandlerFixture(t)
	if h.Topic() != "oracle.updates" {
		t.Fatalf("unexpected topic %q", h.Topic())
	}
}
