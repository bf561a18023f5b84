package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	drepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/oracle"
	pkgkafka "PriceGate/pkg/kafka"
)

// KafkaUpdatesHandler consumes update batches from Kafka and submits them
// to the ingestor. Batches arriving over the bus are charged the provider's
// quoted fee when no fee is carried in the message.
type KafkaUpdatesHandler struct {
	topic    string
	ingestor *oracle.Ingestor
	provider drepo.FeedProvider
	metrics  drepo.Metrics
}

func NewKafkaUpdatesHandler(topic string, ing *oracle.Ingestor, provider drepo.FeedProvider, metrics drepo.Metrics) *KafkaUpdatesHandler {
	return &KafkaUpdatesHandler{topic: topic, ingestor: ing, provider: provider, metrics: metrics}
}

func (h *KafkaUpdatesHandler) Topic() string { return h.topic }

// incoming message schema: {payloads: [base64...], fee}
func (h *KafkaUpdatesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Payloads []string `json:"payloads"`
		Fee      *uint64  `json:"fee,omitempty"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if len(m.Payloads) == 0 {
		return nil
	}

	payloads := make([][]byte, 0, len(m.Payloads))
	for i, s := range m.Payloads {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			h.metrics.RecordError("consumer_decode")
			return fmt.Errorf("payload %d: %w", i, err)
		}
		payloads = append(payloads, raw)
	}

	fee := h.provider.QuoteFee(len(payloads))
	if m.Fee != nil {
		fee = *m.Fee
	}

	start := time.Now()
	err := h.ingestor.SubmitUpdates(ctx, payloads, fee)
	h.metrics.RecordLatency("kafka_submit", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_submit")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaUpdatesHandler)(nil)
