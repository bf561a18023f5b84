package repository

import (
	"context"
	"time"

	"PriceGate/internal/domain/models"
)

// FeedProvider verifies and decodes provider price-update payloads and quotes
// the fee owed for a batch. Exactly one implementation is active per process:
// genuine (signature-enforcing) or synthetic (unsigned, test/admin mode).
type FeedProvider interface {
	QuoteFee(n int) uint64
	ParseAndVerify(payload []byte) (models.Update, error)
	ConstructUpdate(u models.Update) ([]byte, error)
	Synthetic() bool
}

// UpdateStream is a push channel of raw provider payloads.
type UpdateStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan []byte, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// FallbackOracle is the secondary price source consulted when the primary
// feed is absent, non-positive, or stale. An asset without a price yields 0.
type FallbackOracle interface {
	AssetPrice(ctx context.Context, asset models.Asset) (uint64, error)
	SetAssetPrice(ctx context.Context, asset models.Asset, price uint64) error
	Ref() string
}

// Publisher emits configuration-change events for off-process observability.
type Publisher interface {
	PublishEvent(ctx context.Context, ev models.ConfigEvent) error
	Close() error
}

// Archive persists every accepted observation for history queries.
type Archive interface {
	Record(ctx context.Context, obs models.ArchivedObservation) error
	History(ctx context.Context, feed models.FeedID, from, to time.Time, limit int) ([]models.ArchivedObservation, error)
	Health(ctx context.Context) error
	Close() error
}

// Authorizer is the external authorization predicate for configuration calls.
type Authorizer interface {
	IsAssetListingAdmin(caller string) bool
	IsPoolAdmin(caller string) bool
}

// Metrics records operational signals.
type Metrics interface {
	RecordResolution(source string, asset string)
	RecordFallback(reason string)
	RecordUpdate(feed string)
	RecordError(kind string)
	RecordLastPrice(asset string, price float64)
	RecordLatency(op string, seconds float64)
}
