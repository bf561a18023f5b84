package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PriceGate/internal/domain/models"
	drepo "PriceGate/internal/domain/repository"
	"PriceGate/pkg/logger"
)

// Ingestor verifies provider payloads and commits them as the latest
// observations. The whole batch is decoded before anything is committed, so a
// rejected call leaves no partial state. Publish times are stored as-is:
// out-of-order and backdated submissions overwrite newer ones without error,
// with staleness as the only consequence.
type Ingestor struct {
	provider drepo.FeedProvider
	archive  drepo.Archive
	metrics  drepo.Metrics
	log      *logger.Logger

	mu           sync.RWMutex
	observations map[models.FeedID]models.ObservationPair
}

// NewIngestor creates an ingestor over the given provider. archive may be nil
// when history persistence is disabled.
func NewIngestor(provider drepo.FeedProvider, archive drepo.Archive, metrics drepo.Metrics, log *logger.Logger) *Ingestor {
	return &Ingestor{
		provider:     provider,
		archive:      archive,
		metrics:      metrics,
		log:          log,
		observations: make(map[models.FeedID]models.ObservationPair),
	}
}

// SubmitUpdates verifies and commits a payload batch. An empty batch succeeds
// trivially. The attached fee must cover the provider's quote for the batch.
func (g *Ingestor) SubmitUpdates(ctx context.Context, payloads [][]byte, fee uint64) error {
	if len(payloads) == 0 {
		return nil
	}
	if quote := g.provider.QuoteFee(len(payloads)); fee < quote {
		g.metrics.RecordError("insufficient_fee")
		return fmt.Errorf("%w: got %d, need %d", ErrInsufficientFee, fee, quote)
	}

	start := time.Now()
	updates := make([]models.Update, 0, len(payloads))
	for i, p := range payloads {
		u, err := g.provider.ParseAndVerify(p)
		if err != nil {
			g.metrics.RecordError("payload_verify")
			return fmt.Errorf("payload %d: %w", i, err)
		}
		updates = append(updates, u)
	}

	g.mu.Lock()
	for _, u := range updates {
		g.observations[u.FeedID] = u.Pair()
	}
	g.mu.Unlock()

	received := time.Now().Unix()
	for _, u := range updates {
		g.metrics.RecordUpdate(u.FeedID.String())
		g.metrics.RecordLastPrice(u.FeedID.String(), float64(u.Price))
		if g.archive != nil {
			pair := u.Pair()
			err := g.archive.Record(ctx, models.ArchivedObservation{
				FeedID:     u.FeedID,
				Spot:       pair.Spot,
				Ema:        pair.Ema,
				ReceivedAt: received,
			})
			if err != nil {
				// History is best-effort: the committed observation stands.
				g.metrics.RecordError("archive_record")
				g.log.Warn("archive record failed",
					logger.String("feed_id", u.FeedID.String()), logger.Error(err))
			}
		}
	}
	g.metrics.RecordLatency("submit_updates", time.Since(start).Seconds())
	return nil
}

// ConstructSyntheticUpdate builds a single-feed payload without genuine
// provider signing. Only available when the provider runs in synthetic mode.
func (g *Ingestor) ConstructSyntheticUpdate(feed models.FeedID, price int64, conf uint64, expo int32, emaPrice int64, emaConf uint64, publishTime int64) ([]byte, error) {
	if !g.provider.Synthetic() {
		return nil, ErrUnsupportedInMode
	}
	return g.provider.ConstructUpdate(models.Update{
		FeedID:      feed,
		Price:       price,
		Conf:        conf,
		Expo:        expo,
		EmaPrice:    emaPrice,
		EmaConf:     emaConf,
		PublishTime: publishTime,
	})
}

// Observation returns the feed's latest observation, zero-valued when the
// feed has never been updated.
func (g *Ingestor) Observation(feed models.FeedID, ema bool) models.Observation {
	g.mu.RLock()
	pair := g.observations[feed]
	g.mu.RUnlock()
	if ema {
		return pair.Ema
	}
	return pair.Spot
}

// LastUpdateTime returns the instantaneous observation's publish time.
func (g *Ingestor) LastUpdateTime(feed models.FeedID) int64 {
	return g.Observation(feed, false).PublishTime
}
