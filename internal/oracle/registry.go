package oracle

import (
	"context"
	"sync"
	"time"

	"PriceGate/internal/domain/models"
	drepo "PriceGate/internal/domain/repository"
	"PriceGate/pkg/logger"
)

// Registry maps assets to provider feed ids and holds the fallback oracle
// reference. Mutation is authorization-gated and serialized; reads never fail.
type Registry struct {
	mu       sync.RWMutex
	sources  map[models.Asset]models.FeedID
	fallback drepo.FallbackOracle

	auth   drepo.Authorizer
	events drepo.Publisher
	log    *logger.Logger
}

// NewRegistry creates an empty registry. The fallback oracle must be set
// before the registry is handed to a resolver.
func NewRegistry(auth drepo.Authorizer, events drepo.Publisher, fallback drepo.FallbackOracle, log *logger.Logger) *Registry {
	return &Registry{
		sources:  make(map[models.Asset]models.FeedID),
		fallback: fallback,
		auth:     auth,
		events:   events,
		log:      log,
	}
}

func (r *Registry) authorized(caller string) bool {
	return r.auth.IsAssetListingAdmin(caller) || r.auth.IsPoolAdmin(caller)
}

// SetAssetSources overwrites the feed id of each asset, last write wins.
// The whole call is rejected before any mutation on length mismatch or
// authorization failure.
func (r *Registry) SetAssetSources(ctx context.Context, caller string, assets []models.Asset, feeds []models.FeedID) error {
	if !r.authorized(caller) {
		return ErrCallerNotAuthorized
	}
	if len(assets) != len(feeds) {
		return ErrInconsistentParamsLength
	}

	r.mu.Lock()
	for i, asset := range assets {
		r.sources[asset] = feeds[i]
	}
	r.mu.Unlock()

	now := time.Now().Unix()
	for i, asset := range assets {
		r.log.Info("asset source updated",
			logger.String("asset", string(asset)),
			logger.String("feed_id", feeds[i].String()),
		)
		r.publish(ctx, models.ConfigEvent{
			Type:   models.EventAssetSourceUpdated,
			Asset:  asset,
			FeedID: feeds[i].String(),
			At:     now,
		})
	}
	return nil
}

// SourceOf returns the asset's feed id, or the zero sentinel when unset.
func (r *Registry) SourceOf(asset models.Asset) models.FeedID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[asset]
}

// SetFallbackOracle replaces the fallback oracle reference.
func (r *Registry) SetFallbackOracle(ctx context.Context, caller string, fb drepo.FallbackOracle) error {
	if !r.authorized(caller) {
		return ErrCallerNotAuthorized
	}

	r.mu.Lock()
	r.fallback = fb
	r.mu.Unlock()

	r.log.Info("fallback oracle updated", logger.String("ref", fb.Ref()))
	r.publish(ctx, models.ConfigEvent{
		Type:        models.EventFallbackOracleUpdated,
		FallbackRef: fb.Ref(),
		At:          time.Now().Unix(),
	})
	return nil
}

// FallbackOracle returns the current fallback reference.
func (r *Registry) FallbackOracle() drepo.FallbackOracle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

func (r *Registry) publish(ctx context.Context, ev models.ConfigEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishEvent(ctx, ev); err != nil {
		r.log.Warn("event publish failed", logger.String("type", ev.Type), logger.Error(err))
	}
}
