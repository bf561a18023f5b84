package oracle

import (
	"context"
	"fmt"
	"time"

	"PriceGate/internal/domain/models"
	drepo "PriceGate/internal/domain/repository"
	"PriceGate/pkg/logger"
)

// Resolution sources reported to metrics.
const (
	SourceBase     = "base"
	SourceFeed     = "feed"
	SourceFallback = "fallback"
)

// Fallback reasons reported to metrics. The API collapses all of them into
// the fallback price (ultimately 0 when the fallback has no price either);
// the reasons keep the cases distinguishable operationally.
const (
	ReasonNoSource  = "no_source"
	ReasonZeroPrice = "zero_price"
	ReasonStale     = "stale"
)

// BaseCurrencyConfig fixes the quote denominator: the base currency asset is
// definitionally worth Unit and never queries a feed. Immutable.
type BaseCurrencyConfig struct {
	Asset models.Asset
	Unit  uint64
}

// Resolver is the top-level price entry point. It is stateless: every call is
// a pure function of the registry, the ingestor's observations, the freshness
// configuration, and the fallback oracle at call time.
type Resolver struct {
	registry  *Registry
	ingestor  *Ingestor
	freshness *FreshnessConfig
	base      BaseCurrencyConfig

	auth    drepo.Authorizer
	events  drepo.Publisher
	metrics drepo.Metrics
	log     *logger.Logger

	now func() int64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock overrides the resolver's time source (unix seconds).
func WithClock(now func() int64) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver over the oracle subsystem.
func NewResolver(
	registry *Registry,
	ingestor *Ingestor,
	freshness *FreshnessConfig,
	base BaseCurrencyConfig,
	auth drepo.Authorizer,
	events drepo.Publisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...ResolverOption,
) *Resolver {
	r := &Resolver{
		registry:  registry,
		ingestor:  ingestor,
		freshness: freshness,
		base:      base,
		auth:      auth,
		events:    events,
		metrics:   metrics,
		log:       log,
		now:       func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AssetPrice resolves the authoritative price of an asset. A missing, stale,
// or non-positive feed price is not an error: the fallback oracle answers,
// and an absent fallback price yields 0 (a degraded signal, not a failure).
func (r *Resolver) AssetPrice(ctx context.Context, asset models.Asset) uint64 {
	if asset == r.base.Asset {
		r.metrics.RecordResolution(SourceBase, string(asset))
		return r.base.Unit
	}

	price, reason, ok := r.feedPrice(asset)
	if ok {
		r.metrics.RecordResolution(SourceFeed, string(asset))
		return price
	}

	r.metrics.RecordFallback(reason)
	r.metrics.RecordResolution(SourceFallback, string(asset))
	return r.fallbackPrice(ctx, asset)
}

// feedPrice is the explicit feed-resolution step before fallback coercion.
// ok is false when the asset has no registered source or its observation is
// not usable; reason tells which.
func (r *Resolver) feedPrice(asset models.Asset) (uint64, string, bool) {
	feed := r.registry.SourceOf(asset)
	if feed.IsZero() {
		return 0, ReasonNoSource, false
	}

	obs := r.ingestor.Observation(feed, false)
	validity, minFresh := r.freshness.Windows()
	if !Usable(obs, r.now(), validity, minFresh) {
		reason := ReasonStale
		if obs.Price <= 0 {
			reason = ReasonZeroPrice
		}
		return 0, reason, false
	}
	// Usable guarantees obs.Price > 0, so the cast is lossless.
	return uint64(obs.Price), "", true
}

func (r *Resolver) fallbackPrice(ctx context.Context, asset models.Asset) uint64 {
	fb := r.registry.FallbackOracle()
	if fb == nil {
		return 0
	}
	price, err := fb.AssetPrice(ctx, asset)
	if err != nil {
		r.metrics.RecordError("fallback_read")
		r.log.Warn("fallback oracle read failed",
			logger.String("asset", string(asset)), logger.Error(err))
		return 0
	}
	return price
}

// AssetPrices resolves each asset independently. Each element reads current
// state at its own call time; there is no batch snapshot.
func (r *Resolver) AssetPrices(ctx context.Context, assets []models.Asset) []uint64 {
	prices := make([]uint64, len(assets))
	for i, asset := range assets {
		prices[i] = r.AssetPrice(ctx, asset)
	}
	return prices
}

// PriceStruct returns the raw observation behind an asset's feed. The second
// result is false when the asset has no registered source.
func (r *Resolver) PriceStruct(asset models.Asset, ema bool) (models.Observation, bool) {
	feed := r.registry.SourceOf(asset)
	if feed.IsZero() {
		return models.Observation{}, false
	}
	return r.ingestor.Observation(feed, ema), true
}

// LastUpdateTime returns the publish time of the asset's instantaneous
// observation, 0 when the asset has no source or the feed was never updated.
func (r *Resolver) LastUpdateTime(asset models.Asset) int64 {
	feed := r.registry.SourceOf(asset)
	if feed.IsZero() {
		return 0
	}
	return r.ingestor.LastUpdateTime(feed)
}

// BaseCurrency returns the immutable base currency configuration.
func (r *Resolver) BaseCurrency() BaseCurrencyConfig {
	return r.base
}

// FreshnessWindows returns the active window pair.
func (r *Resolver) FreshnessWindows() (time.Duration, time.Duration) {
	return r.freshness.Windows()
}

// SetFreshnessWindows replaces both staleness windows. Authorization-gated
// like the registry's configuration calls.
func (r *Resolver) SetFreshnessWindows(ctx context.Context, caller string, validity, minFreshness time.Duration) error {
	if !r.auth.IsAssetListingAdmin(caller) && !r.auth.IsPoolAdmin(caller) {
		return ErrCallerNotAuthorized
	}
	if validity <= 0 || minFreshness <= 0 {
		return fmt.Errorf("freshness windows must be positive")
	}
	r.freshness.Set(validity, minFreshness)

	r.log.Info("freshness windows updated",
		logger.Duration("validity_window", validity),
		logger.Duration("min_freshness", minFreshness),
	)
	if r.events != nil {
		err := r.events.PublishEvent(ctx, models.ConfigEvent{
			Type:           models.EventFreshnessUpdated,
			ValidityWindow: int64(validity / time.Second),
			MinFreshness:   int64(minFreshness / time.Second),
			At:             time.Now().Unix(),
		})
		if err != nil {
			r.log.Warn("event publish failed", logger.Error(err))
		}
	}
	return nil
}
