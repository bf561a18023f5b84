package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/domain/repository"
	"PriceGate/pkg/cache"
)

// CacheFallbackOracle implements FallbackOracle over a cache.Service (memory,
// Redis, or layered). Prices are independently settable per asset and never
// expire. An asset without a price yields 0, never an error.
type CacheFallbackOracle struct {
	store cache.Service
	ref   string
}

// NewCacheFallbackOracle creates a fallback oracle over the given store.
// ref labels the backing store in events ("memory", "redis", ...).
func NewCacheFallbackOracle(store cache.Service, ref string) repository.FallbackOracle {
	return &CacheFallbackOracle{store: store, ref: ref}
}

func key(asset models.Asset) string {
	return cache.GenerateKey("fallback", string(asset))
}

func (o *CacheFallbackOracle) AssetPrice(ctx context.Context, asset models.Asset) (uint64, error) {
	var raw string
	err := o.store.Get(ctx, key(asset), &raw)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fallback read %s: %w", asset, err)
	}
	price, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("fallback value for %s: %w", asset, err)
	}
	return price, nil
}

func (o *CacheFallbackOracle) SetAssetPrice(ctx context.Context, asset models.Asset, price uint64) error {
	// No expiration: the fallback price stands until replaced.
	return o.store.Set(ctx, key(asset), strconv.FormatUint(price, 10), 0)
}

func (o *CacheFallbackOracle) Ref() string { return o.ref }
