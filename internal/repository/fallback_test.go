package repository

import (
	"context"
	"testing"

	"PriceGate/pkg/cache"
)

func TestFallbackOracleSetGet(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	fb := NewCacheFallbackOracle(mc, "memory")
	ctx := context.Background()

	if err := fb.SetAssetPrice(ctx, "0xaaa", 12345); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := fb.AssetPrice(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 12345 {
		t.Fatalf("unexpected price %d", got)
	}
}

func TestFallbackOracleMissingAssetIsZero(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	fb := NewCacheFallbackOracle(mc, "memory")

	got, err := fb.AssetPrice(context.Background(), "0xnever")
	if err != nil {
		t.Fatalf("missing asset must not error: %v", err)
	}
	if got != 0 {
		t.Fatalf("missing asset must read 0, got %d", got)
	}
}

func TestFallbackOracleOverwrite(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	fb := NewCacheFallbackOracle(mc, "memory")
	ctx := context.Background()

	_ = fb.SetAssetPrice(ctx, "0xaaa", 1)
	_ = fb.SetAssetPrice(ctx, "0xaaa", 2)
	got, err := fb.AssetPrice(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected last write, got %d", got)
	}
}

func TestFallbackOracleRef(t *testing.T) {
	fb := NewCacheFallbackOracle(cache.NewMemoryCache(), "memory")
	if fb.Ref() != "memory" {
		t.Fatalf("unexpected ref %q", fb.Ref())
	}
}
