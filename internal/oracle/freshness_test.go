package oracle

import (
	"math"
	"testing"
	"time"

	"PriceGate/internal/domain/models"
)

func TestUsableFreshObservation(t *testing.T) {
	now := int64(1_700_000_000)
	obs := models.Observation{Price: 100, PublishTime: now - 10}
	if !Usable(obs, now, time.Minute, time.Minute) {
		t.Fatalf("expected usable")
	}
}

func TestUsableRejectsNonPositivePrice(t *testing.T) {
	now := int64(1_700_000_000)
	for _, price := range []int64{0, -1} {
		obs := models.Observation{Price: price, PublishTime: now}
		if Usable(obs, now, time.Minute, time.Minute) {
			t.Fatalf("price %d must not be usable", price)
		}
	}
}

func TestUsableBoundary(t *testing.T) {
	now := int64(1_700_000_000)
	// Exactly at the tighter window is still usable; one second beyond is not.
	obs := models.Observation{Price: 100, PublishTime: now - 30}
	if !Usable(obs, now, time.Minute, 30*time.Second) {
		t.Fatalf("distance equal to window must be usable")
	}
	obs.PublishTime = now - 31
	if Usable(obs, now, time.Minute, 30*time.Second) {
		t.Fatalf("distance beyond window must be stale")
	}
}

func TestUsableTighterWindowWins(t *testing.T) {
	now := int64(1_700_000_000)
	obs := models.Observation{Price: 100, PublishTime: now - 45}
	// Passes the validity window but fails the stricter freshness bound.
	if Usable(obs, now, time.Minute, 30*time.Second) {
		t.Fatalf("must fail the tighter of the two windows")
	}
}

func TestUsableFutureDatedIsSymmetric(t *testing.T) {
	now := int64(1_700_000_000)
	obs := models.Observation{Price: 100, PublishTime: now + 20}
	if !Usable(obs, now, time.Minute, time.Minute) {
		t.Fatalf("small future skew within windows must be usable")
	}
	obs.PublishTime = now + 120
	if Usable(obs, now, time.Minute, time.Minute) {
		t.Fatalf("far future publish time must be unusable")
	}
}

func TestUsableExtremePublishTimes(t *testing.T) {
	now := int64(1_700_000_000)
	// Second-distances near 2^64/1e9 used to wrap the nanosecond conversion
	// back inside the windows. Any such distance must read as stale.
	cases := []int64{
		now + 18_446_744_074,
		now - 18_446_744_074,
		math.MaxInt64,
		math.MinInt64,
		0,
	}
	for _, pt := range cases {
		obs := models.Observation{Price: 100, PublishTime: pt}
		if Usable(obs, now, time.Minute, time.Minute) {
			t.Fatalf("publish time %d must not be usable", pt)
		}
	}
}

func TestFreshnessConfigSet(t *testing.T) {
	cfg := NewFreshnessConfig(time.Minute, 30*time.Second)
	v, m := cfg.Windows()
	if v != time.Minute || m != 30*time.Second {
		t.Fatalf("unexpected initial windows %v %v", v, m)
	}
	cfg.Set(2*time.Minute, time.Minute)
	v, m = cfg.Windows()
	if v != 2*time.Minute || m != time.Minute {
		t.Fatalf("unexpected windows after set %v %v", v, m)
	}
}
