package oracle

import (
	"sync"
	"time"

	"PriceGate/internal/domain/models"
)

// Usable reports whether an observation may be served as the primary price.
// An observation is usable iff its price is strictly positive and its publish
// time lies within both windows of now. Distance is the symmetric absolute
// difference in whole seconds, computed in the unsigned domain so extreme
// publish times in either direction cannot wrap into the windows.
func Usable(obs models.Observation, now int64, validityWindow, minFreshness time.Duration) bool {
	if obs.Price <= 0 {
		return false
	}
	var d uint64
	if obs.PublishTime <= now {
		d = uint64(now) - uint64(obs.PublishTime)
	} else {
		d = uint64(obs.PublishTime) - uint64(now)
	}
	return d <= uint64(validityWindow/time.Second) && d <= uint64(minFreshness/time.Second)
}

// FreshnessConfig holds the two staleness windows: the provider's own
// validity window and the protocol's stricter minimum-freshness bound.
// Mutable via admin call, so reads and writes are serialized.
type FreshnessConfig struct {
	mu             sync.RWMutex
	validityWindow time.Duration
	minFreshness   time.Duration
}

// NewFreshnessConfig builds the process-wide freshness configuration.
func NewFreshnessConfig(validityWindow, minFreshness time.Duration) *FreshnessConfig {
	return &FreshnessConfig{validityWindow: validityWindow, minFreshness: minFreshness}
}

// Windows returns the current window pair.
func (c *FreshnessConfig) Windows() (time.Duration, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validityWindow, c.minFreshness
}

// Set replaces both windows atomically.
func (c *FreshnessConfig) Set(validityWindow, minFreshness time.Duration) {
	c.mu.Lock()
	c.validityWindow = validityWindow
	c.minFreshness = minFreshness
	c.mu.Unlock()
}
