package models

// Event types published on the configuration event topic.
const (
	EventAssetSourceUpdated    = "asset_source_updated"
	EventFallbackOracleUpdated = "fallback_oracle_updated"
	EventFreshnessUpdated      = "freshness_updated"
)

// ConfigEvent records a configuration change for off-process observability.
// Exactly one of the payload fields is set, matching Type.
type ConfigEvent struct {
	Type        string `json:"type"`
	Asset       Asset  `json:"asset,omitempty"`
	FeedID      string `json:"feed_id,omitempty"`
	FallbackRef string `json:"fallback_ref,omitempty"`
	// Freshness windows in seconds.
	ValidityWindow int64 `json:"validity_window,omitempty"`
	MinFreshness   int64 `json:"min_freshness,omitempty"`
	At             int64 `json:"at"`
}
