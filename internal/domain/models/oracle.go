package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Asset identifies a protocol asset by its lower-cased hex address.
type Asset string

// NormalizeAsset canonicalizes an asset address for map keying.
func NormalizeAsset(s string) Asset {
	return Asset(strings.ToLower(strings.TrimSpace(s)))
}

// FeedID is the fixed-size key of a provider price feed.
// The all-zero value means "no source registered".
type FeedID [32]byte

// ZeroFeedID is the unregistered-source sentinel.
var ZeroFeedID FeedID

// IsZero reports whether the feed id is the unregistered sentinel.
func (f FeedID) IsZero() bool {
	return f == ZeroFeedID
}

// String returns the hex form of the feed id.
func (f FeedID) String() string {
	return hex.EncodeToString(f[:])
}

// MarshalText implements encoding.TextMarshaler (hex).
func (f FeedID) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (hex, optional 0x prefix).
func (f *FeedID) UnmarshalText(b []byte) error {
	s := strings.TrimPrefix(string(b), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("feed id hex: %w", err)
	}
	if len(raw) != len(f) {
		return fmt.Errorf("feed id must be %d bytes, got %d", len(f), len(raw))
	}
	copy(f[:], raw)
	return nil
}

// ParseFeedID decodes a hex feed id.
func ParseFeedID(s string) (FeedID, error) {
	var f FeedID
	err := f.UnmarshalText([]byte(s))
	return f, err
}

// Observation is one recorded price point for a feed.
// Price is signed: non-positive values are reported by reads but are never
// surfaced by the resolver.
type Observation struct {
	Price       int64  `json:"price"`
	Conf        uint64 `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

// ObservationPair holds the instantaneous and EMA variants of a feed's
// latest observation. Both are replaced together on each accepted update.
type ObservationPair struct {
	Spot Observation `json:"spot"`
	Ema  Observation `json:"ema"`
}

// Update is one decoded price-update payload.
type Update struct {
	FeedID      FeedID `json:"feed_id"`
	Price       int64  `json:"price"`
	Conf        uint64 `json:"conf"`
	Expo        int32  `json:"expo"`
	EmaPrice    int64  `json:"ema_price"`
	EmaConf     uint64 `json:"ema_conf"`
	PublishTime int64  `json:"publish_time"`
}

// Pair splits an update into its stored observation variants.
func (u Update) Pair() ObservationPair {
	return ObservationPair{
		Spot: Observation{Price: u.Price, Conf: u.Conf, Expo: u.Expo, PublishTime: u.PublishTime},
		Ema:  Observation{Price: u.EmaPrice, Conf: u.EmaConf, Expo: u.Expo, PublishTime: u.PublishTime},
	}
}

// ArchivedObservation is one accepted update as persisted in the history
// archive, including ingestion time for backfill auditing.
type ArchivedObservation struct {
	FeedID     FeedID      `json:"feed_id"`
	Spot       Observation `json:"spot"`
	Ema        Observation `json:"ema"`
	ReceivedAt int64       `json:"received_at"`
}
