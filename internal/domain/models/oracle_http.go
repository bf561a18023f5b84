package models

// Requests for oracle HTTP endpoints. Defined in domain for consistency and reuse.

type PricesRequest struct {
	Assets string `query:"assets" json:"assets" validate:"required"`
}

type ObservationRequest struct {
	Ema bool `query:"ema" json:"ema" default:"false"`
}

type SubmitUpdatesRequest struct {
	// Base64-encoded provider payloads.
	Payloads []string `json:"payloads" validate:"required,min=1,dive,required"`
	Fee      uint64   `json:"fee"`
}

type SyntheticUpdateRequest struct {
	FeedID      string `json:"feed_id" validate:"required,len=64"`
	Price       int64  `json:"price"`
	Conf        uint64 `json:"conf"`
	Expo        int32  `json:"expo" default:"-8"`
	EmaPrice    int64  `json:"ema_price"`
	EmaConf     uint64 `json:"ema_conf"`
	PublishTime int64  `json:"publish_time" validate:"required"`
}

type SetSourcesRequest struct {
	Assets  []string `json:"assets" validate:"required"`
	FeedIDs []string `json:"feed_ids" validate:"required"`
}

type SetFallbackPricesRequest struct {
	// Asset address -> price in base currency units.
	Prices map[string]uint64 `json:"prices" validate:"required,min=1"`
}

type SetFreshnessRequest struct {
	// Window magnitudes in seconds.
	ValidityWindow int64 `json:"validity_window" validate:"required,gt=0"`
	MinFreshness   int64 `json:"min_freshness" validate:"required,gt=0"`
}

// PriceResponse is the resolved price for a single asset.
type PriceResponse struct {
	Asset Asset  `json:"asset"`
	Price uint64 `json:"price"`
}

// SourceResponse reports the registered feed of an asset.
type SourceResponse struct {
	Asset      Asset  `json:"asset"`
	FeedID     string `json:"feed_id"`
	Registered bool   `json:"registered"`
}

// LastUpdateResponse reports a feed's publish time for an asset.
type LastUpdateResponse struct {
	Asset       Asset `json:"asset"`
	PublishTime int64 `json:"publish_time"`
}
