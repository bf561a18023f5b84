package api

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"PriceGate/internal/domain/models"
	drepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/oracle"
	xhttp "PriceGate/pkg/http"
	xlogger "PriceGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

const apiKeyHeader = "X-Api-Key"

// OracleHandler exposes the price oracle over HTTP.
type OracleHandler struct {
	logger   *xlogger.Logger
	resolver *oracle.Resolver
	ingestor *oracle.Ingestor
	registry *oracle.Registry
	archive  drepo.Archive
	auth     drepo.Authorizer
}

func NewOracleHandler(logger *xlogger.Logger, resolver *oracle.Resolver, ingestor *oracle.Ingestor, registry *oracle.Registry, archive drepo.Archive, auth drepo.Authorizer) *OracleHandler {
	return &OracleHandler{
		logger:   logger,
		resolver: resolver,
		ingestor: ingestor,
		registry: registry,
		archive:  archive,
		auth:     auth,
	}
}

func (h *OracleHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/price/:asset", h.Price)
	g.GET("/prices", h.Prices)
	g.GET("/source/:asset", h.Source)
	g.GET("/fallback", h.Fallback)
	g.GET("/last-update/:asset", h.LastUpdate)
	g.GET("/observation/:asset", h.Observation)
	g.GET("/history/:asset", h.History)
	g.POST("/updates", h.SubmitUpdates)
	g.POST("/updates/synthetic", h.ConstructSynthetic)

	adm := g.Group("/admin")
	adm.POST("/sources", h.SetSources)
	adm.PUT("/fallback", h.SetFallbackPrices)
	adm.PUT("/freshness", h.SetFreshness)
}

func caller(c echo.Context) string {
	return c.Request().Header.Get(apiKeyHeader)
}

func (h *OracleHandler) Price(c echo.Context) error {
	asset := models.NormalizeAsset(c.Param("asset"))
	price := h.resolver.AssetPrice(c.Request().Context(), asset)
	return xhttp.SuccessResponse(c, models.PriceResponse{Asset: asset, Price: price})
}

func (h *OracleHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	parts := strings.Split(req.Assets, ",")
	assets := make([]models.Asset, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		assets = append(assets, models.NormalizeAsset(p))
	}

	prices := h.resolver.AssetPrices(c.Request().Context(), assets)
	out := make([]models.PriceResponse, len(assets))
	for i := range assets {
		out[i] = models.PriceResponse{Asset: assets[i], Price: prices[i]}
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *OracleHandler) Source(c echo.Context) error {
	asset := models.NormalizeAsset(c.Param("asset"))
	feed := h.registry.SourceOf(asset)
	return xhttp.SuccessResponse(c, models.SourceResponse{
		Asset:      asset,
		FeedID:     feed.String(),
		Registered: !feed.IsZero(),
	})
}

func (h *OracleHandler) Fallback(c echo.Context) error {
	fb := h.registry.FallbackOracle()
	ref := ""
	if fb != nil {
		ref = fb.Ref()
	}
	base := h.resolver.BaseCurrency()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"ref":                ref,
		"base_currency":      base.Asset,
		"base_currency_unit": base.Unit,
	})
}

func (h *OracleHandler) LastUpdate(c echo.Context) error {
	asset := models.NormalizeAsset(c.Param("asset"))
	return xhttp.SuccessResponse(c, models.LastUpdateResponse{
		Asset:       asset,
		PublishTime: h.resolver.LastUpdateTime(asset),
	})
}

func (h *OracleHandler) Observation(c echo.Context) error {
	asset := models.NormalizeAsset(c.Param("asset"))
	req := &models.ObservationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	obs, ok := h.resolver.PriceStruct(asset, req.Ema)
	if !ok {
		return xhttp.NotFoundResponse(c, "asset has no registered source")
	}
	return xhttp.SuccessResponse(c, obs)
}

func (h *OracleHandler) History(c echo.Context) error {
	if h.archive == nil {
		return xhttp.NotFoundResponse(c, "history archive is disabled")
	}
	asset := models.NormalizeAsset(c.Param("asset"))
	feed := h.registry.SourceOf(asset)
	if feed.IsZero() {
		return xhttp.NotFoundResponse(c, "asset has no registered source")
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)
	if limit <= 0 || limit > 10000 {
		limit = 100
	}

	rows, err := h.archive.History(c.Request().Context(), feed, from, to, limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *OracleHandler) SubmitUpdates(c echo.Context) error {
	req := &models.SubmitUpdatesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	payloads := make([][]byte, 0, len(req.Payloads))
	for i, s := range req.Payloads {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_BASE64",
				Field:   "payloads",
				Message: "payload is not valid base64",
				Params:  map[string]interface{}{"index": i},
			}})
		}
		payloads = append(payloads, raw)
	}

	if err := h.ingestor.SubmitUpdates(c.Request().Context(), payloads, req.Fee); err != nil {
		h.logger.Error("submit updates failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, oracleAppError(err))
	}
	return xhttp.SuccessResponse(c, map[string]int{"accepted": len(payloads)})
}

func (h *OracleHandler) ConstructSynthetic(c echo.Context) error {
	req := &models.SyntheticUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	feed, err := models.ParseFeedID(req.FeedID)
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_FEED_ID",
			Field:   "feed_id",
			Message: err.Error(),
		}})
	}

	payload, err := h.ingestor.ConstructSyntheticUpdate(feed, req.Price, req.Conf, req.Expo, req.EmaPrice, req.EmaConf, req.PublishTime)
	if err != nil {
		return xhttp.AppErrorResponse(c, oracleAppError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{
		"payload": base64.StdEncoding.EncodeToString(payload),
	})
}

func (h *OracleHandler) SetSources(c echo.Context) error {
	req := &models.SetSourcesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	assets := make([]models.Asset, len(req.Assets))
	for i, a := range req.Assets {
		assets[i] = models.NormalizeAsset(a)
	}
	feeds := make([]models.FeedID, len(req.FeedIDs))
	for i, s := range req.FeedIDs {
		feed, err := models.ParseFeedID(s)
		if err != nil {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_FEED_ID",
				Field:   "feed_ids",
				Message: err.Error(),
				Params:  map[string]interface{}{"index": i},
			}})
		}
		feeds[i] = feed
	}

	if err := h.registry.SetAssetSources(c.Request().Context(), caller(c), assets, feeds); err != nil {
		return xhttp.AppErrorResponse(c, oracleAppError(err))
	}
	return xhttp.SuccessResponse(c, map[string]int{"updated": len(assets)})
}

func (h *OracleHandler) SetFallbackPrices(c echo.Context) error {
	if !h.auth.IsAssetListingAdmin(caller(c)) && !h.auth.IsPoolAdmin(caller(c)) {
		return xhttp.AppErrorResponse(c, oracleAppError(oracle.ErrCallerNotAuthorized))
	}
	req := &models.SetFallbackPricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	fb := h.registry.FallbackOracle()
	if fb == nil {
		return xhttp.NotFoundResponse(c, "no fallback oracle configured")
	}
	// Attempt every key so one bad write cannot leave the reseed half-applied
	// silently. Failures are reported per asset.
	updated := 0
	var failed []string
	for asset, price := range req.Prices {
		if err := fb.SetAssetPrice(c.Request().Context(), models.NormalizeAsset(asset), price); err != nil {
			h.logger.Error("fallback write failed", xlogger.String("asset", asset), xlogger.Error(err))
			failed = append(failed, asset)
			continue
		}
		updated++
	}
	if len(failed) > 0 {
		appErr := xhttp.NewAppError("ERR_FALLBACK_WRITE_FAILED", "prices",
			"some fallback prices were not stored", http.StatusBadGateway).
			WithParam("failed", failed).
			WithParam("updated", updated)
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, map[string]int{"updated": updated})
}

func (h *OracleHandler) SetFreshness(c echo.Context) error {
	req := &models.SetFreshnessRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.resolver.SetFreshnessWindows(
		c.Request().Context(),
		caller(c),
		time.Duration(req.ValidityWindow)*time.Second,
		time.Duration(req.MinFreshness)*time.Second,
	)
	if err != nil {
		return xhttp.AppErrorResponse(c, oracleAppError(err))
	}
	return xhttp.SuccessResponse(c, map[string]bool{"updated": true})
}
