package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"PriceGate/internal/auth"
	"PriceGate/internal/domain/models"
	"PriceGate/internal/oracle"
	"PriceGate/internal/provider"
	"PriceGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

const testAdminKey = "admin-key"

type nopMetrics struct{}

func (nopMetrics) RecordResolution(string, string) {}
func (nopMetrics) RecordFallback(string)           {}
func (nopMetrics) RecordUpdate(string)             {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

type mapFallback struct {
	mu     sync.Mutex
	prices map[models.Asset]uint64
	failOn map[models.Asset]error
}

func (f *mapFallback) AssetPrice(_ context.Context, asset models.Asset) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prices[asset], nil
}

func (f *mapFallback) SetAssetPrice(_ context.Context, asset models.Asset, price uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[asset]; err != nil {
		return err
	}
	f.prices[asset] = price
	return nil
}

func (f *mapFallback) Ref() string { return "test" }

type handlerFixture struct {
	echo     *echo.Echo
	ingestor *oracle.Ingestor
	registry *oracle.Registry
	fallback *mapFallback
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	authz := auth.New([]string{testAdminKey}, nil)
	fallback := &mapFallback{prices: make(map[models.Asset]uint64)}
	prov := provider.NewSynthetic(0)

	registry := oracle.NewRegistry(authz, nil, fallback, l)
	ingestor := oracle.NewIngestor(prov, nil, nopMetrics{}, l)
	freshness := oracle.NewFreshnessConfig(time.Hour, time.Hour)
	resolver := oracle.NewResolver(registry, ingestor, freshness,
		oracle.BaseCurrencyConfig{Asset: "0xbase", Unit: 1_000_000},
		authz, nil, nopMetrics{}, l)

	h := NewOracleHandler(l, resolver, ingestor, registry, nil, authz)
	e := echo.New()
	h.RegisterRoutes(e)
	return &handlerFixture{echo: e, ingestor: ingestor, registry: registry, fallback: fallback}
}

func (f *handlerFixture) do(t *testing.T, method, path, apiKey string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

type apiEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestPriceEndpointFallbackNotFailure(t *testing.T) {
	f := newHandlerFixture(t)

	// Unknown asset resolves to 0 with HTTP success.
	rec := f.do(t, http.MethodGet, "/api/price/0xghost", "", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected status %d", env.Status)
	}
	var pr models.PriceResponse
	if err := json.Unmarshal(env.Data, &pr); err != nil {
		t.Fatalf("decode price: %v", err)
	}
	if pr.Price != 0 {
		t.Fatalf("expected degraded 0 price, got %d", pr.Price)
	}
}

func TestPriceEndpointBaseCurrency(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodGet, "/api/price/0xBASE", "", "")
	env := decodeEnvelope(t, rec)
	var pr models.PriceResponse
	if err := json.Unmarshal(env.Data, &pr); err != nil {
		t.Fatalf("decode price: %v", err)
	}
	if pr.Price != 1_000_000 {
		t.Fatalf("expected base currency unit, got %d", pr.Price)
	}
}

func TestSubmitUpdatesEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	var feed models.FeedID
	feed[31] = 1
	raw, err := provider.Encode(models.Update{FeedID: feed, Price: 42, PublishTime: time.Now().Unix()}, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	body, _ := json.Marshal(map[string]interface{}{
		"payloads": []string{base64.StdEncoding.EncodeToString(raw)},
		"fee":      0,
	})

	rec := f.do(t, http.MethodPost, "/api/updates", "", string(body))
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", env.Status, rec.Body.String())
	}
	if got := f.ingestor.Observation(feed, false); got.Price != 42 {
		t.Fatalf("update not committed: %+v", got)
	}
}

func TestSubmitUpdatesEndpointBadBase64(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/updates", "", `{"payloads": ["%%%"], "fee": 0}`)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 envelope, got %d", env.Status)
	}
}

func TestAdminSourcesRequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)

	var feed models.FeedID
	feed[31] = 1
	body, _ := json.Marshal(map[string]interface{}{
		"assets":   []string{"0xaaa"},
		"feed_ids": []string{feed.String()},
	})

	rec := f.do(t, http.MethodPost, "/api/admin/sources", "", string(body))
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusForbidden {
		t.Fatalf("expected 403 envelope, got %d: %s", env.Status, rec.Body.String())
	}
	if !f.registry.SourceOf("0xaaa").IsZero() {
		t.Fatalf("unauthorized call must not register a source")
	}

	rec = f.do(t, http.MethodPost, "/api/admin/sources", testAdminKey, string(body))
	env = decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("expected success, got %d: %s", env.Status, rec.Body.String())
	}
	if f.registry.SourceOf("0xaaa") != feed {
		t.Fatalf("source not registered")
	}
}

func TestAdminFreshnessValidation(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPut, "/api/admin/freshness", testAdminKey,
		`{"validity_window": 60, "min_freshness": 30}`)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("expected success, got %d: %s", env.Status, rec.Body.String())
	}

	// Non-positive windows fail request validation.
	rec = f.do(t, http.MethodPut, "/api/admin/freshness", testAdminKey,
		`{"validity_window": 0, "min_freshness": 30}`)
	env = decodeEnvelope(t, rec)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 envelope, got %d", env.Status)
	}
}

func TestAdminFallbackPricesAttemptsEveryKey(t *testing.T) {
	f := newHandlerFixture(t)
	f.fallback.failOn = map[models.Asset]error{"0xbbb": errors.New("store down")}

	body := `{"prices": {"0xaaa": 100, "0xbbb": 200, "0xccc": 300}}`
	rec := f.do(t, http.MethodPut, "/api/admin/fallback", testAdminKey, body)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 envelope, got %d: %s", env.Status, rec.Body.String())
	}

	// One bad key must not stop the rest of the reseed.
	for asset, want := range map[models.Asset]uint64{"0xaaa": 100, "0xccc": 300} {
		if got, _ := f.fallback.AssetPrice(context.Background(), asset); got != want {
			t.Fatalf("asset %s = %d, want %d", asset, got, want)
		}
	}
	if got, _ := f.fallback.AssetPrice(context.Background(), "0xbbb"); got != 0 {
		t.Fatalf("failed asset must remain unset, got %d", got)
	}
}

func TestObservationEndpointNoSource(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodGet, "/api/observation/0xghost", "", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusNotFound {
		t.Fatalf("expected 404 envelope, got %d", env.Status)
	}
}
