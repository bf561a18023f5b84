package di

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"PriceGate/internal/auth"
	"PriceGate/internal/domain/models"
	"PriceGate/internal/domain/repository"
	"PriceGate/internal/handler/api"
	mid "PriceGate/internal/middleware"
	"PriceGate/internal/oracle"
	"PriceGate/internal/provider"
	internalrepo "PriceGate/internal/repository"
	"PriceGate/internal/usecase"
	"PriceGate/pkg/cache"
	pkgch "PriceGate/pkg/clickhouse"
	"PriceGate/pkg/config"
	xhttp "PriceGate/pkg/http"
	pkgkafka "PriceGate/pkg/kafka"
	"PriceGate/pkg/logger"
	"PriceGate/pkg/metrics"
	"PriceGate/pkg/queue"
	"PriceGate/pkg/server"
)

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// Publisher interface.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideLogger creates the application logger. In production, error logs are
// aggregated and shipped to Kafka via the log collector.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	lcfg := &logger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lcfg.Level = "debug"
		lcfg.Format = "console"
	}
	l, err := logger.New(lcfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if cfg.Environment == "production" && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "oracle.logs",
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAuthorizer builds the static key-set authorizer from config.
func ProvideAuthorizer(cfg *config.Config) repository.Authorizer {
	return auth.New(cfg.Auth.AssetListingKeys, cfg.Auth.PoolAdminKeys)
}

// ProvideFeedProvider selects the provider mode. Genuine mode enforces
// ed25519 signatures; synthetic mode accepts unsigned payloads and can
// construct them.
func ProvideFeedProvider(cfg *config.Config) (repository.FeedProvider, error) {
	if cfg.Provider.Mode == "synthetic" {
		return provider.NewSynthetic(cfg.Provider.FeePerUpdate), nil
	}
	pub, err := hex.DecodeString(cfg.Provider.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("provider public key: %w", err)
	}
	return provider.NewGenuine(pub, cfg.Provider.FeePerUpdate)
}

// ProvideUpdateStream creates the provider WebSocket stream, nil when no
// stream endpoint is configured.
func ProvideUpdateStream(cfg *config.Config) repository.UpdateStream {
	if cfg.Provider.WebSocketURL == "" {
		return nil
	}
	return provider.NewStream(
		cfg.Provider.WebSocketURL,
		cfg.Provider.FeedIDs,
		cfg.Provider.ReconnectDelay,
		cfg.Provider.PingInterval,
	)
}

// ProvideClickHouseClient creates the ClickHouse client and initializes the
// observation schema. Returns nil when the archive store is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		"CREATE TABLE IF NOT EXISTS " + cfg.ClickHouse.Database + ".observations (" +
			"feed_id String, ts DateTime, price Int64, conf UInt64, expo Int32, " +
			"ema_price Int64, ema_conf UInt64, received_at DateTime" +
			") ENGINE=MergeTree ORDER BY (feed_id, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisCache creates the Redis cache client, nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideFallbackOracle builds the fallback price store: memory-fronted Redis
// when Redis is enabled, in-process memory otherwise.
func ProvideFallbackOracle(cfg *config.Config, rc *cache.RedisCache) repository.FallbackOracle {
	if rc != nil {
		ref := fmt.Sprintf("redis://%s:%d/%d", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB)
		return internalrepo.NewCacheFallbackOracle(cache.NewLayeredCache(rc), ref)
	}
	return internalrepo.NewCacheFallbackOracle(cache.NewMemoryCache(), "memory")
}

// ProvideKafkaProducer creates a Kafka producer, nil when no brokers are
// configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher routes configuration events to Kafka, dropping them
// when no producer or topic is available.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil || cfg.Kafka.EventsTopic == "" {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates the updates-topic consumer, nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideArchive builds the observation archive. When the Redis job queue is
// enabled, writes are decoupled from ClickHouse through it.
func ProvideArchive(cfg *config.Config, lgr *logger.Logger, ch *pkgch.Client, rc *cache.RedisCache) repository.Archive {
	if ch == nil {
		return nil
	}
	base := internalrepo.NewClickHouseArchive(ch.DB(), cfg.ClickHouse.Database+".observations")
	if cfg.Archive.QueueEnabled && rc != nil {
		pub := queue.NewRedisPublisher(lgr, rc.Client(), queue.WithKeyPrefix(cfg.Archive.QueueName))
		return usecase.NewQueuedArchive(lgr, base, pub)
	}
	return base
}

// ProvideArchiveWorker builds the queue consumer that drains enqueued
// observations into ClickHouse, nil when the queue path is off.
func ProvideArchiveWorker(cfg *config.Config, lgr *logger.Logger, ch *pkgch.Client, rc *cache.RedisCache) *usecase.ArchiveWorker {
	if ch == nil || rc == nil || !cfg.Archive.QueueEnabled {
		return nil
	}
	base := internalrepo.NewClickHouseArchive(ch.DB(), cfg.ClickHouse.Database+".observations")
	consumer := queue.NewRedisConsumer(
		lgr,
		&queue.QueueConfig{Workers: cfg.Archive.Workers, RetryLimit: 3, RetryDelay: 5 * time.Second},
		rc.Client(),
		[]queue.Job{usecase.NewObservationArchiver(lgr, base)},
		queue.WithKeyPrefix(cfg.Archive.QueueName),
	)
	return usecase.NewArchiveWorker(consumer)
}

// ProvideFreshness builds the mutable staleness windows.
func ProvideFreshness(cfg *config.Config) *oracle.FreshnessConfig {
	return oracle.NewFreshnessConfig(cfg.Oracle.ValidityWindow, cfg.Oracle.MinFreshness)
}

// ProvideRegistry builds the asset-to-feed registry.
func ProvideRegistry(authz repository.Authorizer, events repository.Publisher, fallback repository.FallbackOracle, lgr *logger.Logger) *oracle.Registry {
	return oracle.NewRegistry(authz, events, fallback, lgr)
}

// ProvideIngestor builds the payload ingestor.
func ProvideIngestor(prov repository.FeedProvider, archive repository.Archive, m repository.Metrics, lgr *logger.Logger) *oracle.Ingestor {
	return oracle.NewIngestor(prov, archive, m, lgr)
}

// ProvideResolver builds the top-level price resolver.
func ProvideResolver(
	cfg *config.Config,
	registry *oracle.Registry,
	ingestor *oracle.Ingestor,
	freshness *oracle.FreshnessConfig,
	authz repository.Authorizer,
	events repository.Publisher,
	m repository.Metrics,
	lgr *logger.Logger,
) *oracle.Resolver {
	base := oracle.BaseCurrencyConfig{
		Asset: models.NormalizeAsset(cfg.Oracle.BaseCurrency),
		Unit:  cfg.Oracle.BaseCurrencyUnit,
	}
	return oracle.NewResolver(registry, ingestor, freshness, base, authz, events, m, lgr)
}

// ProvideUpdateCollector builds the stream collector with its throttling
// pipeline, nil when no stream is configured.
func ProvideUpdateCollector(stream repository.UpdateStream, ingestor *oracle.Ingestor, prov repository.FeedProvider, m repository.Metrics) *usecase.UpdateCollector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewUpdatePipeline(ingestor, prov.QuoteFee, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewUpdateCollector(stream, ingestor, prov, m, pipe)
}

// ProvideKafkaUpdatesHandler registers the handler for the updates topic.
func ProvideKafkaUpdatesHandler(cfg *config.Config, ingestor *oracle.Ingestor, prov repository.FeedProvider, m repository.Metrics) *usecase.KafkaUpdatesHandler {
	return usecase.NewKafkaUpdatesHandler(cfg.Kafka.UpdatesTopic, ingestor, prov, m)
}

// ProvideHTTPHandler builds the oracle HTTP surface.
func ProvideHTTPHandler(
	lgr *logger.Logger,
	resolver *oracle.Resolver,
	ingestor *oracle.Ingestor,
	registry *oracle.Registry,
	archive repository.Archive,
	authz repository.Authorizer,
) xhttp.Handler {
	return api.NewOracleHandler(lgr, resolver, ingestor, registry, archive, authz)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	handler xhttp.Handler,
	collector *usecase.UpdateCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaUpdatesHandler,
	worker *usecase.ArchiveWorker,
	chClient *pkgch.Client,
	rc *cache.RedisCache,
	events repository.Publisher,
) *server.App {
	return server.New(cfg, lgr, handler, collector, consumer, kh, worker, chClient, rc, events)
}
