//go:build wireinject
// +build wireinject

package di

import (
	"PriceGate/pkg/config"
	"PriceGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideAuthorizer,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideFallbackOracle,
		ProvideEventPublisher,
		ProvideArchive,
		ProvideArchiveWorker,

		// Provider
		ProvideFeedProvider,
		ProvideUpdateStream,

		// Oracle core
		ProvideFreshness,
		ProvideRegistry,
		ProvideIngestor,
		ProvideResolver,

		// Use cases
		ProvideUpdateCollector,
		ProvideKafkaUpdatesHandler,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
