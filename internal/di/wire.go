//go:build wireinject
// +build wireinject

package di

import (
	"AstroChart/pkg/config"
	"AstroChart/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCache,

		// Repositories
		ProvideChartStore,
		ProvideChartPublisher,

		// Use cases
		ProvideCalculator,
		ProvideChartProcessor,
		ProvideChartService,
		ProvideSkyFeed,
		ProvideNotifier,
		ProvideWebhookJob,
		ProvideWebhookQueue,
		ProvideChartRequestsHandler,
		ProvideSkyDigest,

		// Transport
		ProvideKafkaConsumer,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
