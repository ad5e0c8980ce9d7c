//go:build wireinject
// +build wireinject

package di

import (
	"AstroTransits/pkg/config"
	"AstroTransits/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,

		// Transit engine
		ProvideEphemeris,
		ProvideCatalog,
		ProvideTransitService,
		ProvideChartBuilder,

		// Event storage and delivery
		ProvideClickHouseClient,
		ProvideEventStore,
		ProvideEventRecorder,
		ProvideEventPipeline,
		ProvideKafkaConsumer,
		ProvideTransitEventsHandler,

		// HTTP
		ProvideRedisCache,
		ProvideRateLimiter,
		ProvideTransitHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
