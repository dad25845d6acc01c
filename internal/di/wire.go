//go:build wireinject
// +build wireinject

package di

import (
	"TrendPulse/pkg/config"
	"TrendPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSignalStore,
		ProvideBarStore,
		ProvideSignalArchive,
		ProvideSignalPublisher,
		ProvideNotifier,
		ProvideBarStream,
		ProvideBarFetcher,

		// Engine and use cases
		ProvideSignalEngine,
		ProvideBarProcessor,
		ProvideArchiveQueue,
		ProvideVerifier,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
