//go:build wireinject
// +build wireinject

package di

import (
	"TapeLens/pkg/config"
	"TapeLens/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideSettings,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideIVStore,

		// Repositories
		ProvideSignalLogger,
		ProvideNotifier,

		// Core pipeline
		ProvidePipeline,
		ProvideIngress,

		// Ingest sources
		ProvideKafkaConsumer,
		ProvideKafkaTicksHandler,
		ProvideTickStream,
		ProvideTickCollector,

		// HTTP surface
		ProvideResultsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
