//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Vendor access
		ProvideGate,
		ProvideHTTPClient,
		ProvideMarketData,
		ProvideCache,
		ProvideUniverse,

		// Analysis and signal generation
		ProvideFlowAnalyzer,
		ProvideScorer,
		ProvideRiskEngine,
		ProvideThrottle,

		// Persistence and delivery
		ProvideClickHouseClient,
		ProvideSignalStore,
		ProvideSubscriberStore,
		ProvideAlertPublisher,
		ProvideNotifier,

		// Use cases and API
		ProvideScanner,
		ProvidePerformanceAnalyzer,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
