package repository

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

// MarketData is the upstream vendor feed. Every field of every response must
// be tolerated as possibly absent; implementations degrade to empty or
// zero-valued results on transient failure.
type MarketData interface {
	// MarketWatch returns the live quote list for the configured market.
	MarketWatch(ctx context.Context) ([]models.Instrument, error)
	// AssetDetail fetches the once-daily static attributes for one asset.
	AssetDetail(ctx context.Context, assetID string) (models.StaticAttrs, error)
	// History fetches chart bars for [from, to] at the configured resolution.
	History(ctx context.Context, assetID string, from, to time.Time) ([]models.PricePoint, error)
	// HistoryBack walks backward in fixed-size time chunks until at least
	// minPoints bars are accumulated or the chunk budget is exhausted.
	HistoryBack(ctx context.Context, assetID string, minPoints int) ([]models.PricePoint, error)
	// Depth returns the aggregated order book snapshot; zero-valued on failure.
	Depth(ctx context.Context, assetID string) (models.DepthSnapshot, error)
	// RecentTrades returns one page of normalized trades, most recent last.
	RecentTrades(ctx context.Context, assetID string) ([]models.Trade, error)
}

// SignalStore is the append-only signal log.
type SignalStore interface {
	Insert(ctx context.Context, sig *models.Signal) error
	// TodayRecommendations returns today's BUY/STRONG_BUY signals with
	// strength >= minStrength, newest first.
	TodayRecommendations(ctx context.Context, minStrength float64, limit int) ([]models.Recommendation, error)
	Close() error
}

// SubscriberStore tracks registered notification endpoints.
type SubscriberStore interface {
	Save(ctx context.Context, chatID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// AlertPublisher publishes emitted signals to a durable topic.
type AlertPublisher interface {
	Publish(ctx context.Context, sig *models.Signal) error
	Close() error
}

// Notifier broadcasts alerts to registered endpoints. A failure for one
// endpoint must not abort delivery to the rest.
type Notifier interface {
	BroadcastSignal(ctx context.Context, sig *models.Signal) error
	SendAlert(ctx context.Context, kind, text, priority string) error
	ProcessUpdates(ctx context.Context) error
}

// Metrics records operational counters for the scanner.
type Metrics interface {
	RecordCycle(d time.Duration)
	RecordFetchError(endpoint string)
	RecordSignal(signalType string)
	RecordAlert(channel string)
	RecordGateWait(d time.Duration)
	SetUniverseSize(n int)
	RecordLastPrice(symbol string, price float64)
}
