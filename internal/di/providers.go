package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/analysis"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/handler/api"
	internalrepo "StockPulse/internal/repository"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/service/telegram"
	"StockPulse/internal/service/thndr"
	"StockPulse/internal/service/universe"
	"StockPulse/internal/signal"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideGate creates the vendor request gate.
func ProvideGate(cfg *config.Config) *ratelimit.Gate {
	return ratelimit.NewGate(cfg.Vendor.MaxConcurrent, cfg.Vendor.RequestsPerMinute)
}

// ProvideHTTPClient creates the outbound HTTP client shared by the
// vendor and Telegram services.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Vendor.RequestTimeout))
}

// ProvideMarketData creates the vendor market-data client.
func ProvideMarketData(cfg *config.Config, httpClient *xhttp.Client, gate *ratelimit.Gate, l *applogger.Logger, m repository.Metrics) repository.MarketData {
	return thndr.NewClient(thndr.Config{
		BaseURL:        cfg.Vendor.BaseURL,
		AuthToken:      cfg.Vendor.AuthToken,
		Market:         cfg.Vendor.Market,
		MarketID:       cfg.Vendor.MarketID,
		Resolution:     cfg.Vendor.Resolution,
		ChunkMinutes:   cfg.Vendor.ChunkMinutes,
		MaxChunks:      cfg.Vendor.MaxChunks,
		TradesPageSize: cfg.Vendor.TradesPageSize,
	}, httpClient, gate, l, m)
}

/// ProvideCache creates the static-attribute cache backend: layered
// memory+Redis when Redis is enabled, plain memory otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache()
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("stockpulse"),
	)
	if err != nil {
		l.Warn("redis unavailable, falling back to in-memory cache", applogger.Error(err))
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(redisCache)
}

// ProvideUniverse creates the per-day instrument universe cache.
func ProvideUniverse(cfg *config.Config, market repository.MarketData, store cache.Service, l *applogger.Logger) *universe.Cache {
	return universe.NewCache(market, store, l, universe.FilterConfig{
		MinPrice:     cfg.Strategy.MinPrice,
		MaxPrice:     cfg.Strategy.MaxPrice,
		MinMarketCap: cfg.Strategy.MinMarketCap,
		Blacklist:    cfg.Strategy.Blacklist,
	}, cfg.Vendor.MaxConcurrent)
}

// ProvideFlowAnalyzer creates the trade-flow analyzer.
func ProvideFlowAnalyzer(cfg *config.Config) *analysis.TradeFlowAnalyzer {
	return analysis.NewTradeFlowAnalyzer(cfg.Strategy.InstitutionalTradeThreshold)
}

// ProvideScorer creates the signal scorer.
func ProvideScorer(cfg *config.Config) *signal.Scorer {
	return signal.NewScorer(signal.ScorerConfig{
		ADXThreshold:                cfg.Strategy.ADXThreshold,
		RSIOverbought:               cfg.Strategy.RSIOverbought,
		BuyPressureThreshold:        cfg.Strategy.BuyPressureThreshold,
		InstitutionalRatioThreshold: cfg.Strategy.InstitutionalRatioThreshold,
		BidAskMargin:                cfg.Strategy.BidAskMargin,
		MaxSpreadRatio:              cfg.Strategy.MaxSpreadRatio,
		TechnicalConditions:         cfg.Strategy.TechnicalConditions,
		MinTechnicalScore:           cfg.Strategy.MinTechnicalScore,
		MinFlowScore:                cfg.Strategy.MinFlowScore,
		MinDepthScore:               cfg.Strategy.MinDepthScore,
	})
}

// ProvideRiskEngine creates the risk engine.
func ProvideRiskEngine(cfg *config.Config) *signal.RiskEngine {
	return signal.NewRiskEngine(signal.RiskConfig{
		ATRMultiplier:      cfg.Risk.ATRMultiplier,
		StructuralLookback: cfg.Risk.StructuralLookback,
		StructuralBuffer:   cfg.Risk.StructuralBuffer,
		FallbackStopPct:    cfg.Risk.FallbackStopPct,
		MinRiskReward:      cfg.Risk.MinRiskReward,
		AccountRiskCapital: cfg.Risk.AccountRiskCapital,
		RiskFraction:       cfg.Risk.RiskFraction,
	})
}

// ProvideThrottle creates the per-day notification throttle.
func ProvideThrottle(cfg *config.Config) *signal.NotificationThrottle {
	return signal.NewNotificationThrottle(cfg.Strategy.StrengthDelta)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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
	return client, nil
}

// ProvideSignalStore creates the ClickHouse signal log and initializes
// its schema.
func ProvideSignalStore(chClient *pkgch.Client, l *applogger.Logger) (repository.SignalStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewCHSignalStore(ctx, chClient, l)
}

// ProvideSubscriberStore creates the subscriber store: Postgres when a
// DSN is configured, process memory otherwise.
func ProvideSubscriberStore(cfg *config.Config, l *applogger.Logger) (repository.SubscriberStore, error) {
	if cfg.Postgres.DSN == "" {
		return internalrepo.NewMemorySubscriberStore(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewPGSubscriberStore(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, l)
}

// ProvideAlertPublisher creates the Kafka signal publisher, or a no-op
// when Kafka is disabled.
func ProvideAlertPublisher(cfg *config.Config) (repository.AlertPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopAlertPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideNotifier creates the Telegram notifier, or a no-op when the
// bot is disabled.
func ProvideNotifier(cfg *config.Config, httpClient *xhttp.Client, subscribers repository.SubscriberStore, l *applogger.Logger, m repository.Metrics) repository.Notifier {
	if !cfg.Telegram.Enabled {
		return internalrepo.NopNotifier{}
	}
	return telegram.NewService(telegram.Config{
		BotToken:    cfg.Telegram.BotToken,
		PollTimeout: cfg.Telegram.PollTimeout,
	}, httpClient, subscribers, l, m)
}

// ProvideScanner creates the scan loop use case.
func ProvideScanner(
	cfg *config.Config,
	uni *universe.Cache,
	market repository.MarketData,
	flow *analysis.TradeFlowAnalyzer,
	scorer *signal.Scorer,
	risk *signal.RiskEngine,
	throttle *signal.NotificationThrottle,
	store repository.SignalStore,
	alerts repository.AlertPublisher,
	notifier repository.Notifier,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(usecase.ScanConfig{
		Interval:          cfg.Scan.Interval,
		ErrorBackoff:      cfg.Scan.ErrorBackoff,
		BatchSize:         cfg.Scan.BatchSize,
		MinPoints:         cfg.Scan.MinPoints,
		MinSignalStrength: cfg.Strategy.MinSignalStrength,
		TelegramEnabled:   cfg.Telegram.Enabled,
	}, uni, market, flow, scorer, risk, throttle, store, alerts, notifier, m, l)
}

// ProvidePerformanceAnalyzer creates the recommendation replay use case.
func ProvidePerformanceAnalyzer(store repository.SignalStore, market repository.MarketData, l *applogger.Logger) *usecase.PerformanceAnalyzer {
	return usecase.NewPerformanceAnalyzer(store, market, l)
}

// ProvideHTTPHandler creates the read API handler.
func ProvideHTTPHandler(l *applogger.Logger, store repository.SignalStore, performance *usecase.PerformanceAnalyzer) xhttp.Handler {
	return api.NewRecommendationsHandler(l, store, performance)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.Scanner,
	handler xhttp.Handler,
	signals repository.SignalStore,
	subscribers repository.SubscriberStore,
	alerts repository.AlertPublisher,
) *server.App {
	return server.New(cfg, l, scanner, handler, signals, subscribers, alerts)
}
