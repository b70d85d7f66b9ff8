package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockPulse/internal/analysis"
	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/service/universe"
	"StockPulse/internal/signal"
	applogger "StockPulse/pkg/logger"
)

// ScanConfig controls the scan loop.
type ScanConfig struct {
	Interval          time.Duration
	ErrorBackoff      time.Duration
	BatchSize         int
	MinPoints         int
	MinSignalStrength float64
	TelegramEnabled   bool
}

// Scanner runs the signal generation loop: universe, per-instrument
// analysis in bounded batches, then the emit path of store, publish,
// and broadcast.
type Scanner struct {
	cfg      ScanConfig
	universe *universe.Cache
	market   repository.MarketData
	flow     *analysis.TradeFlowAnalyzer
	scorer   *signal.Scorer
	risk     *signal.RiskEngine
	throttle *signal.NotificationThrottle
	store    repository.SignalStore
	alerts   repository.AlertPublisher
	notifier repository.Notifier
	metrics  repository.Metrics
	logger   *applogger.Logger
	now      func() time.Time
}

func NewScanner(
	cfg ScanConfig,
	uni *universe.Cache,
	market repository.MarketData,
	flow *analysis.TradeFlowAnalyzer,
	scorer *signal.Scorer,
	risk *signal.RiskEngine,
	throttle *signal.NotificationThrottle,
	store repository.SignalStore,
	alerts repository.AlertPublisher,
	notifier repository.Notifier,
	metrics repository.Metrics,
	logger *applogger.Logger,
) *Scanner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MinPoints <= 0 {
		cfg.MinPoints = analysis.MinHistoryPoints
	}
	return &Scanner{
		cfg:      cfg,
		universe: uni,
		market:   market,
		flow:     flow,
		scorer:   scorer,
		risk:     risk,
		throttle: throttle,
		store:    store,
		alerts:   alerts,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Run loops until ctx is cancelled. A failed cycle is logged, raised
// as a high-priority alert, and followed by an extended backoff.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		if s.cfg.TelegramEnabled {
			if err := s.notifier.ProcessUpdates(ctx); err != nil {
				s.logger.Warn("subscriber update poll failed", applogger.Error(err))
			}
		}

		wait := s.cfg.Interval
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scan cycle failed", applogger.Error(err))
			if s.cfg.TelegramEnabled {
				alertCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if aerr := s.notifier.SendAlert(alertCtx, "error",
					fmt.Sprintf("Scan cycle failed: %v", err), "high"); aerr != nil {
					s.logger.Warn("cycle failure alert not delivered", applogger.Error(aerr))
				}
				cancel()
			}
			wait = s.cfg.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RunCycle scans the whole universe once.
func (s *Scanner) RunCycle(ctx context.Context) error {
	start := s.now()

	instruments, err := s.universe.Universe(ctx)
	if err != nil {
		return fmt.Errorf("universe: %w", err)
	}
	s.metrics.SetUniverseSize(len(instruments))
	s.logger.Info("scan cycle started", applogger.Int("universe", len(instruments)))

	emitted := 0
	for i := 0; i < len(instruments); i += s.cfg.BatchSize {
		end := i + s.cfg.BatchSize
		if end > len(instruments) {
			end = len(instruments)
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, inst := range instruments[i:end] {
			wg.Add(1)
			go func(inst models.Instrument) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("instrument scan panicked",
							applogger.String("symbol", inst.Symbol),
							applogger.Any("panic", r))
					}
				}()
				if s.scanInstrument(ctx, inst) {
					mu.Lock()
					emitted++
					mu.Unlock()
				}
			}(inst)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	elapsed := time.Since(start)
	s.metrics.RecordCycle(elapsed)
	s.logger.Info("scan cycle finished",
		applogger.Int("universe", len(instruments)),
		applogger.Int("signals", emitted),
		applogger.Duration("elapsed", elapsed))
	return nil
}

// scanInstrument analyzes one instrument and returns whether a signal
// was emitted. Fetch failures degrade to empty inputs; only a missing
// price history skips the instrument entirely.
func (s *Scanner) scanInstrument(ctx context.Context, inst models.Instrument) bool {
	history, err := s.market.HistoryBack(ctx, inst.AssetID, s.cfg.MinPoints)
	if err != nil {
		s.logger.Debug("history fetch failed",
			applogger.String("symbol", inst.Symbol),
			applogger.Error(err))
		return false
	}

	indicators, err := analysis.ComputeIndicators(history)
	if err != nil {
		s.logger.Debug("indicators unavailable",
			applogger.String("symbol", inst.Symbol),
			applogger.Error(err))
		return false
	}

	depth, err := s.market.Depth(ctx, inst.AssetID)
	if err != nil {
		s.logger.Debug("depth fetch failed",
			applogger.String("symbol", inst.Symbol),
			applogger.Error(err))
		depth = models.DepthSnapshot{}
	}

	trades, err := s.market.RecentTrades(ctx, inst.AssetID)
	if err != nil {
		s.logger.Debug("trades fetch failed",
			applogger.String("symbol", inst.Symbol),
			applogger.Error(err))
		trades = nil
	}
	flow := s.flow.Analyze(trades)

	scores, sigType, strength := s.scorer.Score(indicators, flow, depth)
	s.metrics.RecordLastPrice(inst.Symbol, inst.LastPrice)

	if sigType == models.SignalNeutral || strength < s.cfg.MinSignalStrength {
		return false
	}

	sig := &models.Signal{
		Symbol:     inst.Symbol,
		Name:       inst.Name,
		Sector:     inst.Sector,
		Timestamp:  s.now(),
		Price:      inst.LastPrice,
		ChangePct:  inst.ChangePct,
		MarketCap:  inst.MarketCap,
		Type:       sigType,
		Strength:   strength,
		Scores:     scores,
		Indicators: *indicators,
		Flow:       flow,
		Depth:      depth,
		Risk:       s.risk.Assess(inst.LastPrice, indicators, history),
	}

	if !s.throttle.Consider(sig, sig.Timestamp) {
		return false
	}

	s.emit(ctx, sig)
	return true
}

// emit runs the persistence and alert path. Sink failures are logged;
// the cycle continues.
func (s *Scanner) emit(ctx context.Context, sig *models.Signal) {
	s.metrics.RecordSignal(string(sig.Type))
	s.logger.Info("signal emitted",
		applogger.String("symbol", sig.Symbol),
		applogger.String("type", string(sig.Type)),
		applogger.Float64("strength", sig.Strength))

	if err := s.store.Insert(ctx, sig); err != nil {
		s.logger.Error("signal store insert failed",
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err))
	}
	if err := s.alerts.Publish(ctx, sig); err != nil {
		s.logger.Error("signal publish failed",
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err))
	}
	if s.cfg.TelegramEnabled {
		if err := s.notifier.BroadcastSignal(ctx, sig); err != nil {
			s.logger.Error("signal broadcast failed",
				applogger.String("symbol", sig.Symbol),
				applogger.Error(err))
		}
	}
}
