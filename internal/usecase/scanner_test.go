package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/analysis"
	"StockPulse/internal/domain/models"
	"StockPulse/internal/service/universe"
	"StockPulse/internal/signal"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
)

type stubMarket struct {
	instruments []models.Instrument
	history     []models.PricePoint
	depth       models.DepthSnapshot
	trades      []models.Trade
	historyErr  error
}

func (m *stubMarket) MarketWatch(ctx context.Context) ([]models.Instrument, error) {
	return m.instruments, nil
}

func (m *stubMarket) AssetDetail(ctx context.Context, assetID string) (models.StaticAttrs, error) {
	return models.StaticAttrs{Symbol: assetID, Name: assetID, MarketCap: 10_000_000}, nil
}

func (m *stubMarket) History(ctx context.Context, assetID string, from, to time.Time) ([]models.PricePoint, error) {
	return m.history, m.historyErr
}

func (m *stubMarket) HistoryBack(ctx context.Context, assetID string, minPoints int) ([]models.PricePoint, error) {
	return m.history, m.historyErr
}

func (m *stubMarket) Depth(ctx context.Context, assetID string) (models.DepthSnapshot, error) {
	return m.depth, nil
}

func (m *stubMarket) RecentTrades(ctx context.Context, assetID string) ([]models.Trade, error) {
	return m.trades, nil
}

type stubStore struct {
	mu        sync.Mutex
	inserted  []*models.Signal
	insertErr error
	recs      []models.Recommendation
	recsErr   error
}

func (s *stubStore) Insert(ctx context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, sig)
	return s.insertErr
}

func (s *stubStore) TodayRecommendations(ctx context.Context, minStrength float64, limit int) ([]models.Recommendation, error) {
	return s.recs, s.recsErr
}

func (s *stubStore) Close() error { return nil }

type stubPublisher struct {
	mu        sync.Mutex
	published []*models.Signal
}

func (p *stubPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, sig)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

type stubNotifier struct {
	mu        sync.Mutex
	broadcast []*models.Signal
	alerts    []string
	polls     int
}

func (n *stubNotifier) BroadcastSignal(ctx context.Context, sig *models.Signal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcast = append(n.broadcast, sig)
	return nil
}

func (n *stubNotifier) SendAlert(ctx context.Context, kind, text, priority string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, kind)
	return nil
}

func (n *stubNotifier) ProcessUpdates(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.polls++
	return nil
}

type stubMetrics struct {
	mu       sync.Mutex
	cycles   int
	signals  map[string]int
	universe int
}

func (m *stubMetrics) RecordCycle(time.Duration)      { m.mu.Lock(); m.cycles++; m.mu.Unlock() }
func (m *stubMetrics) RecordFetchError(string)        {}
func (m *stubMetrics) RecordAlert(string)             {}
func (m *stubMetrics) RecordGateWait(time.Duration)   {}
func (m *stubMetrics) RecordLastPrice(string, float64) {}

func (m *stubMetrics) RecordSignal(signalType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signals == nil {
		m.signals = make(map[string]int)
	}
	m.signals[signalType]++
}

func (m *stubMetrics) SetUniverseSize(n int) { m.mu.Lock(); m.universe = n; m.mu.Unlock() }

func bullishHistory(n int) []models.PricePoint {
	out := make([]models.PricePoint, n)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := range out {
		c := 10 + float64(i)*0.05 + math.Sin(float64(i))*0.01
		out[i] = models.PricePoint{
			Time: base.Add(time.Duration(i) * time.Minute),
			Open: c * 0.999, High: c * 1.004, Low: c * 0.996, Close: c,
			Volume: 20_000,
		}
	}
	return out
}

func bullishTrades(n int) []models.Trade {
	out := make([]models.Trade, n)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.Trade{
			Side: models.SideBuy, Price: 12, Volume: 20_000, Value: 240_000,
			Time: base.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

func newTestScanner(t *testing.T, market *stubMarket, store *stubStore, pub *stubPublisher, notif *stubNotifier, metrics *stubMetrics) *Scanner {
	t.Helper()

	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	uni := universe.NewCache(market, pkgcache.NewMemoryCache(), logger, universe.FilterConfig{
		MinPrice: 1, MaxPrice: 1000, MinMarketCap: 1,
	}, 4)
	scorer := signal.NewScorer(signal.ScorerConfig{
		ADXThreshold:                20,
		RSIOverbought:               75,
		BuyPressureThreshold:        0.6,
		InstitutionalRatioThreshold: 0.5,
		BidAskMargin:                1.0,
		MaxSpreadRatio:              0.01,
		MinTechnicalScore:           1,
		MinFlowScore:                1,
		MinDepthScore:               1,
	})
	risk := signal.NewRiskEngine(signal.RiskConfig{
		ATRMultiplier: 2, StructuralLookback: 10, StructuralBuffer: 0.02,
		FallbackStopPct: 0.05, MinRiskReward: 2,
		AccountRiskCapital: 100_000, RiskFraction: 0.01,
	})

	return NewScanner(
		ScanConfig{
			Interval:          time.Minute,
			ErrorBackoff:      time.Minute,
			BatchSize:         2,
			MinPoints:         analysis.MinHistoryPoints,
			MinSignalStrength: 0.3,
			TelegramEnabled:   true,
		},
		uni, market, analysis.NewTradeFlowAnalyzer(100_000),
		scorer, risk, signal.NewNotificationThrottle(0.05),
		store, pub, notif, metrics, logger,
	)
}

func bullishMarket() *stubMarket {
	return &stubMarket{
		instruments: []models.Instrument{{AssetID: "a1", Symbol: "a1", LastPrice: 12, ChangePct: 1.5}},
		history:     bullishHistory(60),
		depth:       models.DepthSnapshot{BidVolume: 300, AskVolume: 100, Spread: 0.05},
		trades:      bullishTrades(12),
	}
}

func TestRunCycleEmitsSignal(t *testing.T) {
	market := bullishMarket()
	store := &stubStore{}
	pub := &stubPublisher{}
	notif := &stubNotifier{}
	metrics := &stubMetrics{}

	sc := newTestScanner(t, market, store, pub, notif, metrics)
	if err := sc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d signals, want 1", len(store.inserted))
	}
	sig := store.inserted[0]
	if sig.Type == models.SignalNeutral {
		t.Errorf("emitted a NEUTRAL signal")
	}
	if sig.Strength < 0.3 {
		t.Errorf("strength = %v, want >= 0.3", sig.Strength)
	}
	if !(sig.Risk.StopLoss < sig.Risk.EntryPrice && sig.Risk.EntryPrice < sig.Risk.TakeProfit) {
		t.Errorf("risk bracket violated: %+v", sig.Risk)
	}
	if len(pub.published) != 1 || len(notif.broadcast) != 1 {
		t.Errorf("published/broadcast = %d/%d, want 1/1", len(pub.published), len(notif.broadcast))
	}
	if metrics.cycles != 1 || metrics.universe != 1 {
		t.Errorf("metrics cycles/universe = %d/%d, want 1/1", metrics.cycles, metrics.universe)
	}
}

func TestRunCycleThrottlesRepeatSignal(t *testing.T) {
	market := bullishMarket()
	store := &stubStore{}
	notif := &stubNotifier{}

	sc := newTestScanner(t, market, store, &stubPublisher{}, notif, &stubMetrics{})
	for i := 0; i < 2; i++ {
		if err := sc.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle #%d: %v", i, err)
		}
	}

	if len(store.inserted) != 1 {
		t.Errorf("inserted = %d, want 1 (second cycle throttled)", len(store.inserted))
	}
}

func TestRunCycleSkipsShortHistory(t *testing.T) {
	market := bullishMarket()
	market.history = bullishHistory(10)
	store := &stubStore{}

	sc := newTestScanner(t, market, store, &stubPublisher{}, &stubNotifier{}, &stubMetrics{})
	if err := sc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("inserted = %d, want 0 for short history", len(store.inserted))
	}
}

func TestRunCycleContinuesPastStoreFailure(t *testing.T) {
	market := bullishMarket()
	store := &stubStore{insertErr: errors.New("clickhouse down")}
	pub := &stubPublisher{}

	sc := newTestScanner(t, market, store, pub, &stubNotifier{}, &stubMetrics{})
	if err := sc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle should not fail on sink error: %v", err)
	}
	if len(pub.published) != 1 {
		t.Errorf("published = %d, want 1 even when store insert fails", len(pub.published))
	}
}

func TestRunPollsSubscribersAndStopsOnCancel(t *testing.T) {
	market := bullishMarket()
	notif := &stubNotifier{}

	sc := newTestScanner(t, market, &stubStore{}, &stubPublisher{}, notif, &stubMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	notif.mu.Lock()
	polls := notif.polls
	notif.mu.Unlock()
	if polls == 0 {
		t.Error("expected at least one subscriber poll")
	}
}
