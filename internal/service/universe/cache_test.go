package universe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
)

type fakeMarket struct {
	instruments []models.Instrument
	details     map[string]models.StaticAttrs
	detailErr   map[string]error
	detailDelay time.Duration

	mu           sync.Mutex
	detailCalls  map[string]int
	inFlight     int
	peakInFlight int
}

func (f *fakeMarket) MarketWatch(ctx context.Context) ([]models.Instrument, error) {
	return f.instruments, nil
}

func (f *fakeMarket) AssetDetail(ctx context.Context, assetID string) (models.StaticAttrs, error) {
	f.mu.Lock()
	if f.detailCalls == nil {
		f.detailCalls = make(map[string]int)
	}
	f.detailCalls[assetID]++
	f.inFlight++
	if f.inFlight > f.peakInFlight {
		f.peakInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.detailDelay > 0 {
		time.Sleep(f.detailDelay)
	}

	f.mu.Lock()
	f.inFlight--
	err := f.detailErr[assetID]
	attrs := f.details[assetID]
	f.mu.Unlock()

	if err != nil {
		return models.StaticAttrs{}, err
	}
	return attrs, nil
}

func (f *fakeMarket) History(ctx context.Context, assetID string, from, to time.Time) ([]models.PricePoint, error) {
	return nil, nil
}

func (f *fakeMarket) HistoryBack(ctx context.Context, assetID string, minPoints int) ([]models.PricePoint, error) {
	return nil, nil
}

func (f *fakeMarket) Depth(ctx context.Context, assetID string) (models.DepthSnapshot, error) {
	return models.DepthSnapshot{}, nil
}

func (f *fakeMarket) RecentTrades(ctx context.Context, assetID string) ([]models.Trade, error) {
	return nil, nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testFilter() FilterConfig {
	return FilterConfig{
		MinPrice:     1,
		MaxPrice:     100,
		MinMarketCap: 1_000_000,
		Blacklist:    []string{"BANNED"},
	}
}

func newTestCache(t *testing.T, market *fakeMarket) *Cache {
	t.Helper()
	return NewCache(market, pkgcache.NewMemoryCache(), testLogger(t), testFilter(), 4)
}

func TestUniverseFetchesDetailsInBatches(t *testing.T) {
	instruments := make([]models.Instrument, 8)
	details := make(map[string]models.StaticAttrs, 8)
	for i := range instruments {
		id := string(rune('a'+i)) + "1"
		instruments[i] = models.Instrument{AssetID: id, Symbol: "S" + id, LastPrice: 10}
		details[id] = models.StaticAttrs{Symbol: "S" + id, MarketCap: 5_000_000}
	}
	market := &fakeMarket{
		instruments: instruments,
		details:     details,
		detailDelay: 20 * time.Millisecond,
	}

	got, err := NewCache(market, pkgcache.NewMemoryCache(), testLogger(t), testFilter(), 4).Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("universe size = %d, want 8", len(got))
	}
	if market.peakInFlight < 2 {
		t.Errorf("peak in-flight detail fetches = %d, want concurrent fan-out", market.peakInFlight)
	}
	if market.peakInFlight > 4 {
		t.Errorf("peak in-flight detail fetches = %d, want at most the batch size 4", market.peakInFlight)
	}
}

func TestUniverseFilters(t *testing.T) {
	market := &fakeMarket{
		instruments: []models.Instrument{
			{AssetID: "a1", Symbol: "GOOD", LastPrice: 10},
			{AssetID: "a2", Symbol: "CHEAP", LastPrice: 0.5},    // below price band
			{AssetID: "a3", Symbol: "PRICY", LastPrice: 500},    // above price band
			{AssetID: "a4", Symbol: "SMALL", LastPrice: 10},     // market cap too low
			{AssetID: "a5", Symbol: "BANNED", LastPrice: 10},    // blacklisted
		},
		details: map[string]models.StaticAttrs{
			"a1": {Symbol: "GOOD", Name: "Good Co", Sector: "Banks", MarketCap: 5_000_000},
			"a4": {Symbol: "SMALL", MarketCap: 500},
			"a5": {Symbol: "BANNED", MarketCap: 5_000_000},
		},
	}

	got, err := newTestCache(t, market).Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "GOOD" {
		t.Fatalf("universe = %+v, want only GOOD", got)
	}
	if got[0].Sector != "Banks" || got[0].MarketCap != 5_000_000 {
		t.Errorf("static attrs not merged: %+v", got[0])
	}

	// Pre-filtered instruments must not trigger a detail fetch.
	if market.detailCalls["a2"] != 0 || market.detailCalls["a3"] != 0 {
		t.Errorf("detail fetched for price-filtered instruments: %v", market.detailCalls)
	}
}

func TestUniverseCachesStaticAttrsWithinDay(t *testing.T) {
	market := &fakeMarket{
		instruments: []models.Instrument{{AssetID: "a1", Symbol: "GOOD", LastPrice: 10}},
		details: map[string]models.StaticAttrs{
			"a1": {Symbol: "GOOD", MarketCap: 5_000_000},
		},
	}
	c := newTestCache(t, market)

	for i := 0; i < 3; i++ {
		if _, err := c.Universe(context.Background()); err != nil {
			t.Fatalf("Universe #%d: %v", i, err)
		}
	}
	if market.detailCalls["a1"] != 1 {
		t.Errorf("detail calls = %d, want 1 (cached after first)", market.detailCalls["a1"])
	}
}

func TestUniverseInvalidatesOnDayRollover(t *testing.T) {
	market := &fakeMarket{
		instruments: []models.Instrument{{AssetID: "a1", Symbol: "GOOD", LastPrice: 10}},
		details: map[string]models.StaticAttrs{
			"a1": {Symbol: "GOOD", MarketCap: 5_000_000},
		},
	}
	c := newTestCache(t, market)

	clock := time.Date(2025, 5, 1, 10, 0, 0, 0, time.Local)
	c.now = func() time.Time { return clock }

	if _, err := c.Universe(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(24 * time.Hour)
	if _, err := c.Universe(context.Background()); err != nil {
		t.Fatal(err)
	}

	if market.detailCalls["a1"] != 2 {
		t.Errorf("detail calls = %d, want 2 after rollover", market.detailCalls["a1"])
	}
}

func TestUniverseDropsFailedDetailFetch(t *testing.T) {
	market := &fakeMarket{
		instruments: []models.Instrument{
			{AssetID: "a1", Symbol: "GOOD", LastPrice: 10},
			{AssetID: "a2", Symbol: "FLAKY", LastPrice: 10},
		},
		details: map[string]models.StaticAttrs{
			"a1": {Symbol: "GOOD", MarketCap: 5_000_000},
		},
		detailErr: map[string]error{
			"a2": errors.New("upstream timeout"),
		},
	}

	got, err := newTestCache(t, market).Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "GOOD" {
		t.Fatalf("universe = %+v, want FLAKY dropped, GOOD kept", got)
	}
}
