package universe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

const defaultDetailBatch = 4

// FilterConfig bounds the instrument universe.
type FilterConfig struct {
	MinPrice     float64
	MaxPrice     float64
	MinMarketCap float64
	Blacklist    []string
}

// Cache maintains the per-day eligible instrument set. Live price
// fields are re-fetched every call; static attributes (market cap,
// sector, average volume) are cached for the calendar day, backed by
// the shared cache layer so a same-day restart does not refetch the
// whole exchange.
type Cache struct {
	market      repository.MarketData
	store       cache.Service
	logger      *applogger.Logger
	filter      FilterConfig
	blacklist   map[string]struct{}
	detailBatch int

	mu          sync.Mutex
	static      map[string]models.StaticAttrs
	lastRefresh time.Time
	now         func() time.Time
}

// NewCache builds the universe cache. detailBatch bounds how many
// AssetDetail fetches run in flight at once on a cold cache.
func NewCache(market repository.MarketData, store cache.Service, logger *applogger.Logger, filter FilterConfig, detailBatch int) *Cache {
	if detailBatch <= 0 {
		detailBatch = defaultDetailBatch
	}
	bl := make(map[string]struct{}, len(filter.Blacklist))
	for _, s := range filter.Blacklist {
		bl[s] = struct{}{}
	}
	return &Cache{
		market:      market,
		store:       store,
		logger:      logger,
		filter:      filter,
		blacklist:   bl,
		detailBatch: detailBatch,
		static:      make(map[string]models.StaticAttrs),
		now:         time.Now,
	}
}

// Universe returns this cycle's eligible instruments with fresh live
// prices and day-cached static attributes. Instruments whose detail
// fetch fails are dropped from the cycle.
func (c *Cache) Universe(ctx context.Context) ([]models.Instrument, error) {
	c.mu.Lock()
	now := c.now()
	if !util.SameDay(c.lastRefresh, now) {
		c.static = make(map[string]models.StaticAttrs)
		c.lastRefresh = now
	}
	c.mu.Unlock()

	quotes, err := c.market.MarketWatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("market watch: %w", err)
	}

	prelim := make([]models.Instrument, 0, len(quotes))
	for _, inst := range quotes {
		if inst.LastPrice < c.filter.MinPrice || (c.filter.MaxPrice > 0 && inst.LastPrice > c.filter.MaxPrice) {
			continue
		}
		prelim = append(prelim, inst)
	}

	var out []models.Instrument
	for i := 0; i < len(prelim); i += c.detailBatch {
		end := i + c.detailBatch
		if end > len(prelim) {
			end = len(prelim)
		}

		// nil slots mark instruments dropped by a failed detail fetch.
		enriched := make([]*models.Instrument, end-i)
		var wg sync.WaitGroup
		for j, inst := range prelim[i:end] {
			wg.Add(1)
			go func(j int, inst models.Instrument) {
				defer wg.Done()

				attrs, err := c.staticAttrs(ctx, inst.AssetID)
				if err != nil {
					c.logger.Warn("dropping instrument for this cycle",
						applogger.String("asset_id", inst.AssetID),
						applogger.String("symbol", inst.Symbol),
						applogger.Error(err))
					return
				}

				inst.Name = pick(attrs.Name, inst.Name)
				inst.Symbol = pick(attrs.Symbol, inst.Symbol)
				inst.Sector = attrs.Sector
				inst.MarketCap = attrs.MarketCap
				inst.AvgDailyVolume = attrs.AvgDailyVolume
				enriched[j] = &inst
			}(j, inst)
		}
		wg.Wait()

		for _, inst := range enriched {
			if inst == nil {
				continue
			}
			if inst.MarketCap < c.filter.MinMarketCap {
				continue
			}
			if _, banned := c.blacklist[inst.Symbol]; banned {
				continue
			}
			out = append(out, *inst)
		}
	}
	return out, nil
}

// staticAttrs serves from the in-process day map, then the shared
// cache, then the vendor.
func (c *Cache) staticAttrs(ctx context.Context, assetID string) (models.StaticAttrs, error) {
	c.mu.Lock()
	if attrs, ok := c.static[assetID]; ok {
		c.mu.Unlock()
		return attrs, nil
	}
	c.mu.Unlock()

	key := c.cacheKey(assetID)
	var attrs models.StaticAttrs
	if err := c.store.Get(ctx, key, &attrs); err == nil {
		c.remember(assetID, attrs)
		return attrs, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Debug("static attribute cache read failed",
			applogger.String("asset_id", assetID),
			applogger.Error(err))
	}

	attrs, err := c.market.AssetDetail(ctx, assetID)
	if err != nil {
		return models.StaticAttrs{}, err
	}

	if err := c.store.Set(ctx, key, attrs, ttlUntilMidnight(c.now())); err != nil {
		c.logger.Debug("static attribute cache write failed",
			applogger.String("asset_id", assetID),
			applogger.Error(err))
	}
	c.remember(assetID, attrs)
	return attrs, nil
}

func (c *Cache) remember(assetID string, attrs models.StaticAttrs) {
	c.mu.Lock()
	c.static[assetID] = attrs
	c.mu.Unlock()
}

// cacheKey scopes entries to the calendar day, so stale entries expire
// naturally even without the TTL.
func (c *Cache) cacheKey(assetID string) string {
	return cache.GenerateKeyWithParams("universe:static", c.now().Format("2006-01-02"), assetID)
}

func ttlUntilMidnight(now time.Time) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
