package thndr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/service/ratelimit"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// Config holds the vendor endpoint parameters. Market is the exchange
// selector sent on the marketwatch query; MarketID is the board the
// quote list is filtered to afterwards.
type Config struct {
	BaseURL        string
	AuthToken      string
	Market         string
	MarketID       string
	Resolution     string
	ChunkMinutes   int
	MaxChunks      int
	TradesPageSize int
}

// Client is the REST market-data client. Every outbound call passes
// through the concurrency gate.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	gate    *ratelimit.Gate
	logger  *applogger.Logger
	metrics repository.Metrics
}

var _ repository.MarketData = (*Client)(nil)

func NewClient(cfg Config, httpClient *xhttp.Client, gate *ratelimit.Gate, logger *applogger.Logger, metrics repository.Metrics) *Client {
	if cfg.ChunkMinutes <= 0 {
		cfg.ChunkMinutes = 150
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 4
	}
	if cfg.TradesPageSize <= 0 {
		cfg.TradesPageSize = 50
	}
	if cfg.Market == "" {
		cfg.Market = "egypt"
	}
	return &Client{cfg: cfg, http: httpClient, gate: gate, logger: logger, metrics: metrics}
}

// get performs one gated GET and decodes the JSON response into dest.
func (c *Client) get(ctx context.Context, endpoint, path string, query map[string][]string, dest interface{}) error {
	queued := time.Now()
	err := c.gate.Do(ctx, func(ctx context.Context) error {
		c.metrics.RecordGateWait(time.Since(queued))
		return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.cfg.BaseURL + path,
			QueryParams: query,
			Headers: map[string]string{
				"Authorization": "Bearer " + c.cfg.AuthToken,
				"Accept":        "application/json",
			},
		}, dest)
	})
	if err != nil {
		c.metrics.RecordFetchError(endpoint)
	}
	return err
}

type marketWatchResponse struct {
	Assets []struct {
		AssetID        string      `json:"asset_id"`
		Symbol         string      `json:"symbol"`
		Name           string      `json:"name"`
		MarketID       string      `json:"market_id"`
		LastTradePrice json.Number `json:"last_trade_price"`
		ChangePct      json.Number `json:"change_percentage"`
	} `json:"assets"`
}

// MarketWatch returns the live quote list filtered to the configured
// main-board market.
func (c *Client) MarketWatch(ctx context.Context) ([]models.Instrument, error) {
	var resp marketWatchResponse
	query := map[string][]string{"market": {c.cfg.Market}}
	if err := c.get(ctx, "marketwatch", "/assets/marketwatch", query, &resp); err != nil {
		return nil, fmt.Errorf("market watch: %w", err)
	}

	out := make([]models.Instrument, 0, len(resp.Assets))
	for _, a := range resp.Assets {
		if a.MarketID != c.cfg.MarketID {
			continue
		}
		out = append(out, models.Instrument{
			AssetID:   a.AssetID,
			Symbol:    a.Symbol,
			Name:      a.Name,
			LastPrice: numberOr(a.LastTradePrice, 0),
			ChangePct: numberOr(a.ChangePct, 0),
		})
	}
	return out, nil
}

type assetDetailResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Feed     struct {
		MarketCap     json.Number `json:"market_cap"`
		AverageVolume json.Number `json:"average_volume"`
	} `json:"feed"`
}

// AssetDetail fetches the once-daily static attributes for one asset.
func (c *Client) AssetDetail(ctx context.Context, assetID string) (models.StaticAttrs, error) {
	var resp assetDetailResponse
	query := map[string][]string{
		"include_feed": {"true"},
		"feed_detail":  {"true"},
	}
	if err := c.get(ctx, "asset_detail", "/assets/"+assetID, query, &resp); err != nil {
		return models.StaticAttrs{}, fmt.Errorf("asset detail %s: %w", assetID, err)
	}
	return models.StaticAttrs{
		Symbol:         resp.Symbol,
		Name:           resp.Name,
		Sector:         resp.Industry,
		MarketCap:      numberOr(resp.Feed.MarketCap, 0),
		AvgDailyVolume: numberOr(resp.Feed.AverageVolume, 0),
	}, nil
}

type chartResponse struct {
	Points []struct {
		Time   json.Number `json:"time"`
		Open   json.Number `json:"open"`
		High   json.Number `json:"high"`
		Low    json.Number `json:"low"`
		Close  json.Number `json:"close"`
		Volume json.Number `json:"volume"`
	} `json:"points"`
}

// History fetches chart points for [from, to] at the configured
// resolution.
func (c *Client) History(ctx context.Context, assetID string, from, to time.Time) ([]models.PricePoint, error) {
	var resp chartResponse
	query := map[string][]string{
		"asset_id":       {assetID},
		"resolution":     {c.cfg.Resolution},
		"from_timestamp": {strconv.FormatInt(from.UnixMilli(), 10)},
		"to_timestamp":   {strconv.FormatInt(to.UnixMilli(), 10)},
	}
	if err := c.get(ctx, "history", "/charts/advanced", query, &resp); err != nil {
		return nil, fmt.Errorf("history %s: %w", assetID, err)
	}

	out := make([]models.PricePoint, 0, len(resp.Points))
	for _, p := range resp.Points {
		t, ok := parsePointTime(p.Time)
		if !ok {
			continue
		}
		// A bar missing any price field is unusable; defaulting it to
		// zero would poison every indicator downstream.
		open, okO := positiveNumber(p.Open)
		high, okH := positiveNumber(p.High)
		low, okL := positiveNumber(p.Low)
		cls, okC := positiveNumber(p.Close)
		if !okO || !okH || !okL || !okC {
			continue
		}
		out = append(out, models.PricePoint{
			Time:   t,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
			Volume: numberOr(p.Volume, 0),
		})
	}
	return out, nil
}

// HistoryBack walks backward in fixed-size chunks from now until at
// least minPoints bars are accumulated or the chunk budget runs out.
func (c *Client) HistoryBack(ctx context.Context, assetID string, minPoints int) ([]models.PricePoint, error) {
	chunk := time.Duration(c.cfg.ChunkMinutes) * time.Minute
	to := time.Now()

	seen := make(map[int64]struct{})
	var points []models.PricePoint
	for i := 0; i < c.cfg.MaxChunks && len(points) < minPoints; i++ {
		from := to.Add(-chunk)
		batch, err := c.History(ctx, assetID, from, to)
		if err != nil {
			if len(points) > 0 {
				// Partial history is still usable downstream.
				c.logger.Warn("history walk-back aborted",
					applogger.String("asset_id", assetID),
					applogger.Int("points", len(points)),
					applogger.Error(err))
				break
			}
			return nil, err
		}
		for _, p := range batch {
			key := p.Time.UnixMilli()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			points = append(points, p)
		}
		to = from
	}

	models.SortPricePoints(points)
	return points, nil
}

type depthResponse struct {
	Bids []depthLevel `json:"bids_per_price"`
	Asks []depthLevel `json:"asks_per_price"`
}

type depthLevel struct {
	OrderPrice   json.Number `json:"order_price"`
	VolumeTraded json.Number `json:"volume_traded"`
}

// Depth returns the aggregated order book; the zero snapshot when the
// book is empty.
func (c *Client) Depth(ctx context.Context, assetID string) (models.DepthSnapshot, error) {
	var resp depthResponse
	if err := c.get(ctx, "depth", "/market-depth/"+assetID, nil, &resp); err != nil {
		return models.DepthSnapshot{}, fmt.Errorf("depth %s: %w", assetID, err)
	}

	var snap models.DepthSnapshot
	bestBid, bestAsk := 0.0, 0.0
	for _, b := range resp.Bids {
		snap.BidVolume += numberOr(b.VolumeTraded, 0)
		if p := numberOr(b.OrderPrice, 0); p > bestBid {
			bestBid = p
		}
	}
	for _, a := range resp.Asks {
		snap.AskVolume += numberOr(a.VolumeTraded, 0)
		if p := numberOr(a.OrderPrice, 0); p > 0 && (bestAsk == 0 || p < bestAsk) {
			bestAsk = p
		}
	}
	if bestBid > 0 && bestAsk > 0 {
		snap.Spread = bestAsk - bestBid
	}
	return snap, nil
}

type tradesResponse struct {
	Trades []json.RawMessage `json:"trades"`
}

// RecentTrades fetches one page of the trade tape. Records that cannot
// be normalized are skipped with a warning.
func (c *Client) RecentTrades(ctx context.Context, assetID string) ([]models.Trade, error) {
	var resp tradesResponse
	query := map[string][]string{
		"page_size": {strconv.Itoa(c.cfg.TradesPageSize)},
	}
	if err := c.get(ctx, "trades", "/market-depth/v2/trades-book/"+assetID, query, &resp); err != nil {
		return nil, fmt.Errorf("trades %s: %w", assetID, err)
	}

	out := make([]models.Trade, 0, len(resp.Trades))
	for _, raw := range resp.Trades {
		trade, err := NormalizeTrade(raw)
		if err != nil {
			c.logger.Warn("dropping unusable trade record",
				applogger.String("asset_id", assetID),
				applogger.Error(err))
			continue
		}
		out = append(out, trade)
	}
	return out, nil
}

// tradeRecord tolerates the field spellings observed across vendor
// deployments.
type tradeRecord struct {
	Side       string      `json:"side"`
	Type       string      `json:"type"`
	Direction  string      `json:"direction"`
	Price      json.Number `json:"price"`
	TradePrice json.Number `json:"trade_price"`
	Volume     json.Number `json:"volume"`
	Qty        json.Number `json:"qty"`
	Quantity   json.Number `json:"quantity"`
	Value      json.Number `json:"value"`
	Time       json.Number `json:"time"`
	Timestamp  json.Number `json:"timestamp"`
	CreatedAt  string      `json:"created_at"`
}

// ErrUnusableTrade marks a record carrying neither a price nor a
// volume under any known spelling.
var ErrUnusableTrade = errors.New("trade record has no usable price or volume")

// NormalizeTrade maps one raw vendor trade onto the canonical form.
func NormalizeTrade(raw json.RawMessage) (models.Trade, error) {
	var rec tradeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Trade{}, fmt.Errorf("decode trade: %w", err)
	}

	price := firstNumber(rec.Price, rec.TradePrice)
	volume := firstNumber(rec.Volume, rec.Qty, rec.Quantity)
	if price <= 0 && volume <= 0 {
		return models.Trade{}, ErrUnusableTrade
	}

	value := firstNumber(rec.Value)
	if value == 0 {
		value = price * volume
	}

	trade := models.Trade{
		Side:   parseSide(rec.Side, rec.Type, rec.Direction),
		Price:  price,
		Volume: volume,
		Value:  value,
		Time:   parseTradeTime(rec),
	}
	return trade, nil
}

func parseSide(candidates ...string) models.TradeSide {
	for _, s := range candidates {
		switch s {
		case "BUY", "buy", "B":
			return models.SideBuy
		case "SELL", "sell", "S":
			return models.SideSell
		}
	}
	return models.SideUnknown
}

func parseTradeTime(rec tradeRecord) time.Time {
	for _, n := range []json.Number{rec.Time, rec.Timestamp} {
		if t, ok := parsePointTime(n); ok {
			return t
		}
	}
	if t, ok := util.ParseTime(rec.CreatedAt); ok {
		return t
	}
	return time.Time{}
}

// parsePointTime accepts epoch seconds or milliseconds.
func parsePointTime(n json.Number) (time.Time, bool) {
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return time.Time{}, false
		}
		v = int64(f)
	}
	if v <= 0 {
		return time.Time{}, false
	}
	if v > 1e12 {
		return time.UnixMilli(v), true
	}
	return time.Unix(v, 0), true
}

// positiveNumber parses n and reports whether it is a positive finite
// value. Absent and malformed fields both fail.
func positiveNumber(n json.Number) (float64, bool) {
	if n == "" {
		return 0, false
	}
	v, err := n.Float64()
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

func numberOr(n json.Number, def float64) float64 {
	if n == "" {
		return def
	}
	v, err := n.Float64()
	if err != nil {
		return def
	}
	return v
}

func firstNumber(nums ...json.Number) float64 {
	for _, n := range nums {
		if v := numberOr(n, 0); v != 0 {
			return v
		}
	}
	return 0
}
