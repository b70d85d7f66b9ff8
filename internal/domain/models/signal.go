package models

import "time"

// SignalType is the categorical outcome of one instrument evaluation.
type SignalType string

const (
	SignalNeutral   SignalType = "NEUTRAL"
	SignalBuy       SignalType = "BUY"
	SignalStrongBuy SignalType = "STRONG_BUY"
)

// ComponentScores are the three condition counts behind a signal.
type ComponentScores struct {
	Technical   int `json:"technical"`
	TradeFlow   int `json:"trade_flow"`
	MarketDepth int `json:"market_depth"`
}

// Total is the summed score across all three components.
func (s ComponentScores) Total() int {
	return s.Technical + s.TradeFlow + s.MarketDepth
}

// RiskMetrics are the exit and sizing levels derived for a signal.
// When all inputs are valid: StopLoss < EntryPrice < TakeProfit.
type RiskMetrics struct {
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	EntryPrice float64 `json:"entry_price"`
	Shares     int64   `json:"shares"`
	Notional   float64 `json:"notional"`
}

// Signal is the full evaluation of one instrument in one scan cycle.
// Immutable once created; ownership passes to the store and alert path.
type Signal struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Sector     string          `json:"sector"`
	Timestamp  time.Time       `json:"timestamp"`
	Price      float64         `json:"price"`
	ChangePct  float64         `json:"change_pct"`
	MarketCap  float64         `json:"market_cap"`
	Type       SignalType      `json:"signal_type"`
	Strength   float64         `json:"signal_strength"`
	Scores     ComponentScores `json:"component_scores"`
	Indicators IndicatorSet    `json:"technical_indicators"`
	Flow       TradeFlow       `json:"trade_flow"`
	Depth      DepthSnapshot   `json:"market_depth"`
	Risk       RiskMetrics     `json:"risk_metrics"`
}
