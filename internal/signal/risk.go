package signal

import (
	"math"

	"StockPulse/internal/domain/models"
)

// RiskConfig carries stop, target, and sizing parameters.
type RiskConfig struct {
	ATRMultiplier      float64
	StructuralLookback int
	StructuralBuffer   float64
	FallbackStopPct    float64
	MinRiskReward      float64
	AccountRiskCapital float64
	RiskFraction       float64
}

// RiskEngine derives entry, stop, target, and position size for a buy
// candidate. When price and ATR are positive the result always
// satisfies stop < entry < take-profit.
type RiskEngine struct {
	cfg RiskConfig
}

func NewRiskEngine(cfg RiskConfig) *RiskEngine {
	return &RiskEngine{cfg: cfg}
}

// Assess computes risk metrics from the last price, the indicator set,
// and the price history used to build it.
func (e *RiskEngine) Assess(price float64, ind *models.IndicatorSet, history []models.PricePoint) models.RiskMetrics {
	entry := e.entryPrice(price, ind)
	stop := e.stopLoss(entry, price, ind, history)
	tp := entry + e.cfg.MinRiskReward*(entry-stop)

	shares := int64(0)
	if dist := entry - stop; dist > 0 {
		shares = int64(math.Floor(e.cfg.AccountRiskCapital * e.cfg.RiskFraction / dist))
		if shares < 0 {
			shares = 0
		}
	}

	return models.RiskMetrics{
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: tp,
		Shares:     shares,
		Notional:   float64(shares) * entry,
	}
}

// entryPrice pulls an extended price back toward the mid-band: when
// the last price trades above the Bollinger mid, average the two.
func (e *RiskEngine) entryPrice(price float64, ind *models.IndicatorSet) float64 {
	if ind != nil && ind.BBMid != nil && *ind.BBMid > 0 && price > *ind.BBMid {
		return (price + *ind.BBMid) / 2
	}
	return price
}

// stopLoss places the stop below both the volatility stop and the
// structural stop under the recent low. Falls back to a fixed percent
// below entry when ATR or price is unusable.
func (e *RiskEngine) stopLoss(entry, price float64, ind *models.IndicatorSet, history []models.PricePoint) float64 {
	if price <= 0 || ind == nil || ind.ATR == nil || *ind.ATR <= 0 {
		return entry * (1 - e.cfg.FallbackStopPct)
	}

	stop := entry - *ind.ATR*e.cfg.ATRMultiplier
	if low, ok := e.recentLow(history); ok {
		structural := low * (1 - e.cfg.StructuralBuffer)
		if structural < stop {
			stop = structural
		}
	}
	if stop >= entry {
		// Structural data above entry would invert the bracket.
		stop = entry * (1 - e.cfg.FallbackStopPct)
	}
	return stop
}

func (e *RiskEngine) recentLow(history []models.PricePoint) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}
	window := history
	if e.cfg.StructuralLookback > 0 && len(history) > e.cfg.StructuralLookback {
		window = history[len(history)-e.cfg.StructuralLookback:]
	}
	low := window[0].Low
	for _, p := range window[1:] {
		if p.Low < low {
			low = p.Low
		}
	}
	if low <= 0 {
		return 0, false
	}
	return low, true
}
