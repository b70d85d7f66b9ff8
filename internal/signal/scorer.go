package signal

import (
	"StockPulse/internal/domain/models"
)

// Technical condition names accepted in configuration. An empty
// condition list enables all of them.
const (
	CondADXTrend         = "adx_trend"
	CondMACDAboveSignal  = "macd_above_signal"
	CondMACDHistPositive = "macd_hist_positive"
	CondRSINotOverbought = "rsi_not_overbought"
	CondStochBullish     = "stoch_bullish_cross"
	CondCloseAboveMid    = "close_above_mid_band"
	CondCloseAboveSMA20  = "close_above_sma20"
)

var allTechnicalConditions = []string{
	CondADXTrend,
	CondMACDAboveSignal,
	CondMACDHistPositive,
	CondRSINotOverbought,
	CondStochBullish,
	CondCloseAboveMid,
	CondCloseAboveSMA20,
}

// Flow and depth each contribute two conditions.
const (
	maxFlowScore  = 2
	maxDepthScore = 2
)

// ScorerConfig carries the condition thresholds and the enabled
// technical condition set.
type ScorerConfig struct {
	ADXThreshold                float64
	RSIOverbought               float64
	BuyPressureThreshold        float64
	InstitutionalRatioThreshold float64
	BidAskMargin                float64
	MaxSpreadRatio              float64
	TechnicalConditions         []string
	MinTechnicalScore           int
	MinFlowScore                int
	MinDepthScore               int
}

// Scorer counts boolean conditions over indicators, trade flow, and
// market depth, and maps the counts onto a signal type.
type Scorer struct {
	cfg        ScorerConfig
	conditions []string
}

func NewScorer(cfg ScorerConfig) *Scorer {
	conditions := cfg.TechnicalConditions
	if len(conditions) == 0 {
		conditions = allTechnicalConditions
	}
	return &Scorer{cfg: cfg, conditions: conditions}
}

// Score evaluates one instrument. Nil indicator values fail their
// condition rather than erroring. The same inputs always produce the
// same scores.
func (s *Scorer) Score(ind *models.IndicatorSet, flow models.TradeFlow, depth models.DepthSnapshot) (models.ComponentScores, models.SignalType, float64) {
	scores := models.ComponentScores{
		Technical: s.technicalScore(ind),
		TradeFlow: s.flowScore(flow),
		MarketDepth: s.depthScore(depth, func() float64 {
			if ind != nil {
				return ind.Close
			}
			return 0
		}()),
	}

	sigType := models.SignalNeutral
	minSum := s.cfg.MinTechnicalScore + s.cfg.MinFlowScore + s.cfg.MinDepthScore
	if scores.Technical >= s.cfg.MinTechnicalScore &&
		scores.TradeFlow >= s.cfg.MinFlowScore &&
		scores.MarketDepth >= s.cfg.MinDepthScore {
		sigType = models.SignalBuy
		if scores.Total() >= minSum+1 {
			sigType = models.SignalStrongBuy
		}
	}

	maxTotal := len(s.conditions) + maxFlowScore + maxDepthScore
	strength := float64(scores.Total()) / float64(maxTotal)
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	return scores, sigType, strength
}

func (s *Scorer) technicalScore(ind *models.IndicatorSet) int {
	if ind == nil {
		return 0
	}
	score := 0
	for _, cond := range s.conditions {
		if s.technicalCondition(cond, ind) {
			score++
		}
	}
	return score
}

func (s *Scorer) technicalCondition(name string, ind *models.IndicatorSet) bool {
	switch name {
	case CondADXTrend:
		return ind.ADX != nil && *ind.ADX > s.cfg.ADXThreshold
	case CondMACDAboveSignal:
		return ind.MACD != nil && ind.MACDSignal != nil && *ind.MACD > *ind.MACDSignal
	case CondMACDHistPositive:
		return ind.MACDHist != nil && *ind.MACDHist > 0
	case CondRSINotOverbought:
		return ind.RSI != nil && *ind.RSI < s.cfg.RSIOverbought
	case CondStochBullish:
		return ind.StochK != nil && ind.StochD != nil && *ind.StochK > *ind.StochD && *ind.StochK < 80
	case CondCloseAboveMid:
		return ind.BBMid != nil && ind.Close > *ind.BBMid
	case CondCloseAboveSMA20:
		return ind.SMA20 != nil && ind.Close > *ind.SMA20
	default:
		return false
	}
}

func (s *Scorer) flowScore(flow models.TradeFlow) int {
	score := 0
	if flow.BuyPressure > s.cfg.BuyPressureThreshold {
		score++
	}
	if flow.InstitutionalRatio > s.cfg.InstitutionalRatioThreshold {
		score++
	}
	return score
}

func (s *Scorer) depthScore(depth models.DepthSnapshot, price float64) int {
	score := 0
	if depth.BidVolume > depth.AskVolume*s.cfg.BidAskMargin {
		score++
	}
	// A zero-valued snapshot (failed fetch) must not score.
	hasBook := depth.BidVolume > 0 || depth.AskVolume > 0
	if hasBook && price > 0 && depth.Spread >= 0 && depth.Spread/price < s.cfg.MaxSpreadRatio {
		score++
	}
	return score
}
