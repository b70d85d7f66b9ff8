package signal

import (
	"testing"

	"StockPulse/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func testScorerConfig() ScorerConfig {
	return ScorerConfig{
		ADXThreshold:                25,
		RSIOverbought:               70,
		BuyPressureThreshold:        0.6,
		InstitutionalRatioThreshold: 0.5,
		BidAskMargin:                1.0,
		MaxSpreadRatio:              0.01,
		MinTechnicalScore:           1,
		MinFlowScore:                2,
		MinDepthScore:               2,
	}
}

func TestScoreTrendingDepthBackedSetup(t *testing.T) {
	s := NewScorer(testScorerConfig())

	// Only the ADX condition holds on the technical side; flow and
	// depth are both fully confirmed.
	ind := &models.IndicatorSet{
		Close: 10,
		ADX:   f(30),
	}
	flow := models.TradeFlow{BuyPressure: 0.7, InstitutionalRatio: 0.65}
	depth := models.DepthSnapshot{BidVolume: 150, AskVolume: 100, Spread: 0.05}

	scores, sigType, strength := s.Score(ind, flow, depth)

	if scores.Technical != 1 {
		t.Errorf("Technical = %d, want 1", scores.Technical)
	}
	if scores.TradeFlow != 2 {
		t.Errorf("TradeFlow = %d, want 2", scores.TradeFlow)
	}
	if scores.MarketDepth != 2 {
		t.Errorf("MarketDepth = %d, want 2", scores.MarketDepth)
	}
	if sigType != models.SignalBuy {
		t.Errorf("type = %v, want BUY (total equals sum of minimums)", sigType)
	}
	if want := 5.0 / 11.0; strength != want {
		t.Errorf("strength = %v, want %v", strength, want)
	}
}

func TestScoreStrongBuyNeedsMarginOverMinimums(t *testing.T) {
	s := NewScorer(testScorerConfig())

	ind := &models.IndicatorSet{
		Close:    10,
		ADX:      f(30),
		MACD:     f(0.5),
		MACDSignal: f(0.2),
	}
	flow := models.TradeFlow{BuyPressure: 0.7, InstitutionalRatio: 0.65}
	depth := models.DepthSnapshot{BidVolume: 150, AskVolume: 100, Spread: 0.05}

	_, sigType, _ := s.Score(ind, flow, depth)
	if sigType != models.SignalStrongBuy {
		t.Errorf("type = %v, want STRONG_BUY with one point over minimums", sigType)
	}
}

func TestScoreNeutralWhenAnyMinimumMissed(t *testing.T) {
	s := NewScorer(testScorerConfig())

	ind := &models.IndicatorSet{Close: 10, ADX: f(30)}
	flow := models.TradeFlow{BuyPressure: 0.7} // institutional ratio below threshold
	depth := models.DepthSnapshot{BidVolume: 150, AskVolume: 100, Spread: 0.05}

	_, sigType, _ := s.Score(ind, flow, depth)
	if sigType != models.SignalNeutral {
		t.Errorf("type = %v, want NEUTRAL when flow minimum missed", sigType)
	}
}

func TestScoreNilIndicatorsFailConditions(t *testing.T) {
	s := NewScorer(testScorerConfig())

	scores, sigType, _ := s.Score(&models.IndicatorSet{Close: 10}, models.TradeFlow{}, models.DepthSnapshot{})
	if scores.Technical != 0 {
		t.Errorf("Technical with all-nil indicators = %d, want 0", scores.Technical)
	}
	if sigType != models.SignalNeutral {
		t.Errorf("type = %v, want NEUTRAL", sigType)
	}
}

func TestScoreFailedDepthSnapshotScoresZero(t *testing.T) {
	s := NewScorer(testScorerConfig())

	scores, _, _ := s.Score(&models.IndicatorSet{Close: 10, ADX: f(30)}, models.TradeFlow{}, models.DepthSnapshot{})
	if scores.MarketDepth != 0 {
		t.Errorf("MarketDepth for zero snapshot = %d, want 0", scores.MarketDepth)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(testScorerConfig())

	ind := &models.IndicatorSet{Close: 10, ADX: f(30), RSI: f(55), SMA20: f(9.5)}
	flow := models.TradeFlow{BuyPressure: 0.7, InstitutionalRatio: 0.65}
	depth := models.DepthSnapshot{BidVolume: 150, AskVolume: 100, Spread: 0.05}

	a1, t1, s1 := s.Score(ind, flow, depth)
	a2, t2, s2 := s.Score(ind, flow, depth)
	if a1 != a2 || t1 != t2 || s1 != s2 {
		t.Errorf("repeat scoring diverged: %+v/%v/%v vs %+v/%v/%v", a1, t1, s1, a2, t2, s2)
	}
}

func TestScoreRestrictedConditionSet(t *testing.T) {
	cfg := testScorerConfig()
	cfg.TechnicalConditions = []string{CondADXTrend, CondRSINotOverbought}
	s := NewScorer(cfg)

	ind := &models.IndicatorSet{Close: 10, ADX: f(30), RSI: f(55), MACDHist: f(1)}
	scores, _, strength := s.Score(ind, models.TradeFlow{}, models.DepthSnapshot{})

	// MACDHist is positive but disabled, so it must not count.
	if scores.Technical != 2 {
		t.Errorf("Technical = %d, want 2 with restricted set", scores.Technical)
	}
	if want := 2.0 / 6.0; strength != want {
		t.Errorf("strength = %v, want %v", strength, want)
	}
}
