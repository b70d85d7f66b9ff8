package signal

import (
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

func testRiskConfig() RiskConfig {
	return RiskConfig{
		ATRMultiplier:      2,
		StructuralLookback: 10,
		StructuralBuffer:   0.02,
		FallbackStopPct:    0.05,
		MinRiskReward:      2,
		AccountRiskCapital: 100_000,
		RiskFraction:       0.01,
	}
}

func history(lows ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(lows))
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, l := range lows {
		out[i] = models.PricePoint{
			Time: base.Add(time.Duration(i) * time.Minute),
			Low:  l, High: l * 1.02, Open: l * 1.01, Close: l * 1.01,
		}
	}
	return out
}

func TestAssessBracketOrder(t *testing.T) {
	e := NewRiskEngine(testRiskConfig())

	ind := &models.IndicatorSet{ATR: f(0.2), BBMid: f(9.8)}
	m := e.Assess(10, ind, history(9.7, 9.6, 9.8))

	if !(m.StopLoss < m.EntryPrice && m.EntryPrice < m.TakeProfit) {
		t.Fatalf("bracket order violated: stop=%v entry=%v tp=%v", m.StopLoss, m.EntryPrice, m.TakeProfit)
	}
}

func TestAssessPullbackEntry(t *testing.T) {
	e := NewRiskEngine(testRiskConfig())

	// Price above the mid-band: entry is the average of the two.
	ind := &models.IndicatorSet{ATR: f(0.2), BBMid: f(9.0)}
	m := e.Assess(10, ind, nil)
	if m.EntryPrice != 9.5 {
		t.Errorf("entry = %v, want 9.5", m.EntryPrice)
	}

	// Price at or below the mid-band: entry is the price itself.
	ind = &models.IndicatorSet{ATR: f(0.2), BBMid: f(10.5)}
	m = e.Assess(10, ind, nil)
	if m.EntryPrice != 10 {
		t.Errorf("entry = %v, want 10", m.EntryPrice)
	}
}

func TestAssessStructuralStopWidensBracket(t *testing.T) {
	e := NewRiskEngine(testRiskConfig())

	// ATR stop would be 10 - 0.1*2 = 9.8; the structural low at 9.0
	// minus the buffer goes lower and must win.
	ind := &models.IndicatorSet{ATR: f(0.1)}
	m := e.Assess(10, ind, history(9.5, 9.0, 9.4))

	want := 9.0 * (1 - 0.02)
	if m.StopLoss != want {
		t.Errorf("stop = %v, want structural %v", m.StopLoss, want)
	}
}

func TestAssessFallbackStopWithoutATR(t *testing.T) {
	e := NewRiskEngine(testRiskConfig())

	m := e.Assess(10, &models.IndicatorSet{}, nil)
	if want := 10 * (1 - 0.05); m.StopLoss != want {
		t.Errorf("stop = %v, want fallback %v", m.StopLoss, want)
	}
	if !(m.StopLoss < m.EntryPrice && m.EntryPrice < m.TakeProfit) {
		t.Errorf("fallback bracket violated: %+v", m)
	}
}

func TestAssessRiskRewardRatio(t *testing.T) {
	e := NewRiskEngine(testRiskConfig())

	ind := &models.IndicatorSet{ATR: f(0.25)}
	m := e.Assess(10, ind, nil)

	risk := m.EntryPrice - m.StopLoss
	reward := m.TakeProfit - m.EntryPrice
	if risk <= 0 {
		t.Fatalf("non-positive risk distance: %v", risk)
	}
	if got := reward / risk; got < 2 {
		t.Errorf("reward/risk = %v, want >= 2", got)
	}
}

func TestAssessPositionSize(t *testing.T) {
	e := NewRiskEngine(testRiskConfig())

	// Risk distance 0.5: floor(100000*0.01/0.5) = 2000 shares.
	ind := &models.IndicatorSet{ATR: f(0.25)}
	m := e.Assess(10, ind, nil)

	if m.Shares != 2000 {
		t.Errorf("shares = %d, want 2000", m.Shares)
	}
	if want := float64(m.Shares) * m.EntryPrice; m.Notional != want {
		t.Errorf("notional = %v, want %v", m.Notional, want)
	}
}

func TestAssessZeroSharesOnDegenerateInput(t *testing.T) {
	e := NewRiskEngine(testRiskConfig())

	m := e.Assess(0, nil, nil)
	if m.Shares != 0 {
		t.Errorf("shares for zero price = %d, want 0", m.Shares)
	}
}
