package analysis

import (
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

func trade(i int, side models.TradeSide, price, volume float64) models.Trade {
	return models.Trade{
		Side:   side,
		Price:  price,
		Volume: volume,
		Value:  price * volume,
		Time:   time.Date(2025, 5, 1, 10, 0, i, 0, time.UTC),
	}
}

func TestAnalyzeEmptyWindow(t *testing.T) {
	a := NewTradeFlowAnalyzer(100_000)
	flow := a.Analyze(nil)

	if flow.BuyPressure != 0 || flow.SellPressure != 0 {
		t.Errorf("pressures = %v/%v, want 0/0", flow.BuyPressure, flow.SellPressure)
	}
	if flow.InstitutionalRatio != 0 || flow.PriceImpact != 0 {
		t.Errorf("ratio/impact = %v/%v, want 0/0", flow.InstitutionalRatio, flow.PriceImpact)
	}
	if flow.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", flow.TotalTrades)
	}
	if flow.Patterns != (models.TradePatterns{}) {
		t.Errorf("patterns = %+v, want all false", flow.Patterns)
	}
}

func TestAnalyzePressuresAndRatio(t *testing.T) {
	a := NewTradeFlowAnalyzer(100_000)
	trades := []models.Trade{
		trade(0, models.SideBuy, 10, 30_000), // 300k notional: institutional
		trade(1, models.SideBuy, 10, 3_000),  // 30k: retail
		trade(2, models.SideSell, 10, 7_000), // 70k: retail
	}

	flow := a.Analyze(trades)

	if got, want := flow.BuyPressure, 33_000.0/40_000.0; got != want {
		t.Errorf("BuyPressure = %v, want %v", got, want)
	}
	if got, want := flow.SellPressure, 7_000.0/40_000.0; got != want {
		t.Errorf("SellPressure = %v, want %v", got, want)
	}
	if got, want := flow.InstitutionalRatio, 300_000.0/400_000.0; got != want {
		t.Errorf("InstitutionalRatio = %v, want %v", got, want)
	}
	if flow.TotalTrades != 3 {
		t.Errorf("TotalTrades = %d, want 3", flow.TotalTrades)
	}
}

func TestAnalyzeInstitutionalBuyingPattern(t *testing.T) {
	a := NewTradeFlowAnalyzer(50_000)
	var trades []models.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, trade(i, models.SideBuy, 20, 5_000)) // 100k each
	}

	flow := a.Analyze(trades)
	if !flow.Patterns.InstitutionalBuying {
		t.Error("expected InstitutionalBuying with five institutional buys")
	}
	if flow.Patterns.InstitutionalSelling {
		t.Error("unexpected InstitutionalSelling")
	}
}

func TestAnalyzeRetailDistributionPattern(t *testing.T) {
	a := NewTradeFlowAnalyzer(1_000_000)
	var trades []models.Trade
	for i := 0; i < 10; i++ {
		trades = append(trades, trade(i, models.SideSell, 5, 100))
	}

	flow := a.Analyze(trades)
	if !flow.Patterns.RetailDistribution {
		t.Error("expected RetailDistribution with ten retail sells")
	}
	if flow.Patterns.RetailAccumulation {
		t.Error("unexpected RetailAccumulation")
	}
}

func TestAnalyzeUnknownSidesCarryNoPattern(t *testing.T) {
	a := NewTradeFlowAnalyzer(50_000)
	var trades []models.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, trade(i, models.SideUnknown, 20, 5_000)) // 100k each
	}

	flow := a.Analyze(trades)
	if flow.Patterns.InstitutionalSelling {
		t.Error("InstitutionalSelling set on a tape with no sided trades")
	}
	if flow.Patterns.InstitutionalBuying {
		t.Error("InstitutionalBuying set on a tape with no sided trades")
	}
}

func TestAnalyzeBuyRatioIgnoresUnknownSides(t *testing.T) {
	a := NewTradeFlowAnalyzer(50_000)
	trades := []models.Trade{
		trade(0, models.SideBuy, 20, 5_000),
		trade(1, models.SideBuy, 20, 5_000),
		trade(2, models.SideBuy, 20, 5_000),
		trade(3, models.SideUnknown, 20, 5_000),
		trade(4, models.SideUnknown, 20, 5_000),
	}

	// 3 buys / 3 sided = 1.0 > 0.70; counting unknowns would give 0.6.
	flow := a.Analyze(trades)
	if !flow.Patterns.InstitutionalBuying {
		t.Error("expected InstitutionalBuying when every sided print is a buy")
	}
}

func TestAnalyzeUntimestampedTapeKeepsFeedOrder(t *testing.T) {
	a := NewTradeFlowAnalyzer(1_000_000)
	var trades []models.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, models.Trade{Side: models.SideBuy, Price: 5, Volume: 100, Value: 500})
	}
	for i := 5; i < 10; i++ {
		trades = append(trades, models.Trade{Side: models.SideBuy, Price: 5, Volume: 300, Value: 1500})
	}

	// All timestamps are zero; the surge split must still see the
	// high-volume prints as the recent half.
	if flow := a.Analyze(trades); !flow.Patterns.VolumeSurge {
		t.Error("expected VolumeSurge to read the tape in feed order")
	}
}

func TestAnalyzeVolumeSurge(t *testing.T) {
	a := NewTradeFlowAnalyzer(1_000_000)
	var trades []models.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, trade(i, models.SideBuy, 5, 100))
	}
	for i := 5; i < 10; i++ {
		trades = append(trades, trade(i, models.SideBuy, 5, 200))
	}

	if flow := a.Analyze(trades); !flow.Patterns.VolumeSurge {
		t.Error("expected VolumeSurge with doubled recent volume")
	}

	// Fewer than ten trades never surges.
	if flow := a.Analyze(trades[:9]); flow.Patterns.VolumeSurge {
		t.Error("surge flag set with fewer than ten trades")
	}
}

func TestAnalyzePriceImpactPerClass(t *testing.T) {
	a := NewTradeFlowAnalyzer(1_000_000)
	trades := []models.Trade{
		trade(0, models.SideBuy, 10.0, 100),
		trade(1, models.SideBuy, 10.1, 100),
		trade(2, models.SideBuy, 10.2, 100),
	}

	flow := a.Analyze(trades)
	if flow.PriceImpact <= 0 {
		t.Errorf("PriceImpact = %v, want > 0 for rising tape", flow.PriceImpact)
	}

	// Single priced trade: no consecutive pair.
	if flow := a.Analyze(trades[:1]); flow.PriceImpact != 0 {
		t.Errorf("PriceImpact = %v, want 0 with one trade", flow.PriceImpact)
	}
}
