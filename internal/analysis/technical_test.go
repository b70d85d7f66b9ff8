package analysis

import (
	"math"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

func candles(closes []float64) []models.PricePoint {
	out := make([]models.PricePoint, len(closes))
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.PricePoint{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   c * 0.999,
			High:   c * 1.005,
			Low:    c * 0.995,
			Close:  c,
			Volume: 10_000,
		}
	}
	return out
}

func trendingCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		// small oscillation so gains and losses both occur
		out[i] = start + float64(i)*step + math.Sin(float64(i))*step/4
	}
	return out
}

func TestComputeIndicatorsRejectsShortSeries(t *testing.T) {
	_, err := ComputeIndicators(candles(trendingCloses(MinHistoryPoints-1, 10, 0.1)))
	if err == nil {
		t.Fatal("expected error for short series")
	}
}

func TestComputeIndicatorsUptrend(t *testing.T) {
	set, err := ComputeIndicators(candles(trendingCloses(60, 10, 0.1)))
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}

	if set.RSI == nil {
		t.Fatal("RSI is nil")
	}
	if *set.RSI <= 50 {
		t.Errorf("RSI in steady uptrend = %v, want > 50", *set.RSI)
	}
	if set.MACDHist == nil || set.MACD == nil || set.MACDSignal == nil {
		t.Fatal("MACD fields are nil")
	}
	if *set.MACD <= 0 {
		t.Errorf("MACD in uptrend = %v, want > 0", *set.MACD)
	}
	if set.SMA20 == nil || set.SMA50 == nil {
		t.Fatal("SMA fields are nil")
	}
	if *set.SMA20 <= *set.SMA50 {
		t.Errorf("SMA20 (%v) should exceed SMA50 (%v) in uptrend", *set.SMA20, *set.SMA50)
	}
	if set.Close <= *set.SMA20 {
		t.Errorf("close (%v) should sit above SMA20 (%v) in uptrend", set.Close, *set.SMA20)
	}
	if set.ADX == nil {
		t.Fatal("ADX is nil for 60-bar series")
	}
	if set.ATR == nil || *set.ATR <= 0 {
		t.Errorf("ATR = %v, want > 0", set.ATR)
	}
	if set.BBUpper == nil || set.BBMid == nil || set.BBLower == nil {
		t.Fatal("Bollinger fields are nil")
	}
	if !(*set.BBLower < *set.BBMid && *set.BBMid < *set.BBUpper) {
		t.Errorf("band order violated: %v %v %v", *set.BBLower, *set.BBMid, *set.BBUpper)
	}
	if set.VWAP == nil || *set.VWAP <= 0 {
		t.Errorf("VWAP = %v, want > 0", set.VWAP)
	}
}

func TestComputeIndicatorsDropsZeroFilledBars(t *testing.T) {
	pts := candles(trendingCloses(MinHistoryPoints, 10, 0.1))

	// A bar whose price fields came back empty must not reach the
	// indicators as zeros; with only 25 usable rows left the whole
	// computation fails.
	pts[len(pts)-1] = models.PricePoint{Time: pts[len(pts)-1].Time}
	if _, err := ComputeIndicators(pts); err == nil {
		t.Fatal("expected error when dropping a zero-filled bar leaves too few rows")
	}

	// With spare rows the unusable bar is dropped and the rest compute.
	pts = candles(trendingCloses(40, 10, 0.1))
	pts[39] = models.PricePoint{Time: pts[39].Time}
	set, err := ComputeIndicators(pts)
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}
	if set.Close == 0 {
		t.Error("zero-filled bar leaked into the indicator set")
	}
	if set.RSI == nil || *set.RSI <= 50 {
		t.Errorf("RSI = %v, want > 50 once the corrupt bar is dropped", set.RSI)
	}
}

func TestComputeIndicatorsFlatSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 25
	}
	pts := candles(closes)
	for i := range pts {
		pts[i].Open, pts[i].High, pts[i].Low = 25, 25, 25
	}

	set, err := ComputeIndicators(pts)
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}
	if set.RSI == nil || *set.RSI != 50 {
		t.Errorf("flat RSI = %v, want 50", set.RSI)
	}
	if set.StochK == nil || *set.StochK != 50 {
		t.Errorf("flat StochK = %v, want 50", set.StochK)
	}
	if set.ATR == nil || *set.ATR != 0 {
		t.Errorf("flat ATR = %v, want 0", set.ATR)
	}
	if set.BBMid == nil || *set.BBMid != 25 {
		t.Errorf("flat BBMid = %v, want 25", set.BBMid)
	}
	if *set.BBUpper != 25 || *set.BBLower != 25 {
		t.Errorf("flat bands = [%v, %v], want both 25", *set.BBLower, *set.BBUpper)
	}
}

func TestComputeIndicatorsZeroVolume(t *testing.T) {
	pts := candles(trendingCloses(40, 10, 0.1))
	for i := range pts {
		pts[i].Volume = 0
	}

	set, err := ComputeIndicators(pts)
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}
	if set.VWAP != nil {
		t.Errorf("VWAP with zero volume = %v, want nil", *set.VWAP)
	}
	if set.RSI == nil {
		t.Error("RSI should not depend on volume")
	}
}

func TestStochasticBoundedAndOrdered(t *testing.T) {
	set, err := ComputeIndicators(candles(trendingCloses(60, 10, 0.1)))
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}
	if set.StochK == nil || set.StochD == nil {
		t.Fatal("stochastic fields are nil")
	}
	for _, v := range []float64{*set.StochK, *set.StochD} {
		if v < 0 || v > 100 {
			t.Errorf("stochastic value %v outside [0,100]", v)
		}
	}
}
