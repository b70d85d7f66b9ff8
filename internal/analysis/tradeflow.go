package analysis

import (
	"sort"

	"StockPulse/internal/domain/models"
)

// Window sizes for the pattern flags.
const (
	institutionalWindow = 5
	retailWindow        = 10
	surgeWindow         = 5
)

// TradeFlowAnalyzer splits a trade tape into institutional and retail
// flow and derives pressure, concentration, and pattern metrics.
type TradeFlowAnalyzer struct {
	institutionalThreshold float64 // minimum notional for an institutional print
}

func NewTradeFlowAnalyzer(institutionalThreshold float64) *TradeFlowAnalyzer {
	return &TradeFlowAnalyzer{institutionalThreshold: institutionalThreshold}
}

// Analyze computes flow metrics over a trade window. Empty input
// yields the zero value, never an error.
func (a *TradeFlowAnalyzer) Analyze(trades []models.Trade) models.TradeFlow {
	if len(trades) == 0 {
		return models.TradeFlow{}
	}

	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	// Stable: untimestamped tapes compare equal everywhere and must
	// keep feed order.
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	var (
		institutional []models.Trade
		retail        []models.Trade

		buyVolume, sellVolume, totalVolume float64
		instValue, totalValue              float64
	)
	for _, tr := range sorted {
		value := tr.Value
		if value == 0 {
			value = tr.Price * tr.Volume
		}
		if value >= a.institutionalThreshold {
			institutional = append(institutional, tr)
			instValue += value
		} else {
			retail = append(retail, tr)
		}
		totalValue += value
		totalVolume += tr.Volume
		switch tr.Side {
		case models.SideBuy:
			buyVolume += tr.Volume
		case models.SideSell:
			sellVolume += tr.Volume
		}
	}

	flow := models.TradeFlow{TotalTrades: len(sorted)}
	if totalVolume > 0 {
		flow.BuyPressure = buyVolume / totalVolume
		flow.SellPressure = sellVolume / totalVolume
	}
	if totalValue > 0 {
		flow.InstitutionalRatio = instValue / totalValue
	}
	flow.PriceImpact = priceImpact(institutional, retail)
	instRatio, instSided := buyRatio(tail(institutional, institutionalWindow))
	retRatio, retSided := buyRatio(tail(retail, retailWindow))
	flow.Patterns = models.TradePatterns{
		InstitutionalBuying:  instSided && instRatio > 0.70,
		InstitutionalSelling: instSided && instRatio < 0.30,
		RetailAccumulation:   retSided && retRatio > 0.60,
		RetailDistribution:   retSided && retRatio < 0.40,
		VolumeSurge:          volumeSurge(sorted),
	}
	return flow
}

// priceImpact is the mean fractional price change between consecutive
// trades within each class, concatenated across both classes. Zero
// when fewer than two priced trades exist.
func priceImpact(institutional, retail []models.Trade) float64 {
	var sum float64
	var n int
	for _, class := range [][]models.Trade{institutional, retail} {
		prev := 0.0
		for _, tr := range class {
			if tr.Price <= 0 {
				continue
			}
			if prev > 0 {
				sum += (tr.Price - prev) / prev
				n++
			}
			prev = tr.Price
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// buyRatio is the share of buy prints among the sided prints in the
// window. sided is false when every print has an unknown side, in
// which case the ratio carries no information.
func buyRatio(window []models.Trade) (ratio float64, sided bool) {
	buys, sells := 0, 0
	for _, tr := range window {
		switch tr.Side {
		case models.SideBuy:
			buys++
		case models.SideSell:
			sells++
		}
	}
	if buys+sells == 0 {
		return 0, false
	}
	return float64(buys) / float64(buys+sells), true
}

// volumeSurge reports whether the latest five prints carry more than
// 1.5x the volume of the five before them. Needs at least ten trades.
func volumeSurge(sorted []models.Trade) bool {
	if len(sorted) < 2*surgeWindow {
		return false
	}
	recent := sorted[len(sorted)-surgeWindow:]
	prior := sorted[len(sorted)-2*surgeWindow : len(sorted)-surgeWindow]
	var recentVol, priorVol float64
	for _, tr := range recent {
		recentVol += tr.Volume
	}
	for _, tr := range prior {
		priorVol += tr.Volume
	}
	if priorVol == 0 {
		return recentVol > 0
	}
	return recentVol > priorVol*1.5
}

func tail(trades []models.Trade, n int) []models.Trade {
	if len(trades) <= n {
		return trades
	}
	return trades[len(trades)-n:]
}
