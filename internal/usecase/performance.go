package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
)

// Trade outcome states, resolved sequentially against post-signal bars.
const (
	OutcomePending = "PENDING"
	OutcomeEntered = "ENTERED"
	OutcomeWin     = "WIN"
	OutcomeLoss    = "LOSS"
)

const performanceFetchLimit = 1000

// TradeOutcome is the intraday resolution of one recommendation.
type TradeOutcome struct {
	Symbol     string    `json:"symbol"`
	SignalType string    `json:"signal_type"`
	Timestamp  time.Time `json:"timestamp"`
	EntryPrice float64   `json:"buy_price"`
	TakeProfit float64   `json:"target"`
	StopLoss   float64   `json:"stop_loss"`
	Status     string    `json:"status"`
	PnL        float64   `json:"pnl"`
}

// PerformanceReport aggregates today's resolved recommendations.
type PerformanceReport struct {
	Recommendations int            `json:"recommendations"`
	Wins            int            `json:"wins"`
	Losses          int            `json:"losses"`
	TotalGain       float64        `json:"total_gain"`
	TotalLoss       float64        `json:"total_loss"`
	NetProfit       float64        `json:"net_profit"`
	Outcomes        []TradeOutcome `json:"outcomes"`
}

// PerformanceAnalyzer replays today's stored BUY/STRONG_BUY
// recommendations against the intraday bars recorded after each
// signal, resolving every trade to a win, loss, or open state.
type PerformanceAnalyzer struct {
	store  repository.SignalStore
	market repository.MarketData
	logger *applogger.Logger
	now    func() time.Time
}

func NewPerformanceAnalyzer(store repository.SignalStore, market repository.MarketData, logger *applogger.Logger) *PerformanceAnalyzer {
	return &PerformanceAnalyzer{store: store, market: market, logger: logger, now: time.Now}
}

// Analyze resolves today's recommendations at or above minStrength.
// A recommendation whose asset or intraday bars cannot be fetched is
// skipped, not failed.
func (a *PerformanceAnalyzer) Analyze(ctx context.Context, minStrength float64) (*PerformanceReport, error) {
	recs, err := a.store.TodayRecommendations(ctx, minStrength, performanceFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("today recommendations: %w", err)
	}

	report := &PerformanceReport{}
	if len(recs) == 0 {
		return report, nil
	}

	assets, err := a.market.MarketWatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("market watch: %w", err)
	}
	assetBySymbol := make(map[string]string, len(assets))
	for _, inst := range assets {
		assetBySymbol[inst.Symbol] = inst.AssetID
	}

	// Rows arrive newest first; replay them in signal order.
	for i := len(recs) - 1; i >= 0; i-- {
		rec := recs[i]
		assetID, ok := assetBySymbol[rec.Symbol]
		if !ok {
			a.logger.Warn("no asset id for recommended symbol",
				applogger.String("symbol", rec.Symbol))
			continue
		}

		bars, err := a.market.History(ctx, assetID, rec.Timestamp, a.now())
		if err != nil {
			a.logger.Warn("post-signal bars unavailable",
				applogger.String("symbol", rec.Symbol),
				applogger.Error(err))
			continue
		}

		outcome := resolveTrade(rec, bars)
		report.Recommendations++
		switch outcome.Status {
		case OutcomeWin:
			report.Wins++
			report.TotalGain += outcome.PnL
		case OutcomeLoss:
			report.Losses++
			report.TotalLoss += -outcome.PnL
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.NetProfit = report.TotalGain - report.TotalLoss
	return report, nil
}

// resolveTrade walks the post-signal bars in order. The trade enters
// when a bar's range straddles the entry price; once live, the target
// is checked before the stop within the same bar.
func resolveTrade(rec models.Recommendation, bars []models.PricePoint) TradeOutcome {
	out := TradeOutcome{
		Symbol:     rec.Symbol,
		SignalType: rec.SignalType,
		Timestamp:  rec.Timestamp,
		EntryPrice: rec.EntryPrice,
		TakeProfit: rec.TakeProfit,
		StopLoss:   rec.StopLoss,
		Status:     OutcomePending,
	}

	entered := false
	for _, bar := range bars {
		if !entered && rec.EntryPrice > 0 && bar.Low <= rec.EntryPrice && rec.EntryPrice <= bar.High {
			entered = true
			out.Status = OutcomeEntered
		}
		if !entered {
			continue
		}

		if rec.TakeProfit > 0 && bar.High >= rec.TakeProfit {
			out.Status = OutcomeWin
			out.PnL = rec.TakeProfit - rec.EntryPrice
			return out
		}
		if rec.StopLoss > 0 && bar.Low <= rec.StopLoss {
			out.Status = OutcomeLoss
			out.PnL = rec.StopLoss - rec.EntryPrice
			return out
		}
	}
	return out
}
