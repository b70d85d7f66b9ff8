package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgch "StockPulse/pkg/clickhouse"
	applogger "StockPulse/pkg/logger"
)

// Schema statements applied at startup. The signal log is append-only;
// reads are served off the (timestamp, symbol) ordering.
var signalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signal_history (
        timestamp       DateTime64(3),
        symbol          String,
        name            String,
        sector          String,
        price           Float64,
        change_pct      Float64,
        market_cap      Float64,
        signal_type     LowCardinality(String),
        signal_strength Float64,
        score_technical Int32,
        score_flow      Int32,
        score_depth     Int32,
        entry_price     Float64,
        stop_loss       Float64,
        take_profit     Float64,
        shares          Int64,
        notional        Float64,
        indicators      String,
        trade_flow      String
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(timestamp)
    ORDER BY (timestamp, symbol)`,
}

// CHSignalStore is the ClickHouse-backed append-only signal log.
type CHSignalStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)

func NewCHSignalStore(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHSignalStore, error) {
	if err := ch.InitSchema(ctx, signalSchema); err != nil {
		return nil, fmt.Errorf("signal store schema: %w", err)
	}
	return &CHSignalStore{ch: ch, db: ch.DB(), l: l}, nil
}

// Insert appends one emitted signal.
func (s *CHSignalStore) Insert(ctx context.Context, sig *models.Signal) error {
	indicators, err := json.Marshal(sig.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators: %w", err)
	}
	flow, err := json.Marshal(sig.Flow)
	if err != nil {
		return fmt.Errorf("marshal trade flow: %w", err)
	}

	const q = `
        INSERT INTO signal_history (
            timestamp, symbol, name, sector, price, change_pct, market_cap,
            signal_type, signal_strength, score_technical, score_flow, score_depth,
            entry_price, stop_loss, take_profit, shares, notional,
            indicators, trade_flow
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		sig.Timestamp, sig.Symbol, sig.Name, sig.Sector,
		sig.Price, sig.ChangePct, sig.MarketCap,
		string(sig.Type), sig.Strength,
		int32(sig.Scores.Technical), int32(sig.Scores.TradeFlow), int32(sig.Scores.MarketDepth),
		sig.Risk.EntryPrice, sig.Risk.StopLoss, sig.Risk.TakeProfit,
		sig.Risk.Shares, sig.Risk.Notional,
		string(indicators), string(flow),
	)
	if err != nil {
		s.l.Error("clickhouse signal insert error",
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err))
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// TodayRecommendations returns today's BUY/STRONG_BUY signals at or
// above minStrength, newest first.
func (s *CHSignalStore) TodayRecommendations(ctx context.Context, minStrength float64, limit int) ([]models.Recommendation, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
        SELECT timestamp, symbol, price, signal_type, signal_strength,
               entry_price, stop_loss, take_profit
        FROM signal_history
        WHERE toDate(timestamp) = toDate(now())
          AND signal_type IN ('BUY', 'STRONG_BUY')
          AND signal_strength >= ?
        ORDER BY timestamp DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, minStrength, limit)
	if err != nil {
		s.l.Error("clickhouse recommendations query error", applogger.Error(err))
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Recommendation, 0, limit)
	for rows.Next() {
		var rec models.Recommendation
		var ts time.Time
		if err := rows.Scan(&ts, &rec.Symbol, &rec.Price, &rec.SignalType,
			&rec.Strength, &rec.EntryPrice, &rec.StopLoss, &rec.TakeProfit); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Timestamp = ts
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSignalStore) Close() error {
	return s.ch.Close()
}
