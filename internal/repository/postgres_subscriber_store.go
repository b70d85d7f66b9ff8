package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	domrepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
)

const subscriberSchema = `
    CREATE TABLE IF NOT EXISTS subscribers (
        chat_id    TEXT PRIMARY KEY,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )
`

// PGSubscriberStore persists notification endpoints in Postgres.
type PGSubscriberStore struct {
	pool *pgxpool.Pool
	l    *applogger.Logger
}

var _ domrepo.SubscriberStore = (*PGSubscriberStore)(nil)

func NewPGSubscriberStore(ctx context.Context, dsn string, maxConns int, l *applogger.Logger) (*PGSubscriberStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, subscriberSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("subscriber schema: %w", err)
	}
	return &PGSubscriberStore{pool: pool, l: l}, nil
}

// Save registers a chat id. Saving an existing id is a no-op.
func (s *PGSubscriberStore) Save(ctx context.Context, chatID string) error {
	const q = `INSERT INTO subscribers (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, q, chatID); err != nil {
		s.l.Error("subscriber insert error",
			applogger.String("chat_id", chatID),
			applogger.Error(err))
		return fmt.Errorf("save subscriber: %w", err)
	}
	return nil
}

// List returns every registered chat id.
func (s *PGSubscriberStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT chat_id FROM subscribers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var chatID string
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, chatID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *PGSubscriberStore) Close() error {
	s.pool.Close()
	return nil
}
