package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
)

// ClickHouseBarStore archives closed bars and serves them back for
// confirmation warm-up and offline consistency checks. The MergeTree order
// key (symbol, tf, open_time) makes duplicate close events collapse on merge.
type ClickHouseBarStore struct {
	db    *sql.DB
	table string
}

var _ domrepo.BarStore = (*ClickHouseBarStore)(nil)

func NewClickHouseBarStore(db *sql.DB, table string) *ClickHouseBarStore {
	return &ClickHouseBarStore{db: db, table: table}
}

func (s *ClickHouseBarStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        symbol String,
        tf String,
        open_time DateTime,
        open Float64,
        high Float64,
        low Float64,
        close Float64,
        volume Float64
    ) ENGINE=ReplacingMergeTree ORDER BY (symbol, tf, open_time)`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init bar table: %w", err)
	}
	return nil
}

func (s *ClickHouseBarStore) Store(ctx context.Context, symbol string, tf domrepo.Timeframe, bar models.Bar) error {
	return s.StoreBatch(ctx, symbol, tf, []models.Bar{bar})
}

func (s *ClickHouseBarStore) StoreBatch(ctx context.Context, symbol string, tf domrepo.Timeframe, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			if b.OpenTime.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				symbol,
				string(tf),
				b.OpenTime,
				b.Open,
				b.High,
				b.Low,
				b.Close,
				b.Volume,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, tf, open_time, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseBarStore) Query(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time, limit int) ([]models.Bar, error) {
	q := fmt.Sprintf(`SELECT open_time, open, high, low, close, volume FROM %s
        WHERE symbol = ? AND tf = ? AND open_time >= ? AND open_time <= ?
        ORDER BY open_time ASC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.OpenTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Closed = true
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBarStore) Close() error {
	return nil // Managed by pkg
}
