package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
)

// ClickHouseSignalArchive persists completed signals with their verification
// outcomes for offline accuracy auditing. Predictions and records keep their
// full shape as JSON columns; the scalar columns carry what queries filter on.
type ClickHouseSignalArchive struct {
	db    *sql.DB
	table string
}

var _ domrepo.SignalArchive = (*ClickHouseSignalArchive)(nil)

func NewClickHouseSignalArchive(db *sql.DB, table string) *ClickHouseSignalArchive {
	return &ClickHouseSignalArchive{db: db, table: table}
}

func (s *ClickHouseSignalArchive) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        id String,
        ts DateTime,
        symbol String,
        tf String,
        direction String,
        grade String,
        strategy String,
        regime String,
        strength Float64,
        adjusted_strength Float64,
        confirmed UInt8,
        entry_price Float64,
        stop_loss Float64,
        take_profit Float64,
        predictions String,
        records String
    ) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts, id)`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init signal archive table: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalArchive) Archive(ctx context.Context, sig *models.TradingSignal, records []models.PredictionRecord) error {
	preds, err := json.Marshal(sig.Predictions)
	if err != nil {
		return fmt.Errorf("marshal predictions: %w", err)
	}
	recs, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	confirmed := uint8(0)
	if sig.IsConfirmed {
		confirmed = 1
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (id, ts, symbol, tf, direction, grade, strategy, regime, strength, adjusted_strength,
         confirmed, entry_price, stop_loss, take_profit, predictions, records)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		sig.ID,
		sig.Timestamp,
		sig.Symbol,
		sig.Timeframe,
		string(sig.Direction),
		string(sig.Grade),
		sig.StrategyUsed,
		string(sig.MarketState.Regime),
		sig.Strength,
		sig.AdjustedStrength,
		confirmed,
		sig.EntryPrice,
		sig.StopLoss,
		sig.TakeProfit,
		string(preds),
		string(recs),
	)
	if err != nil {
		return fmt.Errorf("archive signal %s: %w", sig.ID, err)
	}
	return nil
}
