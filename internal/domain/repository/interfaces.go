package repository

import (
	"context"
	"time"

	"TrendPulse/internal/domain/models"
)

// BarStream is a live feed of bar updates for the subscribed symbols.
type BarStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.BarEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarFetcher pulls recent history over REST, used to warm buffers on startup.
type BarFetcher interface {
	RecentBars(ctx context.Context, symbol string, tf Timeframe, limit int) ([]models.Bar, error)
}

// BarStore archives closed bars and serves them back on demand.
type BarStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, symbol string, tf Timeframe, bar models.Bar) error
	StoreBatch(ctx context.Context, symbol string, tf Timeframe, bars []models.Bar) error
	Query(ctx context.Context, symbol string, tf Timeframe, from, to time.Time, limit int) ([]models.Bar, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SignalStore keeps emitted signals addressable by id.
type SignalStore interface {
	Save(ctx context.Context, s *models.TradingSignal) error
	Get(ctx context.Context, id string) (*models.TradingSignal, error)
	Recent(ctx context.Context, symbol string, limit int) ([]*models.TradingSignal, error)
	Close() error
}

// SignalPublisher pushes emitted signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.TradingSignal) error
	Close() error
}

// SignalArchive persists completed signals together with their verification
// outcomes.
type SignalArchive interface {
	Archive(ctx context.Context, s *models.TradingSignal, records []models.PredictionRecord) error
}

// Notifier delivers emitted signals to a human channel.
type Notifier interface {
	Notify(ctx context.Context, s *models.TradingSignal) error
}

type Metrics interface {
	RecordBar(symbol, timeframe string)
	RecordSignal(symbol, grade, direction string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordVerification(horizonMinutes int, outcome string)
}
