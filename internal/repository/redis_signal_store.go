package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
)

const (
	signalKeyPrefix  = "trendpulse:signal:"
	signalListPrefix = "trendpulse:signals:"
	signalTTL        = 7 * 24 * time.Hour
	signalListMax    = 500
)

// RedisSignalStore keeps emitted signals addressable by id, with a capped
// per-symbol recency list. Completed signals also land in ClickHouse through
// the archive; Redis is the hot read path.
type RedisSignalStore struct {
	cli *redis.Client
}

var _ domrepo.SignalStore = (*RedisSignalStore)(nil)

func NewRedisSignalStore(cli *redis.Client) *RedisSignalStore {
	return &RedisSignalStore{cli: cli}
}

func (s *RedisSignalStore) Save(ctx context.Context, sig *models.TradingSignal) error {
	b, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal %s: %w", sig.ID, err)
	}
	pipe := s.cli.TxPipeline()
	pipe.Set(ctx, signalKeyPrefix+sig.ID, b, signalTTL)
	listKey := signalListPrefix + sig.Symbol
	pipe.LPush(ctx, listKey, sig.ID)
	pipe.LTrim(ctx, listKey, 0, signalListMax-1)
	pipe.Expire(ctx, listKey, signalTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save signal %s: %w", sig.ID, err)
	}
	return nil
}

func (s *RedisSignalStore) Get(ctx context.Context, id string) (*models.TradingSignal, error) {
	b, err := s.cli.Get(ctx, signalKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get signal %s: %w", id, err)
	}
	var sig models.TradingSignal
	if err := json.Unmarshal(b, &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signal %s: %w", id, err)
	}
	return &sig, nil
}

func (s *RedisSignalStore) Recent(ctx context.Context, symbol string, limit int) ([]*models.TradingSignal, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.cli.LRange(ctx, signalListPrefix+symbol, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent signals %s: %w", symbol, err)
	}
	out := make([]*models.TradingSignal, 0, len(ids))
	for _, id := range ids {
		sig, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sig != nil {
			out = append(out, sig)
		}
	}
	return out, nil
}

func (s *RedisSignalStore) Close() error {
	return s.cli.Close()
}
