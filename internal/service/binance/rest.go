package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/service/ratelimit"
	"TrendPulse/pkg/cache"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
)

const (
	klinesPath     = "/api/v3/klines"
	klineCacheTTL  = 30 * time.Second
	restRateKey    = "binance_rest"
	restBucketCap  = 10
	restRefillRate = 5 // requests per second once the bucket drains
)

// Fetcher pulls recent klines over the Binance REST API. It backs buffer
// warm-up on startup and confirmation timeframe refresh, never the hot path.
// Calls run behind a circuit breaker and a token bucket so a flapping REST
// endpoint cannot stall or hammer anything.
type Fetcher struct {
	baseURL string
	client  *xhttp.Client
	breaker *gobreaker.CircuitBreaker
	limiter *ratelimit.Limiter
	cache   cache.Service
	log     *logger.Logger
}

var _ drepo.BarFetcher = (*Fetcher)(nil)

func NewFetcher(baseURL string, c cache.Service, log *logger.Logger) *Fetcher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "binance-rest",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Fetcher{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		breaker: breaker,
		limiter: ratelimit.New(),
		cache:   c,
		log:     log,
	}
}

// RecentBars returns the most recent closed bars for a symbol and timeframe,
// oldest first.
func (f *Fetcher) RecentBars(ctx context.Context, symbol string, tf drepo.Timeframe, limit int) ([]models.Bar, error) {
	if limit <= 0 {
		limit = 500
	}
	key := cache.GenerateKeyWithParams("klines", symbol, tf, limit)
	if f.cache != nil {
		var cached []models.Bar
		if err := f.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}
	if !f.limiter.Allow(restRateKey, restBucketCap, restRefillRate) {
		return nil, fmt.Errorf("binance rest: rate limited")
	}

	out, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetch(ctx, symbol, tf, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, tf, err)
	}
	bars := out.([]models.Bar)

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, bars, klineCacheTTL); err != nil {
			f.log.Debug("kline cache set failed", logger.Error(err))
		}
	}
	return bars, nil
}

func (f *Fetcher) fetch(ctx context.Context, symbol string, tf drepo.Timeframe, limit int) ([]models.Bar, error) {
	var raw [][]json.RawMessage
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    f.baseURL + klinesPath,
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {string(tf)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(raw))
	for _, row := range raw {
		bar, err := parseKlineRow(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKlineRow decodes one REST kline row:
// [openTimeMs, "o", "h", "l", "c", "v", closeTimeMs, ...].
func parseKlineRow(row []json.RawMessage) (models.Bar, error) {
	if len(row) < 7 {
		return models.Bar{}, fmt.Errorf("kline row has %d fields", len(row))
	}
	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return models.Bar{}, fmt.Errorf("kline open time: %w", err)
	}
	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return models.Bar{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("kline field %d %q: %w", i, s, err)
		}
		vals[i-1] = v
	}
	return models.Bar{
		OpenTime: time.UnixMilli(openMs).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
		Closed:   true,
	}, nil
}
