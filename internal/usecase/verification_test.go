package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

type stubPrices struct {
	prices map[string]float64
}

func (s *stubPrices) LastPrice(symbol string) (float64, bool) {
	p, ok := s.prices[symbol]
	return p, ok
}

type stubEnqueuer struct {
	payloads []ArchivePayload
}

func (s *stubEnqueuer) Enqueue(_ context.Context, _ string, payload interface{}) error {
	s.payloads = append(s.payloads, payload.(ArchivePayload))
	return nil
}

type metricsStub struct {
	verifications map[string]int
}

func newMetricsStub() *metricsStub { return &metricsStub{verifications: make(map[string]int)} }

func (m *metricsStub) RecordBar(string, string) {}
func (m *metricsStub) RecordSignal(string, string, string) {}
func (m *metricsStub) RecordError(string) {}
func (m *metricsStub) RecordLastPrice(string, float64) {}
func (m *metricsStub) RecordLatency(string, float64) {}
func (m *metricsStub) RecordVerification(_ int, outcome string) { m.verifications[outcome]++ }

func trackedSignal(id string, ts time.Time, horizons ...int) *models.TradingSignal {
	preds := make([]models.Prediction, 0, len(horizons))
	for _, h := range horizons {
		preds = append(preds, models.Prediction{
			HorizonMinutes: h,
			Direction:      models.PriceHigher,
			Confidence:     0.7,
		})
	}
	return &models.TradingSignal{
		ID:          id,
		Symbol:      "BTCUSDT",
		Timestamp:   ts,
		Direction:   models.DirectionBuy,
		EntryPrice:  100,
		Predictions: preds,
	}
}

func TestVerifierResolvesCorrectPredictions(t *testing.T) {
	t0 := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	now := t0
	prices := &stubPrices{prices: map[string]float64{"BTCUSDT": 105}}
	arch := &stubEnqueuer{}
	m := newMetricsStub()
	v := NewVerifier(prices, arch, m, testLogger(t), WithClock(func() time.Time { return now }))

	v.Track(trackedSignal("sig-1", t0, 10, 30))
	require.Equal(t, 2, v.Stats().Pending)

	// Only the 10m horizon is due.
	now = t0.Add(10*time.Minute + time.Second)
	v.Tick(context.Background())

	stats := v.Stats()
	require.Equal(t, 1, stats.Pending)
	require.Len(t, stats.Horizons, 2)
	h10 := stats.Horizons[0]
	require.Equal(t, 10, h10.HorizonMinutes)
	require.Equal(t, 1, h10.Resolved)
	require.Equal(t, 1, h10.Correct)
	require.Equal(t, 1.0, h10.Accuracy)
	require.Empty(t, arch.payloads, "signal not complete yet")

	// The 30m horizon completes the signal and triggers archiving.
	now = t0.Add(31 * time.Minute)
	v.Tick(context.Background())

	require.Equal(t, 0, v.Stats().Pending)
	require.Len(t, arch.payloads, 1)
	require.Equal(t, "sig-1", arch.payloads[0].Signal.ID)
	require.Len(t, arch.payloads[0].Records, 2)
	require.Equal(t, 2, m.verifications["correct"])

	recent := v.Recent(10)
	require.Len(t, recent, 2)
	require.Equal(t, 30, recent[0].HorizonMinutes, "newest first")
	require.Equal(t, models.PriceHigher, recent[0].Actual)
	require.True(t, recent[0].Correct)
}

func TestVerifierScoresWrongDirection(t *testing.T) {
	t0 := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	now := t0
	prices := &stubPrices{prices: map[string]float64{"BTCUSDT": 95}}
	m := newMetricsStub()
	v := NewVerifier(prices, &stubEnqueuer{}, m, testLogger(t), WithClock(func() time.Time { return now }))

	v.Track(trackedSignal("sig-2", t0, 10))
	now = t0.Add(11 * time.Minute)
	v.Tick(context.Background())

	stats := v.Stats()
	require.Equal(t, 1, stats.Horizons[0].Resolved)
	require.Equal(t, 0, stats.Horizons[0].Correct)
	require.Equal(t, 0.0, stats.Horizons[0].Accuracy)
	require.Equal(t, 1, m.verifications["incorrect"])

	rec := v.Recent(1)[0]
	require.Equal(t, models.PriceLower, rec.Actual)
	require.False(t, rec.Correct)
}

func TestVerifierExpiresWithoutPriceSample(t *testing.T) {
	t0 := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	now := t0
	prices := &stubPrices{prices: map[string]float64{}}
	arch := &stubEnqueuer{}
	m := newMetricsStub()
	v := NewVerifier(prices, arch, m, testLogger(t), WithClock(func() time.Time { return now }))

	v.Track(trackedSignal("sig-3", t0, 10))

	// Due but within the grace window: stays queued.
	now = t0.Add(11 * time.Minute)
	v.Tick(context.Background())
	require.Equal(t, 1, v.Stats().Pending)

	// Past due plus grace: expires, excluded from accuracy.
	now = t0.Add(16 * time.Minute)
	v.Tick(context.Background())

	stats := v.Stats()
	require.Equal(t, 0, stats.Pending)
	h := stats.Horizons[0]
	require.Equal(t, 1, h.Total)
	require.Equal(t, 1, h.Expired)
	require.Equal(t, 0, h.Resolved)
	require.Equal(t, 0.0, h.Accuracy)
	require.Equal(t, 1, m.verifications["expired"])

	// An expired record still completes its signal.
	require.Len(t, arch.payloads, 1)
	require.True(t, arch.payloads[0].Records[0].Expired)
}
