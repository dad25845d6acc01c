package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
	"TrendPulse/internal/services/confirm"
	"TrendPulse/internal/services/indicators"
	"TrendPulse/internal/services/market"
	"TrendPulse/internal/services/strategy"
)

type fixedClassifier struct {
	state models.MarketState
}

func (c fixedClassifier) Classify(*models.Snapshot) models.MarketState { return c.state }

type fixedEvaluator struct {
	name string
	cand models.Candidate
	err  error
}

func (e fixedEvaluator) Name() string { return e.name }

func (e fixedEvaluator) Evaluate(*models.Snapshot, models.MarketState) (models.Candidate, error) {
	return e.cand, e.err
}

type fixedSelector struct {
	ev service.Evaluator
}

func (s fixedSelector) Select(models.MarketState) (service.Evaluator, bool) {
	return s.ev, s.ev != nil
}

// climbingBars builds a steady uptrend: +0.2% per closed 5m bar with slowly
// growing volume.
func climbingBars(n int) []models.Bar {
	bars := make([]models.Bar, 0, n)
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		price *= 1.002
		bars = append(bars, models.Bar{
			OpenTime: t0.Add(time.Duration(i) * 5 * time.Minute),
			Open:     open,
			High:     price * 1.001,
			Low:      open * 0.999,
			Close:    price,
			Volume:   1000 + float64(i)*10,
			Closed:   true,
		})
	}
	return bars
}

func trendingEngine(t *testing.T, strength float64) *SignalEngine {
	t.Helper()
	cand := models.Candidate{
		Direction: models.DirectionBuy,
		Strength:  strength,
		Checks:    4,
		Reasons:   []string{"uptrend pullback entry"},
	}
	return NewSignalEngine(
		fixedClassifier{state: models.MarketState{Regime: models.RegimeTrending, Trend: models.TrendUp, ADX: 30}},
		fixedSelector{ev: fixedEvaluator{name: "trending", cand: cand}},
		confirm.New(confirm.DefaultConfig()),
		DefaultGradeThresholds(),
		nil,
		testLogger(t),
	)
}

func TestEngineEmitsConfirmedBuySignal(t *testing.T) {
	snap, err := indicators.Compute(indicators.DefaultParams(), "BTCUSDT", "5m", climbingBars(90))
	require.NoError(t, err)
	require.True(t, snap.ATR.Ready)

	sig, err := trendingEngine(t, 0.85).Evaluate(snap, nil)
	require.NoError(t, err)
	require.NotNil(t, sig)

	require.Equal(t, models.DirectionBuy, sig.Direction)
	require.Equal(t, "trending", sig.StrategyUsed)
	require.Equal(t, snap.Price(), sig.EntryPrice)
	require.Less(t, sig.StopLoss, sig.EntryPrice)
	require.Greater(t, sig.TakeProfit, sig.EntryPrice)

	// No higher timeframe data waives confirmation, so the full strength
	// carries through and grades A.
	require.True(t, sig.IsConfirmed)
	require.Equal(t, 0.85, sig.AdjustedStrength)
	require.Equal(t, models.GradeA, sig.Grade)
	require.True(t, sig.Grade.Emittable())

	require.Len(t, sig.Predictions, len(DefaultHorizons))
	for i, p := range sig.Predictions {
		require.Equal(t, DefaultHorizons[i], p.HorizonMinutes)
		require.Equal(t, models.PriceHigher, p.Direction)
		require.Greater(t, p.TargetPrice, sig.EntryPrice)
		if i > 0 {
			require.Less(t, p.Confidence, sig.Predictions[i-1].Confidence,
				"confidence decays with horizon")
		}
	}
}

func TestEngineRejectsInsufficientHistory(t *testing.T) {
	snap, err := indicators.Compute(indicators.DefaultParams(), "BTCUSDT", "5m", climbingBars(30))
	require.NoError(t, err)

	sig, err := trendingEngine(t, 0.85).Evaluate(snap, nil)
	require.ErrorIs(t, err, models.ErrInsufficientData)
	require.Nil(t, sig)
}

func TestEngineSuppressesWeakCandidate(t *testing.T) {
	snap, err := indicators.Compute(indicators.DefaultParams(), "BTCUSDT", "5m", climbingBars(90))
	require.NoError(t, err)

	sig, err := trendingEngine(t, 0.2).Evaluate(snap, nil)
	require.NoError(t, err)
	require.Nil(t, sig, "below every grade floor")
}

func TestEngineWithRealStrategyStack(t *testing.T) {
	snap, err := indicators.Compute(indicators.DefaultParams(), "BTCUSDT", "5m", climbingBars(120))
	require.NoError(t, err)

	resonance, err := strategy.NewResonance(strategy.DefaultConfig())
	require.NoError(t, err)
	selector := strategy.NewSelector(strategy.ModeRegime,
		resonance,
		strategy.NewRanging(strategy.DefaultRangingConfig()),
		strategy.NewTrending(strategy.DefaultTrendingConfig()),
		strategy.NewBreakout(strategy.DefaultBreakoutConfig()),
	)
	engine := NewSignalEngine(
		market.NewClassifier(market.DefaultThresholds()),
		selector,
		confirm.New(confirm.DefaultConfig()),
		DefaultGradeThresholds(),
		DefaultHorizons,
		testLogger(t),
	)

	state := engine.Classify(snap)
	require.NotEqual(t, models.RegimeUnknown, state.Regime)
	require.Equal(t, models.TrendUp, state.Trend)

	// The synthetic series may or may not clear every rule, but whatever
	// comes out must be coherent.
	sig, err := engine.Evaluate(snap, nil)
	require.NoError(t, err)
	if sig != nil {
		require.Equal(t, models.DirectionBuy, sig.Direction)
		require.True(t, sig.Grade.Emittable())
		require.NotEmpty(t, sig.Reasons)
	}
}
