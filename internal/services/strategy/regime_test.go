package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

// seriesOf builds n identical bars. Tests mutate the last entries to shape
// the current bar.
func seriesOf(n int, high, low, close float64) models.Series {
	s := models.Series{
		Highs:   make([]float64, n),
		Lows:    make([]float64, n),
		Closes:  make([]float64, n),
		Volumes: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.Highs[i] = high
		s.Lows[i] = low
		s.Closes[i] = close
		s.Volumes[i] = 10
	}
	return s
}

func TestRangingBuysTheLowerBand(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(rangingMinBars, 100.5, 99.5, 100),
		Boll:   models.BollValues{Ready: true, Upper: 102, Middle: 100.5, Lower: 99, PercentB: 0.1},
		RSI:    models.RSIValues{Ready: true, Cur: 30},
		KDJ:    models.KDJValues{Ready: true, K: 20, D: 25, J: 15},
		ATR:    models.ATRValues{Ready: true, Cur: 1.0},
	}

	cand, err := NewRanging(DefaultRangingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.Equal(t, 3, cand.Checks)
	require.InDelta(t, 0.60, cand.Strength, 1e-9)
	require.InDelta(t, 98.0, cand.StopLoss, 1e-9)
	require.InDelta(t, 100.5, cand.TakeProfit, 1e-9)
}

func TestRangingSellsTheUpperBand(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(rangingMinBars, 100.5, 99.5, 100),
		Boll:   models.BollValues{Ready: true, Upper: 102, Middle: 100.5, Lower: 99, PercentB: 0.9},
		RSI:    models.RSIValues{Ready: true, Cur: 70},
		KDJ:    models.KDJValues{Ready: true, K: 80, D: 78, J: 95},
		ATR:    models.ATRValues{Ready: true, Cur: 1.0},
		Volume: models.VolumeValues{Ready: true, Condition: models.VolumeLow, Ratio: 0.6},
	}

	cand, err := NewRanging(DefaultRangingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionSell, cand.Direction)
	require.Equal(t, 3, cand.Checks)
	require.InDelta(t, 0.80, cand.Strength, 1e-9)
	require.InDelta(t, 102.0, cand.StopLoss, 1e-9)
	require.InDelta(t, 100.5, cand.TakeProfit, 1e-9)
}

func TestRangingGoldenCrossCounts(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(rangingMinBars, 100.5, 99.5, 100),
		Boll:   models.BollValues{Ready: true, Middle: 100.2, PercentB: 0.5},
		RSI:    models.RSIValues{Ready: true, Cur: 50},
		KDJ:    models.KDJValues{Ready: true, K: 22, D: 21, J: 30, PrevK: 18, PrevD: 23, HasPrev: true},
	}

	cand, err := NewRanging(DefaultRangingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.Equal(t, 2, cand.Checks)
	require.InDelta(t, 0.35, cand.Strength, 1e-9)
	require.Zero(t, cand.StopLoss)
	require.InDelta(t, 100.2, cand.TakeProfit, 1e-9)
}

func TestRangingNeutralMidRange(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(rangingMinBars, 100.5, 99.5, 100),
		Boll:   models.BollValues{Ready: true, Middle: 100, PercentB: 0.5},
		RSI:    models.RSIValues{Ready: true, Cur: 50},
		KDJ:    models.KDJValues{Ready: true, K: 50, D: 50, J: 50},
	}

	cand, err := NewRanging(DefaultRangingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Contains(t, cand.Reasons, "range conditions not met")
}

func TestRangingInsufficientData(t *testing.T) {
	ev := NewRanging(DefaultRangingConfig())

	_, err := ev.Evaluate(nil, models.MarketState{})
	require.ErrorIs(t, err, models.ErrInsufficientData)

	snap := &models.Snapshot{Series: seriesOf(10, 100.5, 99.5, 100)}
	_, err = ev.Evaluate(snap, models.MarketState{})
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestTrendingBuysThePullback(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(trendingMinBars, 101, 100, 100.5),
		EMA:    models.EMAValues{Ready: true, HasSlow: true, UltraFast: 101, Fast: 100.8, Medium: 100, Slow: 99},
		RSI:    models.RSIValues{Ready: true, Cur: 55},
		MACD:   models.MACDValues{Ready: true, MACD: 0.3, Signal: 0.1, Hist: 0.2},
		ATR:    models.ATRValues{Ready: true, Cur: 1.0},
	}

	cand, err := NewTrending(DefaultTrendingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.Equal(t, 4, cand.Checks)
	require.InDelta(t, 0.90, cand.Strength, 1e-9)
	require.InDelta(t, 98.5, cand.StopLoss, 1e-9)
	require.InDelta(t, 103.5, cand.TakeProfit, 1e-9)
}

func TestTrendingSellsTheRally(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(trendingMinBars, 100.5, 99.8, 100.2),
		EMA:    models.EMAValues{Ready: true, HasSlow: true, UltraFast: 99, Fast: 99.5, Medium: 100, Slow: 101},
		RSI:    models.RSIValues{Ready: true, Cur: 45},
		MACD:   models.MACDValues{Ready: true, MACD: -0.3, Signal: -0.1, Hist: -0.2},
		ATR:    models.ATRValues{Ready: true, Cur: 1.0},
	}

	cand, err := NewTrending(DefaultTrendingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionSell, cand.Direction)
	require.Equal(t, 4, cand.Checks)
	require.InDelta(t, 0.90, cand.Strength, 1e-9)
	require.InDelta(t, 102.2, cand.StopLoss, 1e-9)
	require.InDelta(t, 97.2, cand.TakeProfit, 1e-9)
}

func TestTrendingNeutralWithoutDirection(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(trendingMinBars, 101, 99, 100),
		EMA:    models.EMAValues{Ready: true, HasSlow: true, UltraFast: 100, Fast: 100.5, Medium: 101, Slow: 99},
	}

	cand, err := NewTrending(DefaultTrendingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Contains(t, cand.Reasons, "no clear trend direction")
}

func TestTrendingChecksShortfall(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(trendingMinBars, 111, 109, 110),
		EMA:    models.EMAValues{Ready: true, HasSlow: true, UltraFast: 105, Fast: 104, Medium: 100, Slow: 95},
		RSI:    models.RSIValues{Ready: true, Cur: 75},
		MACD:   models.MACDValues{Ready: true, MACD: -0.2, Signal: 0.3, Hist: -0.5},
	}

	cand, err := NewTrending(DefaultTrendingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Contains(t, cand.Reasons, "trend conditions not met")
}

func TestTrendingStopFallsBackToSlowEMA(t *testing.T) {
	snap := &models.Snapshot{
		Series: seriesOf(trendingMinBars, 101, 100, 100.5),
		EMA:    models.EMAValues{Ready: true, HasSlow: true, UltraFast: 101, Fast: 100.8, Medium: 100, Slow: 99},
		RSI:    models.RSIValues{Ready: true, Cur: 55},
	}

	cand, err := NewTrending(DefaultTrendingConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.Equal(t, 3, cand.Checks)
	require.InDelta(t, 0.70, cand.Strength, 1e-9)
	require.InDelta(t, 99.0, cand.StopLoss, 1e-9)
	require.Zero(t, cand.TakeProfit)
}

func TestTrendingInsufficientData(t *testing.T) {
	ev := NewTrending(DefaultTrendingConfig())

	snap := &models.Snapshot{Series: seriesOf(trendingMinBars-1, 101, 100, 100.5)}
	_, err := ev.Evaluate(snap, models.MarketState{})
	require.ErrorIs(t, err, models.ErrInsufficientData)

	snap = &models.Snapshot{Series: seriesOf(trendingMinBars, 101, 100, 100.5)}
	_, err = ev.Evaluate(snap, models.MarketState{})
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestBreakoutChasesResistanceBreak(t *testing.T) {
	s := seriesOf(30, 100, 99, 99.5)
	s.Highs[29], s.Lows[29], s.Closes[29] = 102.5, 101, 102

	snap := &models.Snapshot{
		Series: s,
		ATR:    models.ATRValues{Ready: true, Cur: 1.0, Recent: []float64{0.7, 0.8, 1.0}},
		Volume: models.VolumeValues{Ready: true, Condition: models.VolumeSpike, Ratio: 2.5},
		MACD:   models.MACDValues{Ready: true, MACD: 0.4, Signal: 0.1, Hist: 0.3, PrevHist: 0.1, HasPrev: true},
		ADX:    models.ADXValues{Ready: true, ADX: 45, PlusDI: 30, MinusDI: 15},
	}

	cand, err := NewBreakout(DefaultBreakoutConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.Equal(t, 5, cand.Checks)
	require.InDelta(t, 0.95, cand.Strength, 1e-9)
	require.InDelta(t, 99.0, cand.StopLoss, 1e-9)
	require.InDelta(t, 105.0, cand.TakeProfit, 1e-9)
}

func TestBreakoutPenalizesQuietBreak(t *testing.T) {
	s := seriesOf(30, 100, 99, 99.5)
	s.Highs[29], s.Lows[29], s.Closes[29] = 102.5, 101, 102

	snap := &models.Snapshot{
		Series: s,
		ATR:    models.ATRValues{Ready: true, Cur: 1.0, Recent: []float64{1.0, 1.0, 1.0}},
		Volume: models.VolumeValues{Ready: true, Condition: models.VolumeNormal, Ratio: 1.0},
		MACD:   models.MACDValues{Ready: true, MACD: 0.4, Signal: 0.1, Hist: 0.3},
		ADX:    models.ADXValues{Ready: true, ADX: 45, PlusDI: 30, MinusDI: 15},
	}

	cand, err := NewBreakout(DefaultBreakoutConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Contains(t, cand.Reasons, "no confirmed breakout")
}

func TestBreakoutSellsSupportBreak(t *testing.T) {
	s := seriesOf(30, 100, 99, 99.5)
	s.Highs[29], s.Lows[29], s.Closes[29] = 98, 96.5, 97

	snap := &models.Snapshot{
		Series: s,
		ATR:    models.ATRValues{Ready: true, Cur: 1.0, Recent: []float64{1.0, 1.0, 1.0}},
		Volume: models.VolumeValues{Ready: true, Condition: models.VolumeHigh, Ratio: 1.6},
		MACD:   models.MACDValues{Ready: true, MACD: -0.4, Signal: -0.1, Hist: -0.3},
		ADX:    models.ADXValues{Ready: true, ADX: 45, PlusDI: 10, MinusDI: 25},
	}

	cand, err := NewBreakout(DefaultBreakoutConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)

	require.Equal(t, models.DirectionSell, cand.Direction)
	require.Equal(t, 4, cand.Checks)
	require.InDelta(t, 0.70, cand.Strength, 1e-9)
	require.InDelta(t, 100.0, cand.StopLoss, 1e-9)
	require.InDelta(t, 94.0, cand.TakeProfit, 1e-9)
}

func TestBreakoutRequiresDisplacedClose(t *testing.T) {
	s := seriesOf(30, 100, 99, 99.5)
	s.Highs[29], s.Lows[29], s.Closes[29] = 100.6, 99.9, 100.3

	snap := &models.Snapshot{
		Series: s,
		ATR:    models.ATRValues{Ready: true, Cur: 1.0, Recent: []float64{0.7, 0.8, 1.0}},
		Volume: models.VolumeValues{Ready: true, Condition: models.VolumeSpike, Ratio: 2.5},
	}

	cand, err := NewBreakout(DefaultBreakoutConfig()).Evaluate(snap, models.MarketState{})
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Contains(t, cand.Reasons, "no confirmed breakout")
}

func TestBreakoutInsufficientData(t *testing.T) {
	snap := &models.Snapshot{Series: seriesOf(20, 100, 99, 99.5)}
	_, err := NewBreakout(DefaultBreakoutConfig()).Evaluate(snap, models.MarketState{})
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestATRExpanding(t *testing.T) {
	require.True(t, atrExpanding([]float64{1.0, 1.0, 1.3}, 1.2))
	require.True(t, atrExpanding([]float64{0.9, 1.0, 1.1, 1.3}, 1.2))
	require.False(t, atrExpanding([]float64{1.0, 1.0, 1.1}, 1.2))
	require.False(t, atrExpanding([]float64{1.0, 1.3}, 1.2))
}
