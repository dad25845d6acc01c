package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

// resonanceSnapshot carries five strongly bullish votes plus a perfect bull
// EMA stack. Last bar: high 101, low 100.2, close 100.9, previous close 100.
func resonanceSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Symbol:    "BTCUSDT",
		Timeframe: "1m",
		Series: models.Series{
			Highs:   []float64{100.5, 101},
			Lows:    []float64{99.8, 100.2},
			Closes:  []float64{100, 100.9},
			Volumes: []float64{10, 12},
		},
		EMA:  models.EMAValues{Ready: true, HasSlow: true, UltraFast: 100.7, Fast: 100.5, Medium: 100.2, Slow: 99.8},
		RSI:  models.RSIValues{Ready: true, Cur: 15},
		KDJ:  models.KDJValues{Ready: true, K: 15, D: 18, J: -5},
		MACD: models.MACDValues{Ready: true, MACD: 0.2, Signal: 0.1, Hist: 0.1, PrevMACD: -0.1, PrevSignal: 0.05, HasPrev: true},
		CCI:  models.CCIValues{Ready: true, Cur: -250},
		ATR:  models.ATRValues{Ready: true, Cur: 1.2, Prev: 1.0, HasPrev: true},
	}
}

func emaConfig() Config {
	cfg := DefaultConfig()
	cfg.Switches.EMA = true
	return cfg
}

func TestResonanceEmitsWhenVotesAndScoreClear(t *testing.T) {
	ev, err := NewResonance(emaConfig())
	require.NoError(t, err)
	require.Equal(t, 5, ev.MinResonance())

	cand, err := ev.Evaluate(resonanceSnapshot(), models.MarketState{Trend: models.TrendUp})
	require.NoError(t, err)

	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.InDelta(t, 0.812, cand.Strength, 1e-9)
	require.Equal(t, 5, cand.Checks)
	require.InDelta(t, 100.9, cand.EntryPrice, 1e-9)

	require.NotNil(t, cand.Score)
	require.InDelta(t, 25.0, cand.Score.Trend, 1e-9)
	require.InDelta(t, 31.2, cand.Score.Resonance, 1e-9)
	require.InDelta(t, 15.0, cand.Score.Momentum, 1e-9)
	require.InDelta(t, 10.0, cand.Score.Timing, 1e-9)
	require.InDelta(t, 81.2, cand.Score.Total, 1e-9)
	require.Equal(t, 5, cand.Score.BuyVotes)
	require.Zero(t, cand.Score.SellVotes)
	require.True(t, cand.Score.PassedFilters)
}

func TestResonanceDefaultSwitchesNeverClearTheFloor(t *testing.T) {
	// With the default switch set the trend component is off, so the best
	// possible total is 31.2+15+10 and can never reach the score floor.
	ev, err := NewResonance(DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 4, ev.MinResonance())

	cand, err := ev.Evaluate(resonanceSnapshot(), models.MarketState{Trend: models.TrendUp})
	require.NoError(t, err)

	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Zero(t, cand.Strength)
	require.Equal(t, models.DirectionBuy, cand.Score.Direction)
	require.InDelta(t, 49.2, cand.Score.Total, 1e-9)
	require.True(t, cand.Score.PassedFilters)
	require.True(t, hasReason(cand.Reasons, "below minimum"))
}

func TestResonanceTrendFilterHalvesTotal(t *testing.T) {
	ev, err := NewResonance(emaConfig())
	require.NoError(t, err)

	cand, err := ev.Evaluate(resonanceSnapshot(), models.MarketState{Trend: models.TrendDown})
	require.NoError(t, err)

	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Equal(t, models.DirectionBuy, cand.Score.Direction)
	require.InDelta(t, 40.6, cand.Score.Total, 1e-9)
	require.False(t, cand.Score.PassedFilters)
	require.True(t, hasReason(cand.Reasons, "against the classified trend"))
}

func TestResonanceMomentumFilterCutsTwentyPercent(t *testing.T) {
	snap := resonanceSnapshot()
	snap.Closes = []float64{100.9, 100.9}

	ev, err := NewResonance(emaConfig())
	require.NoError(t, err)

	cand, err := ev.Evaluate(snap, models.MarketState{Trend: models.TrendUp})
	require.NoError(t, err)

	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.InDelta(t, 7.0, cand.Score.Momentum, 1e-9)
	require.InDelta(t, 58.56, cand.Score.Total, 1e-9)
	require.False(t, cand.Score.PassedFilters)
	require.True(t, hasReason(cand.Reasons, "momentum unconfirmed"))
}

func TestResonanceVolatilityVeto(t *testing.T) {
	snap := resonanceSnapshot()
	snap.Highs = []float64{100.5, 100.01}
	snap.Lows = []float64{99.8, 99.99}
	snap.Closes = []float64{100, 100.0}

	ev, err := NewResonance(emaConfig())
	require.NoError(t, err)

	cand, err := ev.Evaluate(snap, models.MarketState{Trend: models.TrendUp})
	require.NoError(t, err)

	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Zero(t, cand.Score.Total)
	require.False(t, cand.Score.PassedFilters)
	require.True(t, hasReason(cand.Reasons, "vetoed"))
}

func TestResonanceSplitVotesStayNeutral(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Switches = Switches{RSI: true, KDJ: true}

	ev, err := NewResonance(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, ev.MinResonance())

	snap := resonanceSnapshot()
	snap.KDJ = models.KDJValues{Ready: true, K: 85, D: 86, J: 95}

	cand, err := ev.Evaluate(snap, models.MarketState{Trend: models.TrendUp})
	require.NoError(t, err)

	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Equal(t, models.DirectionNeutral, cand.Score.Direction)
	require.Equal(t, 1, cand.Score.BuyVotes)
	require.Equal(t, 1, cand.Score.SellVotes)
	require.Zero(t, cand.Score.Total)
}

func TestResonanceInsufficientData(t *testing.T) {
	ev, err := NewResonance(emaConfig())
	require.NoError(t, err)

	_, err = ev.Evaluate(nil, models.MarketState{})
	require.ErrorIs(t, err, models.ErrInsufficientData)

	cold := &models.Snapshot{Series: models.Series{
		Highs: []float64{101}, Lows: []float64{100}, Closes: []float64{100.5}, Volumes: []float64{10},
	}}
	_, err = ev.Evaluate(cold, models.MarketState{})
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestNewResonanceRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinScore = 150
	_, err := NewResonance(cfg)
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	cfg = DefaultConfig()
	cfg.MinResonance = -1
	_, err = NewResonance(cfg)
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	cfg = DefaultConfig()
	cfg.Filters.VolatilityMin = 0.1
	cfg.Filters.VolatilityMax = 0.01
	_, err = NewResonance(cfg)
	require.ErrorIs(t, err, models.ErrInvalidParameter)
}

func hasReason(reasons []string, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}
