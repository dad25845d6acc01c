package confirm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
)

var confirmBase = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func snapOf(n int, close float64) *models.Snapshot {
	s := &models.Snapshot{}
	s.Highs = make([]float64, n)
	s.Lows = make([]float64, n)
	s.Closes = make([]float64, n)
	s.Volumes = make([]float64, n)
	for i := 0; i < n; i++ {
		s.Highs[i] = close + 0.5
		s.Lows[i] = close - 0.5
		s.Closes[i] = close
		s.Volumes[i] = 10
	}
	return s
}

// agreeingSnapshot passes all three default checks for a BUY:
// price above the stack, RSI normal, MACD histogram positive.
func agreeingSnapshot() *models.Snapshot {
	s := snapOf(30, 100.5)
	s.EMA = models.EMAValues{Ready: true, HasSlow: true, UltraFast: 100.8, Fast: 100.6, Medium: 100, Slow: 99.5}
	s.RSI = models.RSIValues{Ready: true, Cur: 55}
	s.MACD = models.MACDValues{Ready: true, MACD: 0.3, Signal: 0.1, Hist: 0.2}
	return s
}

// rejectingSnapshot fails all three default checks for a BUY.
func rejectingSnapshot() *models.Snapshot {
	s := snapOf(30, 100.5)
	s.EMA = models.EMAValues{Ready: true, HasSlow: true, UltraFast: 100.9, Fast: 100.95, Medium: 101, Slow: 102}
	s.RSI = models.RSIValues{Ready: true, Cur: 80}
	s.MACD = models.MACDValues{Ready: true, MACD: -0.3, Signal: -0.1, Hist: -0.2}
	return s
}

func TestConfirmBothTimeframesAgree(t *testing.T) {
	c := New(DefaultConfig())

	out := c.Confirm(models.DirectionBuy, 0.7, snapOf(60, 100.5), map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: agreeingSnapshot(),
		repository.TF1h:  agreeingSnapshot(),
	})

	require.True(t, out.Confirmed)
	require.Equal(t, 2, out.Count)
	require.Zero(t, out.Rejections)
	require.Zero(t, out.Stale)
	require.Len(t, out.Checks, 2)
	for _, check := range out.Checks {
		require.Equal(t, models.TFConfirmed, check.Status)
		require.InDelta(t, 0.80, check.Score, 1e-9)
		require.InDelta(t, 1.0, check.PassRate, 1e-9)
	}
	require.InDelta(t, 0.76, out.Adjusted, 1e-9)
}

func TestConfirmSingleRejectionPenalty(t *testing.T) {
	c := New(DefaultConfig())

	out := c.Confirm(models.DirectionBuy, 0.7, snapOf(60, 100.5), map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: agreeingSnapshot(),
		repository.TF1h:  rejectingSnapshot(),
	})

	require.True(t, out.Confirmed)
	require.Equal(t, 1, out.Count)
	require.Equal(t, 1, out.Rejections)
	require.InDelta(t, 0.488, out.Adjusted, 1e-9)
	require.True(t, hasWarning(out.Warnings, "1h rejected"))
}

func TestConfirmAllRejectionsKillTheSignal(t *testing.T) {
	c := New(DefaultConfig())

	out := c.Confirm(models.DirectionBuy, 0.7, snapOf(60, 100.5), map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: rejectingSnapshot(),
		repository.TF1h:  rejectingSnapshot(),
	})

	require.False(t, out.Confirmed)
	require.Equal(t, 2, out.Rejections)
	require.InDelta(t, 0.12, out.Adjusted, 1e-9)
}

func TestConfirmInsufficientBarsStayNeutral(t *testing.T) {
	c := New(DefaultConfig())

	out := c.Confirm(models.DirectionBuy, 0.7, snapOf(60, 100.5), map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: snapOf(10, 100.5),
	})

	require.False(t, out.Confirmed)
	require.Zero(t, out.Count)
	require.Len(t, out.Checks, 1)
	require.Equal(t, models.TFNeutral, out.Checks[0].Status)
	require.InDelta(t, 0.5, out.Checks[0].Score, 1e-9)
	require.True(t, strings.Contains(out.Checks[0].Notes[0], "only 10 of 30 bars"))
	require.InDelta(t, 0.455/0.75, out.Adjusted, 1e-9)
}

func TestConfirmStaleTimeframeAbstains(t *testing.T) {
	c := New(DefaultConfig())
	primary := &models.Snapshot{Timestamp: confirmBase}

	stale15 := agreeingSnapshot()
	stale15.Timestamp = confirmBase.Add(-31 * time.Minute)
	fresh1h := agreeingSnapshot()
	fresh1h.Timestamp = confirmBase.Add(-90 * time.Minute)

	out := c.Confirm(models.DirectionBuy, 0.7, primary, map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: stale15,
		repository.TF1h:  fresh1h,
	})

	require.Equal(t, 1, out.Stale)
	require.Len(t, out.Checks, 1)
	require.Equal(t, "1h", out.Checks[0].Timeframe)
	require.True(t, out.Confirmed)
	require.InDelta(t, 0.48/0.65, out.Adjusted, 1e-9)
	require.True(t, hasWarning(out.Warnings, "15m data stale"))

	// Exactly two own durations old is still usable.
	edge15 := agreeingSnapshot()
	edge15.Timestamp = confirmBase.Add(-30 * time.Minute)
	out = c.Confirm(models.DirectionBuy, 0.7, primary, map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: edge15,
	})
	require.Zero(t, out.Stale)
	require.Len(t, out.Checks, 1)
}

func TestConfirmWithoutDataWaives(t *testing.T) {
	c := New(DefaultConfig())

	out := c.Confirm(models.DirectionBuy, 0.7, snapOf(60, 100.5), nil)

	require.True(t, out.Confirmed)
	require.Zero(t, out.Count)
	require.Empty(t, out.Checks)
	require.InDelta(t, 0.7, out.Adjusted, 1e-9)
	require.True(t, hasWarning(out.Warnings, "waived"))
}

func TestConfirmNeutralDirectionIsEmpty(t *testing.T) {
	c := New(DefaultConfig())
	out := c.Confirm(models.DirectionNeutral, 0.7, nil, map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: agreeingSnapshot(),
	})
	require.Equal(t, models.Confirmation{}, out)
}

func TestConfirmSellMirror(t *testing.T) {
	c := New(DefaultConfig())

	s := snapOf(30, 99)
	s.EMA = models.EMAValues{Ready: true, HasSlow: true, UltraFast: 99.2, Fast: 99.6, Medium: 100, Slow: 100.5}
	s.RSI = models.RSIValues{Ready: true, Cur: 72}
	s.MACD = models.MACDValues{Ready: true, MACD: -0.3, Signal: -0.1, Hist: -0.2}

	out := c.Confirm(models.DirectionSell, 0.7, snapOf(60, 99), map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: s,
	})

	require.True(t, out.Confirmed)
	require.Equal(t, 1, out.Count)
	require.Len(t, out.Checks, 1)
	require.Equal(t, models.TFConfirmed, out.Checks[0].Status)
	require.InDelta(t, 0.85, out.Checks[0].Score, 1e-9)
	require.InDelta(t, 0.5775/0.75, out.Adjusted, 1e-9)
}

func TestConfirmVolumeCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckVolume = true
	c := New(cfg)

	s := agreeingSnapshot()
	n := len(s.Volumes)
	s.Volumes[n-3], s.Volumes[n-2], s.Volumes[n-1] = 13, 13, 13

	out := c.Confirm(models.DirectionBuy, 0.7, snapOf(60, 100.5), map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: s,
	})

	require.Len(t, out.Checks, 1)
	require.Equal(t, models.TFConfirmed, out.Checks[0].Status)
	require.InDelta(t, 0.85, out.Checks[0].Score, 1e-9)
	require.InDelta(t, 1.0, out.Checks[0].PassRate, 1e-9)
}

func TestConfirmUnreadyIndicatorsStillCount(t *testing.T) {
	// Enabled checks with cold indicators leave the score at base but drag
	// the pass rate to zero, which reads as a rejection.
	c := New(DefaultConfig())

	out := c.Confirm(models.DirectionBuy, 0.7, snapOf(60, 100.5), map[repository.Timeframe]*models.Snapshot{
		repository.TF15m: snapOf(30, 100.5),
	})

	require.Len(t, out.Checks, 1)
	require.Equal(t, models.TFRejected, out.Checks[0].Status)
	require.InDelta(t, 0.5, out.Checks[0].Score, 1e-9)
	require.Zero(t, out.Checks[0].PassRate)
	require.Equal(t, 1, out.Rejections)
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
