package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func filteredSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Series: models.Series{
			Highs:   []float64{100.5, 101},
			Lows:    []float64{99.8, 100.2},
			Closes:  []float64{100, 100.9},
			Volumes: []float64{10, 12},
		},
		EMA: models.EMAValues{Ready: true, HasSlow: true, UltraFast: 100.7, Fast: 100.5, Medium: 100.2, Slow: 99.8},
	}
}

func TestFilteredVetoesQuietBar(t *testing.T) {
	inner := &stubEvaluator{name: "trending", cand: models.Candidate{Direction: models.DirectionBuy, Strength: 0.8}}
	w := WithFilters(inner, DefaultFilters())

	snap := filteredSnapshot()
	snap.Highs = []float64{100.5, 100.01}
	snap.Lows = []float64{99.8, 99.99}
	snap.Closes = []float64{100, 100}

	cand, err := w.Evaluate(snap, models.MarketState{Trend: models.TrendUp})
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.True(t, hasReason(cand.Reasons, "vetoed"))
}

func TestFilteredHalvesAgainstTrend(t *testing.T) {
	inner := &stubEvaluator{name: "breakout", cand: models.Candidate{Direction: models.DirectionBuy, Strength: 0.8}}
	w := WithFilters(inner, DefaultFilters())

	cand, err := w.Evaluate(filteredSnapshot(), models.MarketState{Trend: models.TrendNone})
	require.NoError(t, err)
	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.InDelta(t, 0.4, cand.Strength, 1e-9)
	require.True(t, hasReason(cand.Reasons, "against the classified trend"))
}

func TestFilteredCutsUnconfirmedMomentum(t *testing.T) {
	inner := &stubEvaluator{name: "ranging", cand: models.Candidate{Direction: models.DirectionBuy, Strength: 0.8}}
	w := WithFilters(inner, DefaultFilters())

	snap := filteredSnapshot()
	snap.Closes = []float64{100.9, 100.9}

	cand, err := w.Evaluate(snap, models.MarketState{Trend: models.TrendUp})
	require.NoError(t, err)
	require.Equal(t, models.DirectionBuy, cand.Direction)
	require.InDelta(t, 0.64, cand.Strength, 1e-9)
	require.True(t, hasReason(cand.Reasons, "momentum unconfirmed"))
}

func TestFilteredPassesCleanCandidate(t *testing.T) {
	inner := &stubEvaluator{name: "trending", cand: models.Candidate{Direction: models.DirectionSell, Strength: 0.7}}
	w := WithFilters(inner, DefaultFilters())

	snap := filteredSnapshot()
	snap.Closes = []float64{101.8, 100.9}

	cand, err := w.Evaluate(snap, models.MarketState{Trend: models.TrendDown})
	require.NoError(t, err)
	require.Equal(t, models.DirectionSell, cand.Direction)
	require.InDelta(t, 0.7, cand.Strength, 1e-9)
	require.Empty(t, cand.Reasons)
}

func TestFilteredSkipsNeutralAndErrors(t *testing.T) {
	neutral := &stubEvaluator{name: "trending", cand: models.Candidate{Direction: models.DirectionNeutral}}
	w := WithFilters(neutral, DefaultFilters())

	snap := filteredSnapshot()
	snap.Closes = []float64{100, 100}
	cand, err := w.Evaluate(snap, models.MarketState{})
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, cand.Direction)
	require.Empty(t, cand.Reasons)

	boom := errors.New("boom")
	failing := &stubEvaluator{name: "trending", err: boom}
	_, err = WithFilters(failing, DefaultFilters()).Evaluate(filteredSnapshot(), models.MarketState{})
	require.ErrorIs(t, err, boom)

	require.Equal(t, "trending", w.Name())
}
