package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

type stubEvaluator struct {
	name string
	cand models.Candidate
	err  error
}

func (s *stubEvaluator) Name() string { return s.name }

func (s *stubEvaluator) Evaluate(*models.Snapshot, models.MarketState) (models.Candidate, error) {
	return s.cand, s.err
}

func TestSelectorRoutesRegimes(t *testing.T) {
	ranging := &stubEvaluator{name: "ranging"}
	trending := &stubEvaluator{name: "trending"}
	breakout := &stubEvaluator{name: "breakout"}
	sel := NewSelector(ModeRegime, nil, ranging, trending, breakout)

	cases := []struct {
		regime models.Regime
		want   string
	}{
		{models.RegimeRanging, "ranging"},
		{models.RegimeTrending, "trending"},
		{models.RegimeBreakout, "breakout"},
		{models.RegimeUnknown, "trending"},
	}
	for _, tc := range cases {
		ev, ok := sel.Select(models.MarketState{Regime: tc.regime})
		require.True(t, ok, "regime %s", tc.regime)
		require.Equal(t, tc.want, ev.Name(), "regime %s", tc.regime)
	}
}

func TestSelectorResonanceModeIgnoresRegime(t *testing.T) {
	resonance := &stubEvaluator{name: "resonance"}
	sel := NewSelector(ModeResonance, resonance, &stubEvaluator{name: "ranging"}, nil, nil)

	for _, regime := range []models.Regime{
		models.RegimeRanging, models.RegimeTrending, models.RegimeBreakout, models.RegimeUnknown,
	} {
		ev, ok := sel.Select(models.MarketState{Regime: regime})
		require.True(t, ok)
		require.Equal(t, "resonance", ev.Name())
	}
}

func TestSelectorDisabledStrategy(t *testing.T) {
	sel := NewSelector(ModeRegime, nil, nil, nil, nil)
	_, ok := sel.Select(models.MarketState{Regime: models.RegimeRanging})
	require.False(t, ok)

	sel = NewSelector(ModeResonance, nil, nil, nil, nil)
	_, ok = sel.Select(models.MarketState{Regime: models.RegimeTrending})
	require.False(t, ok)
}

func TestSelectorNormalizesUnknownMode(t *testing.T) {
	trending := &stubEvaluator{name: "trending"}
	sel := NewSelector(Mode("bogus"), &stubEvaluator{name: "resonance"}, nil, trending, nil)

	ev, ok := sel.Select(models.MarketState{Regime: models.RegimeTrending})
	require.True(t, ok)
	require.Equal(t, "trending", ev.Name())
}
