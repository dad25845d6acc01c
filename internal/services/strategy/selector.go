package strategy

import (
	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
)

// Selector routes a market state to its evaluator. In resonance mode every
// state maps to the resonance scorer; in regime mode each regime gets its
// rule evaluator, with UNKNOWN falling back to trending. A nil evaluator
// slot means the strategy is disabled.
type Selector struct {
	mode      Mode
	resonance service.Evaluator
	ranging   service.Evaluator
	trending  service.Evaluator
	breakout  service.Evaluator
}

var _ service.EvaluatorSelector = (*Selector)(nil)

func NewSelector(mode Mode, resonance, ranging, trending, breakout service.Evaluator) *Selector {
	if mode != ModeResonance {
		mode = ModeRegime
	}
	return &Selector{
		mode:      mode,
		resonance: resonance,
		ranging:   ranging,
		trending:  trending,
		breakout:  breakout,
	}
}

func (s *Selector) Select(state models.MarketState) (service.Evaluator, bool) {
	if s.mode == ModeResonance {
		return s.resonance, s.resonance != nil
	}

	var ev service.Evaluator
	switch state.Regime {
	case models.RegimeRanging:
		ev = s.ranging
	case models.RegimeBreakout:
		ev = s.breakout
	default:
		// TRENDING, and UNKNOWN while ADX warms up.
		ev = s.trending
	}
	return ev, ev != nil
}
