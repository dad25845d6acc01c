package strategy

import (
	"fmt"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
)

// Filtered applies the trend, momentum, and volatility filters to a rule
// evaluator's candidate. The resonance scorer filters internally; this
// wrapper extends the same treatment to the regime evaluators when the
// filter scope is "all".
type Filtered struct {
	inner   service.Evaluator
	filters Filters
}

var _ service.Evaluator = (*Filtered)(nil)

func WithFilters(inner service.Evaluator, f Filters) *Filtered {
	return &Filtered{inner: inner, filters: f}
}

func (w *Filtered) Name() string { return w.inner.Name() }

func (w *Filtered) Evaluate(snap *models.Snapshot, state models.MarketState) (models.Candidate, error) {
	cand, err := w.inner.Evaluate(snap, state)
	if err != nil || cand.Direction == models.DirectionNeutral {
		return cand, err
	}

	price := snap.Price()
	high := snap.Highs[len(snap.Highs)-1]
	low := snap.Lows[len(snap.Lows)-1]

	if w.filters.Volatility {
		vol := barVolatility(high, low, price)
		if vol < w.filters.VolatilityMin || vol > w.filters.VolatilityMax {
			return models.Candidate{
				Direction:  models.DirectionNeutral,
				EntryPrice: price,
				Reasons: []string{fmt.Sprintf("volatility %.4f outside (%.4f, %.4f), candidate vetoed",
					vol, w.filters.VolatilityMin, w.filters.VolatilityMax)},
			}, nil
		}
	}

	if w.filters.Trend && !trendSupports(cand.Direction, state.Trend) {
		cand.Strength *= 0.5
		cand.Reasons = append(cand.Reasons, "against the classified trend, strength halved")
	}

	if w.filters.Momentum {
		prevPrice, hasPrev := snap.PrevPrice()
		var emaFast float64
		hasEMA := snap.EMA.Ready
		if hasEMA {
			emaFast = snap.EMA.Fast
		}
		if ok, _ := momentumScore(price, prevPrice, hasPrev, emaFast, hasEMA); !ok {
			cand.Strength *= 0.8
			cand.Reasons = append(cand.Reasons, "momentum unconfirmed, strength reduced 20%")
		}
	}
	return cand, nil
}
