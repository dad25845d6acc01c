package strategy

import (
	"fmt"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
)

// ResonanceEvaluator scores every enabled indicator's directional vote and
// emits a candidate only when enough indicators agree and the composite
// total clears the configured floor. It works in any regime.
type ResonanceEvaluator struct {
	cfg    Config
	minRes int
}

var _ service.Evaluator = (*ResonanceEvaluator)(nil)

func NewResonance(cfg Config) (*ResonanceEvaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("resonance config: %w", err)
	}
	minRes := cfg.MinResonance
	if minRes == 0 {
		minRes = AutoMinResonance(cfg.Switches.EnabledCount())
	}
	return &ResonanceEvaluator{cfg: cfg, minRes: minRes}, nil
}

func (e *ResonanceEvaluator) Name() string { return "resonance" }

// MinResonance reports the resolved vote floor.
func (e *ResonanceEvaluator) MinResonance() int { return e.minRes }

func (e *ResonanceEvaluator) Evaluate(snap *models.Snapshot, state models.MarketState) (models.Candidate, error) {
	if snap == nil || snap.Len() == 0 {
		return models.Candidate{Direction: models.DirectionNeutral},
			fmt.Errorf("resonance: empty snapshot: %w", models.ErrInsufficientData)
	}

	price := snap.Price()
	prevPrice, hasPrevPrice := snap.PrevPrice()
	high := snap.Highs[len(snap.Highs)-1]
	low := snap.Lows[len(snap.Lows)-1]

	var (
		readings       []models.IndicatorReading
		buy, sell      int
		indicatorScore float64
		trendScore     float64
	)

	if e.cfg.Switches.EMA && snap.EMA.Ready && snap.EMA.HasSlow {
		tr := trendVote(snap.EMA, price)
		trendScore = tr.Strength / 100 * trendWeight
		readings = append(readings, tr)
	}

	vote := func(r models.IndicatorReading, weight float64) {
		indicatorScore += r.Strength / 100 * weight
		readings = append(readings, r)
		switch r.Direction {
		case models.DirectionBuy:
			buy++
		case models.DirectionSell:
			sell++
		}
	}
	if e.cfg.Switches.RSI && snap.RSI.Ready {
		vote(rsiVote(snap.RSI), coreWeight)
	}
	if e.cfg.Switches.KDJ && snap.KDJ.Ready {
		vote(kdjVote(snap.KDJ), coreWeight)
	}
	if e.cfg.Switches.MACD && snap.MACD.Ready {
		vote(macdVote(snap.MACD), coreWeight)
	}
	if e.cfg.Switches.Boll && snap.Boll.Ready {
		vote(bollVote(snap.Boll), coreWeight)
	}
	if e.cfg.Switches.CCI && snap.CCI.Ready {
		vote(cciVote(snap.CCI), auxWeight)
	}
	if e.cfg.Switches.ATR && snap.ATR.Ready {
		vote(atrVote(snap.ATR, high, low, price), auxWeight)
	}
	if e.cfg.Switches.VWAP && snap.VWAP.Ready {
		vote(vwapVote(snap.VWAP, price, prevPrice, hasPrevPrice), vwapWeight)
	}

	if len(readings) == 0 {
		return models.Candidate{Direction: models.DirectionNeutral},
			fmt.Errorf("resonance: no enabled indicator is warm: %w", models.ErrInsufficientData)
	}

	var emaFast float64
	hasEMAFast := e.cfg.Switches.EMA && snap.EMA.Ready
	if hasEMAFast {
		emaFast = snap.EMA.Fast
	}
	momentumOK, momentum := momentumScore(price, prevPrice, hasPrevPrice, emaFast, hasEMAFast)

	var timing float64
	switch {
	case buy >= 4 || sell >= 4:
		timing = timingWeight
	case buy >= 3 || sell >= 3:
		timing = 7
	}

	score := models.CompositeScore{
		Trend:     trendScore,
		Resonance: indicatorScore,
		Momentum:  momentum,
		Timing:    timing,
		Direction: models.DirectionNeutral,
		BuyVotes:  buy,
		SellVotes: sell,
	}

	var reasons []string
	trendPenalty, momentumPenalty := false, false
	switch {
	case buy >= e.minRes:
		score.Direction = models.DirectionBuy
	case sell >= e.minRes:
		score.Direction = models.DirectionSell
	}

	if score.Direction != models.DirectionNeutral {
		score.Total = trendScore + indicatorScore + momentum + timing
		if e.cfg.Filters.Trend && !trendSupports(score.Direction, state.Trend) {
			score.Total *= 0.5
			trendPenalty = true
		}
		if e.cfg.Filters.Momentum && !momentumOK {
			score.Total *= 0.8
			momentumPenalty = true
		}
	}

	volOK := true
	if e.cfg.Filters.Volatility {
		vol := barVolatility(high, low, price)
		volOK = vol >= e.cfg.Filters.VolatilityMin && vol <= e.cfg.Filters.VolatilityMax
		if !volOK {
			score.Direction = models.DirectionNeutral
			score.Total = 0
			reasons = append(reasons, fmt.Sprintf("volatility %.4f outside (%.4f, %.4f), candidate vetoed",
				vol, e.cfg.Filters.VolatilityMin, e.cfg.Filters.VolatilityMax))
		}
	}
	score.PassedFilters = volOK && !trendPenalty && !momentumPenalty

	reasons = append(reasons, fmt.Sprintf("composite %.1f/100, %d buy vs %d sell votes (floor %d)",
		score.Total, buy, sell, e.minRes))
	if trendPenalty {
		reasons = append(reasons, "against the classified trend, score halved")
	}
	if momentumPenalty {
		reasons = append(reasons, "momentum unconfirmed, score reduced 20%")
	}
	for _, r := range readings {
		if r.Direction != models.DirectionNeutral {
			reasons = append(reasons, fmt.Sprintf("[%s] %s", r.Kind, r.Rationale))
		}
	}

	cand := models.Candidate{
		Direction:  models.DirectionNeutral,
		Checks:     score.ResonanceCount(),
		EntryPrice: price,
		Reasons:    reasons,
		Score:      &score,
	}
	if score.Direction != models.DirectionNeutral && score.Total >= e.cfg.MinScore {
		cand.Direction = score.Direction
		cand.Strength = clamp01(score.Total / 100)
	} else if score.Direction != models.DirectionNeutral {
		cand.Reasons = append(cand.Reasons,
			fmt.Sprintf("total %.1f below minimum %.1f, no signal", score.Total, e.cfg.MinScore))
	}
	return cand, nil
}

// trendSupports reports whether the classified trend direction backs the
// candidate direction.
func trendSupports(dir models.Direction, trend models.TrendDirection) bool {
	switch dir {
	case models.DirectionBuy:
		return trend == models.TrendUp
	case models.DirectionSell:
		return trend == models.TrendDown
	default:
		return false
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
