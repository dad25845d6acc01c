package strategy

import (
	"fmt"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
)

// BreakoutConfig tunes the breakout chase used while ADX reports explosive
// trend strength.
type BreakoutConfig struct {
	Lookback           int     // bars defining resistance and support
	MinBreakoutATR     float64 // break distance as a multiple of ATR
	VolumeConfirmation bool
	MinVolumeRatio     float64
	ATRExpansion       float64 // ATR vs trailing average, 1.2 means +20%
	MinChecks          int
	MinStrength        float64
}

func DefaultBreakoutConfig() BreakoutConfig {
	return BreakoutConfig{
		Lookback:           20,
		MinBreakoutATR:     0.5,
		VolumeConfirmation: true,
		MinVolumeRatio:     1.5,
		ATRExpansion:       1.2,
		MinChecks:          2,
		MinStrength:        0.5,
	}
}

// BreakoutEvaluator chases closes beyond the recent extreme once volume and
// volatility corroborate the move. Breaks without volume are flagged as
// likely traps and penalized.
type BreakoutEvaluator struct {
	cfg BreakoutConfig
}

var _ service.Evaluator = (*BreakoutEvaluator)(nil)

func NewBreakout(cfg BreakoutConfig) *BreakoutEvaluator {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 20
	}
	return &BreakoutEvaluator{cfg: cfg}
}

func (e *BreakoutEvaluator) Name() string { return "breakout" }

func (e *BreakoutEvaluator) Evaluate(snap *models.Snapshot, _ models.MarketState) (models.Candidate, error) {
	minBars := e.cfg.Lookback + 10
	if snap == nil || snap.Len() < minBars {
		return models.Candidate{Direction: models.DirectionNeutral},
			fmt.Errorf("breakout: need %d bars: %w", minBars, models.ErrInsufficientData)
	}

	price := snap.Price()
	n := snap.Len()
	resistance := maxOf(snap.Highs[n-1-e.cfg.Lookback : n-1])
	support := minOf(snap.Lows[n-1-e.cfg.Lookback : n-1])
	expanding := atrExpanding(snap.ATR.Recent, e.cfg.ATRExpansion)

	cand := models.Candidate{Direction: models.DirectionNeutral, EntryPrice: price}

	if e.brokeAbove(price, resistance, snap.ATR) {
		checks, strength, reasons := e.side(snap, models.DirectionBuy, resistance, expanding)
		if checks >= e.cfg.MinChecks && strength >= e.cfg.MinStrength {
			cand.Direction = models.DirectionBuy
			cand.Strength = clamp01(strength)
			cand.Checks = checks
			cand.Reasons = reasons
			cand.StopLoss = support
			if support == 0 && snap.ATR.Ready {
				cand.StopLoss = price - snap.ATR.Cur*2
			}
			if snap.ATR.Ready {
				cand.TakeProfit = price + snap.ATR.Cur*3
			}
			return cand, nil
		}
	}

	if e.brokeBelow(price, support, snap.ATR) {
		checks, strength, reasons := e.side(snap, models.DirectionSell, support, expanding)
		if checks >= e.cfg.MinChecks && strength >= e.cfg.MinStrength {
			cand.Direction = models.DirectionSell
			cand.Strength = clamp01(strength)
			cand.Checks = checks
			cand.Reasons = reasons
			cand.StopLoss = resistance
			if resistance == 0 && snap.ATR.Ready {
				cand.StopLoss = price + snap.ATR.Cur*2
			}
			if snap.ATR.Ready {
				cand.TakeProfit = price - snap.ATR.Cur*3
			}
			return cand, nil
		}
	}

	cand.Reasons = []string{"no confirmed breakout"}
	return cand, nil
}

func (e *BreakoutEvaluator) brokeAbove(price, resistance float64, atr models.ATRValues) bool {
	if !atr.Ready {
		return price > resistance
	}
	return price > resistance && price-resistance > atr.Cur*e.cfg.MinBreakoutATR
}

func (e *BreakoutEvaluator) brokeBelow(price, support float64, atr models.ATRValues) bool {
	if !atr.Ready {
		return price < support
	}
	return price < support && support-price > atr.Cur*e.cfg.MinBreakoutATR
}

func (e *BreakoutEvaluator) side(snap *models.Snapshot, dir models.Direction, level float64, expanding bool) (int, float64, []string) {
	checks := 1
	strength := 0.25
	var reasons []string
	if dir == models.DirectionBuy {
		reasons = append(reasons, fmt.Sprintf("closed above resistance %.2f", level))
	} else {
		reasons = append(reasons, fmt.Sprintf("closed below support %.2f", level))
	}

	if e.cfg.VolumeConfirmation {
		switch {
		case snap.Volume.Ready && snap.Volume.Condition == models.VolumeSpike:
			checks++
			strength += 0.25
			reasons = append(reasons, fmt.Sprintf("volume spike (%.2fx average)", snap.Volume.Ratio))
		case snap.Volume.Ready && snap.Volume.Ratio >= e.cfg.MinVolumeRatio:
			checks++
			strength += 0.20
			reasons = append(reasons, fmt.Sprintf("volume expansion (%.2fx average)", snap.Volume.Ratio))
		default:
			strength -= 0.15
			reasons = append(reasons, "no volume expansion, possible false breakout")
		}
	}

	if expanding {
		checks++
		strength += 0.15
		reasons = append(reasons, "ATR expanding, volatility picking up")
	}

	if snap.MACD.Ready {
		if dir == models.DirectionBuy && snap.MACD.Hist > 0 {
			checks++
			strength += 0.15
			reasons = append(reasons, fmt.Sprintf("MACD histogram positive (%.4f)", snap.MACD.Hist))
			if snap.MACD.HasPrev && snap.MACD.Hist > snap.MACD.PrevHist {
				strength += 0.05
				reasons = append(reasons, "MACD momentum building")
			}
		} else if dir == models.DirectionSell && snap.MACD.Hist < 0 {
			checks++
			strength += 0.15
			reasons = append(reasons, fmt.Sprintf("MACD histogram negative (%.4f)", snap.MACD.Hist))
			if snap.MACD.HasPrev && snap.MACD.Hist < snap.MACD.PrevHist {
				strength += 0.05
				reasons = append(reasons, "MACD momentum building")
			}
		}
	}

	if snap.ADX.Ready {
		if dir == models.DirectionBuy && snap.ADX.PlusDI > snap.ADX.MinusDI {
			checks++
			strength += 0.10
			reasons = append(reasons, fmt.Sprintf("+DI above -DI (%.1f > %.1f)", snap.ADX.PlusDI, snap.ADX.MinusDI))
		} else if dir == models.DirectionSell && snap.ADX.MinusDI > snap.ADX.PlusDI {
			checks++
			strength += 0.10
			reasons = append(reasons, fmt.Sprintf("-DI above +DI (%.1f > %.1f)", snap.ADX.MinusDI, snap.ADX.PlusDI))
		}
	}

	return checks, strength, reasons
}

// atrExpanding compares the newest smoothed true range against the average
// of the preceding window.
func atrExpanding(recent []float64, threshold float64) bool {
	if len(recent) < 3 {
		return false
	}
	cur := recent[len(recent)-1]
	var prevAvg float64
	if len(recent) >= 4 {
		window := recent[len(recent)-4 : len(recent)-1]
		for _, v := range window {
			prevAvg += v
		}
		prevAvg /= float64(len(window))
	} else {
		prevAvg = recent[len(recent)-2]
	}
	return cur > prevAvg*threshold
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
