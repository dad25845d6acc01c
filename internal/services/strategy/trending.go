package strategy

import (
	"fmt"
	"math"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
)

const trendingMinBars = 60

// TrendingConfig tunes the pullback entry while ADX reports a trending
// market.
type TrendingConfig struct {
	PullbackThreshold float64 // max relative distance from the medium EMA
	RSIHealthyLow     float64
	RSIHealthyHigh    float64
	RSISellLow        float64
	RSISellHigh       float64
	MACDConfirmation  bool
	MinChecks         int
	MinStrength       float64
}

func DefaultTrendingConfig() TrendingConfig {
	return TrendingConfig{
		PullbackThreshold: 0.015,
		RSIHealthyLow:     40,
		RSIHealthyHigh:    70,
		RSISellLow:        30,
		RSISellHigh:       60,
		MACDConfirmation:  true,
		MinChecks:         3,
		MinStrength:       0.5,
	}
}

// TrendingEvaluator joins an established trend on pullbacks to the medium
// EMA, with RSI in a healthy band and MACD momentum agreeing.
type TrendingEvaluator struct {
	cfg TrendingConfig
}

var _ service.Evaluator = (*TrendingEvaluator)(nil)

func NewTrending(cfg TrendingConfig) *TrendingEvaluator {
	return &TrendingEvaluator{cfg: cfg}
}

func (e *TrendingEvaluator) Name() string { return "trending" }

func (e *TrendingEvaluator) Evaluate(snap *models.Snapshot, _ models.MarketState) (models.Candidate, error) {
	if snap == nil || snap.Len() < trendingMinBars {
		return models.Candidate{Direction: models.DirectionNeutral},
			fmt.Errorf("trending: need %d bars: %w", trendingMinBars, models.ErrInsufficientData)
	}
	if !snap.EMA.Ready || !snap.EMA.HasSlow {
		return models.Candidate{Direction: models.DirectionNeutral},
			fmt.Errorf("trending: EMA stack not warm: %w", models.ErrInsufficientData)
	}

	price := snap.Price()
	cand := models.Candidate{Direction: models.DirectionNeutral, EntryPrice: price}

	dir := e.stackDirection(snap.EMA, price)
	if dir == models.DirectionNeutral {
		cand.Reasons = []string{"no clear trend direction"}
		return cand, nil
	}

	var checks int
	var strength float64
	var reasons []string
	if dir == models.DirectionBuy {
		checks, strength, reasons = e.buySide(snap, price)
	} else {
		checks, strength, reasons = e.sellSide(snap, price)
	}

	if checks < e.cfg.MinChecks || strength < e.cfg.MinStrength {
		cand.Reasons = []string{"trend conditions not met"}
		return cand, nil
	}

	cand.Direction = dir
	cand.Strength = clamp01(strength)
	cand.Checks = checks
	cand.Reasons = reasons
	if dir == models.DirectionBuy {
		if snap.ATR.Ready {
			cand.StopLoss = price - snap.ATR.Cur*2
			cand.TakeProfit = price + snap.ATR.Cur*3
		} else {
			cand.StopLoss = snap.EMA.Slow
		}
	} else {
		if snap.ATR.Ready {
			cand.StopLoss = price + snap.ATR.Cur*2
			cand.TakeProfit = price - snap.ATR.Cur*3
		} else {
			cand.StopLoss = snap.EMA.Slow
		}
	}
	return cand, nil
}

// stackDirection reads the fast/medium/slow EMA ordering. A partial stack
// still counts when price sits on the right side of the slow line.
func (e *TrendingEvaluator) stackDirection(ema models.EMAValues, price float64) models.Direction {
	switch {
	case ema.UltraFast > ema.Medium && ema.Medium > ema.Slow:
		return models.DirectionBuy
	case ema.UltraFast < ema.Medium && ema.Medium < ema.Slow:
		return models.DirectionSell
	case ema.UltraFast > ema.Medium && price > ema.Slow:
		return models.DirectionBuy
	case ema.UltraFast < ema.Medium && price < ema.Slow:
		return models.DirectionSell
	default:
		return models.DirectionNeutral
	}
}

func (e *TrendingEvaluator) buySide(snap *models.Snapshot, price float64) (int, float64, []string) {
	checks := 0
	strength := 0.0
	var reasons []string
	ema := snap.EMA

	if ema.UltraFast > ema.Medium && ema.Medium > ema.Slow {
		checks++
		strength += 0.25
		reasons = append(reasons, fmt.Sprintf("full bullish stack (%.2f > %.2f > %.2f)", ema.UltraFast, ema.Medium, ema.Slow))
	} else if ema.UltraFast > ema.Medium {
		strength += 0.15
		reasons = append(reasons, "partial bullish stack")
	}

	if ema.Medium > 0 {
		dist := math.Abs(price-ema.Medium) / ema.Medium
		if dist <= e.cfg.PullbackThreshold {
			checks++
			strength += 0.25
			reasons = append(reasons, fmt.Sprintf("pulled back to medium EMA (%.1f%% away)", dist*100))
		} else if dist <= e.cfg.PullbackThreshold*2 {
			strength += 0.10
			reasons = append(reasons, fmt.Sprintf("approaching medium EMA (%.1f%% away)", dist*100))
		}
	}

	if snap.RSI.Ready {
		if rsi := snap.RSI.Cur; rsi > e.cfg.RSIHealthyLow && rsi < e.cfg.RSIHealthyHigh {
			checks++
			strength += 0.20
			reasons = append(reasons, fmt.Sprintf("RSI in healthy band (%.1f)", rsi))
		} else if rsi < e.cfg.RSIHealthyLow {
			strength += 0.10
			reasons = append(reasons, fmt.Sprintf("RSI low but workable (%.1f)", rsi))
		}
	}

	if e.cfg.MACDConfirmation && snap.MACD.Ready {
		if snap.MACD.Hist > 0 {
			checks++
			strength += 0.20
			reasons = append(reasons, fmt.Sprintf("MACD histogram positive (%.4f)", snap.MACD.Hist))
		} else if snap.MACD.HasPrev && snap.MACD.Hist > snap.MACD.PrevHist {
			strength += 0.10
			reasons = append(reasons, "MACD histogram converging toward a cross")
		}
	}

	if snap.Volume.Ready &&
		(snap.Volume.Condition == models.VolumeLow || snap.Volume.Condition == models.VolumeVeryLow) {
		strength += 0.10
		reasons = append(reasons, "volume fading on the pullback")
	}
	return checks, strength, reasons
}

func (e *TrendingEvaluator) sellSide(snap *models.Snapshot, price float64) (int, float64, []string) {
	checks := 0
	strength := 0.0
	var reasons []string
	ema := snap.EMA

	if ema.UltraFast < ema.Medium && ema.Medium < ema.Slow {
		checks++
		strength += 0.25
		reasons = append(reasons, fmt.Sprintf("full bearish stack (%.2f < %.2f < %.2f)", ema.UltraFast, ema.Medium, ema.Slow))
	} else if ema.UltraFast < ema.Medium {
		strength += 0.15
		reasons = append(reasons, "partial bearish stack")
	}

	if ema.Medium > 0 {
		dist := math.Abs(price-ema.Medium) / ema.Medium
		if dist <= e.cfg.PullbackThreshold {
			checks++
			strength += 0.25
			reasons = append(reasons, fmt.Sprintf("rallied back to medium EMA (%.1f%% away)", dist*100))
		} else if dist <= e.cfg.PullbackThreshold*2 {
			strength += 0.10
			reasons = append(reasons, fmt.Sprintf("approaching medium EMA (%.1f%% away)", dist*100))
		}
	}

	if snap.RSI.Ready {
		if rsi := snap.RSI.Cur; rsi > e.cfg.RSISellLow && rsi < e.cfg.RSISellHigh {
			checks++
			strength += 0.20
			reasons = append(reasons, fmt.Sprintf("RSI in healthy band (%.1f)", rsi))
		} else if rsi > e.cfg.RSISellHigh {
			strength += 0.10
			reasons = append(reasons, fmt.Sprintf("RSI high but workable (%.1f)", rsi))
		}
	}

	if e.cfg.MACDConfirmation && snap.MACD.Ready {
		if snap.MACD.Hist < 0 {
			checks++
			strength += 0.20
			reasons = append(reasons, fmt.Sprintf("MACD histogram negative (%.4f)", snap.MACD.Hist))
		} else if snap.MACD.HasPrev && snap.MACD.Hist < snap.MACD.PrevHist {
			strength += 0.10
			reasons = append(reasons, "MACD histogram converging toward a cross")
		}
	}

	if snap.Volume.Ready &&
		(snap.Volume.Condition == models.VolumeLow || snap.Volume.Condition == models.VolumeVeryLow) {
		strength += 0.10
		reasons = append(reasons, "volume fading on the rally")
	}
	return checks, strength, reasons
}
