package strategy

import (
	"fmt"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
)

const rangingMinBars = 30

// RangingConfig tunes the mean-reversion thresholds used while ADX reports a
// ranging market.
type RangingConfig struct {
	BollLowerThreshold float64
	BollUpperThreshold float64
	RSIOversold        float64
	RSIOverbought      float64
	KDJOversold        float64
	KDJOverbought      float64
	JExtremeLow        float64
	JExtremeHigh       float64
	MinChecks          int
}

func DefaultRangingConfig() RangingConfig {
	return RangingConfig{
		BollLowerThreshold: 0.15,
		BollUpperThreshold: 0.85,
		RSIOversold:        35,
		RSIOverbought:      65,
		KDJOversold:        25,
		KDJOverbought:      75,
		JExtremeLow:        10,
		JExtremeHigh:       90,
		MinChecks:          2,
	}
}

// RangingEvaluator fades the edges of the range: it buys lower-band touches
// with oversold oscillators and sells the mirror image, targeting the middle
// band.
type RangingEvaluator struct {
	cfg RangingConfig
}

var _ service.Evaluator = (*RangingEvaluator)(nil)

func NewRanging(cfg RangingConfig) *RangingEvaluator {
	return &RangingEvaluator{cfg: cfg}
}

func (e *RangingEvaluator) Name() string { return "ranging" }

func (e *RangingEvaluator) Evaluate(snap *models.Snapshot, _ models.MarketState) (models.Candidate, error) {
	if snap == nil || snap.Len() < rangingMinBars {
		return models.Candidate{Direction: models.DirectionNeutral},
			fmt.Errorf("ranging: need %d bars: %w", rangingMinBars, models.ErrInsufficientData)
	}

	price := snap.Price()
	volumeLow := snap.Volume.Ready &&
		(snap.Volume.Condition == models.VolumeLow || snap.Volume.Condition == models.VolumeVeryLow)

	buyChecks, buyStrength, buyReasons := e.buySide(snap, volumeLow)
	sellChecks, sellStrength, sellReasons := e.sellSide(snap, volumeLow)

	cand := models.Candidate{Direction: models.DirectionNeutral, EntryPrice: price}
	switch {
	case buyChecks >= e.cfg.MinChecks && buyStrength > sellStrength:
		cand.Direction = models.DirectionBuy
		cand.Strength = clamp01(buyStrength)
		cand.Checks = buyChecks
		cand.Reasons = buyReasons
		if snap.ATR.Ready {
			cand.StopLoss = price - snap.ATR.Cur*2
		}
		if snap.Boll.Ready {
			cand.TakeProfit = snap.Boll.Middle
		}
	case sellChecks >= e.cfg.MinChecks && sellStrength > buyStrength:
		cand.Direction = models.DirectionSell
		cand.Strength = clamp01(sellStrength)
		cand.Checks = sellChecks
		cand.Reasons = sellReasons
		if snap.ATR.Ready {
			cand.StopLoss = price + snap.ATR.Cur*2
		}
		if snap.Boll.Ready {
			cand.TakeProfit = snap.Boll.Middle
		}
	default:
		cand.Reasons = []string{"range conditions not met"}
	}
	return cand, nil
}

func (e *RangingEvaluator) buySide(snap *models.Snapshot, volumeLow bool) (int, float64, []string) {
	checks := 0
	strength := 0.0
	var reasons []string

	if snap.Boll.Ready {
		if pb := snap.Boll.PercentB; pb < 0 {
			checks++
			strength += 0.35
			reasons = append(reasons, fmt.Sprintf("closed below lower band (%%B=%.2f)", pb))
		} else if pb < e.cfg.BollLowerThreshold {
			checks++
			strength += 0.25
			reasons = append(reasons, fmt.Sprintf("near lower band (%%B=%.2f)", pb))
		}
	}

	if snap.RSI.Ready {
		if rsi := snap.RSI.Cur; rsi < 20 {
			checks++
			strength += 0.30
			reasons = append(reasons, fmt.Sprintf("RSI extreme oversold (%.1f)", rsi))
		} else if rsi < e.cfg.RSIOversold {
			checks++
			strength += 0.20
			reasons = append(reasons, fmt.Sprintf("RSI oversold (%.1f)", rsi))
		}
	}

	if snap.KDJ.Ready {
		if snap.KDJ.J < e.cfg.JExtremeLow {
			checks++
			strength += 0.25
			reasons = append(reasons, fmt.Sprintf("J bottomed out (%.1f)", snap.KDJ.J))
		} else if snap.KDJ.K < e.cfg.KDJOversold {
			checks++
			strength += 0.15
			reasons = append(reasons, fmt.Sprintf("K oversold (%.1f)", snap.KDJ.K))
		}
		if snap.KDJ.HasPrev && snap.KDJ.PrevK < snap.KDJ.PrevD && snap.KDJ.K > snap.KDJ.D {
			checks++
			strength += 0.20
			reasons = append(reasons, "KD golden cross")
		}
	}

	if volumeLow {
		strength += 0.10
		reasons = append(reasons, "volume drying up, selling pressure fading")
	}
	return checks, strength, reasons
}

func (e *RangingEvaluator) sellSide(snap *models.Snapshot, volumeLow bool) (int, float64, []string) {
	checks := 0
	strength := 0.0
	var reasons []string

	if snap.Boll.Ready {
		if pb := snap.Boll.PercentB; pb > 1 {
			checks++
			strength += 0.35
			reasons = append(reasons, fmt.Sprintf("closed above upper band (%%B=%.2f)", pb))
		} else if pb > e.cfg.BollUpperThreshold {
			checks++
			strength += 0.25
			reasons = append(reasons, fmt.Sprintf("near upper band (%%B=%.2f)", pb))
		}
	}

	if snap.RSI.Ready {
		if rsi := snap.RSI.Cur; rsi > 80 {
			checks++
			strength += 0.30
			reasons = append(reasons, fmt.Sprintf("RSI extreme overbought (%.1f)", rsi))
		} else if rsi > e.cfg.RSIOverbought {
			checks++
			strength += 0.20
			reasons = append(reasons, fmt.Sprintf("RSI overbought (%.1f)", rsi))
		}
	}

	if snap.KDJ.Ready {
		if snap.KDJ.J > e.cfg.JExtremeHigh {
			checks++
			strength += 0.25
			reasons = append(reasons, fmt.Sprintf("J topped out (%.1f)", snap.KDJ.J))
		} else if snap.KDJ.K > e.cfg.KDJOverbought {
			checks++
			strength += 0.15
			reasons = append(reasons, fmt.Sprintf("K overbought (%.1f)", snap.KDJ.K))
		}
		if snap.KDJ.HasPrev && snap.KDJ.PrevK > snap.KDJ.PrevD && snap.KDJ.K < snap.KDJ.D {
			checks++
			strength += 0.20
			reasons = append(reasons, "KD death cross")
		}
	}

	if volumeLow {
		strength += 0.10
		reasons = append(reasons, "volume drying up, buying pressure fading")
	}
	return checks, strength, reasons
}
