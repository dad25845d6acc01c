package strategy

import (
	"fmt"
	"math"
	"strings"

	"TrendPulse/internal/domain/models"
)

// Per-indicator vote weights in the composite total.
const (
	trendWeight    = 25.0
	coreWeight     = 7.0 // RSI, KDJ, MACD, BOLL
	auxWeight      = 6.0 // CCI, ATR
	vwapWeight     = 5.0
	momentumWeight = 15.0
	timingWeight   = 10.0
)

// trendVote scores the EMA stack out of six ordering checks. It feeds the
// trend component and the trend filter but never counts as a directional
// vote.
func trendVote(ema models.EMAValues, price float64) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindTrend,
		Direction: models.DirectionNeutral,
		Values: map[string]float64{
			"ema_ultra_fast": ema.UltraFast,
			"ema_fast":       ema.Fast,
			"ema_medium":     ema.Medium,
			"ema_slow":       ema.Slow,
		},
	}

	bull, bear := 0, 0
	switch {
	case ema.UltraFast > ema.Fast && ema.Fast > ema.Medium && ema.Medium > ema.Slow:
		bull += 3
	case ema.UltraFast < ema.Fast && ema.Fast < ema.Medium && ema.Medium < ema.Slow:
		bear += 3
	default:
		if ema.UltraFast > ema.Fast {
			bull++
		} else {
			bear++
		}
		if ema.Fast > ema.Medium {
			bull++
		} else {
			bear++
		}
		if ema.Medium > ema.Slow {
			bull++
		} else {
			bear++
		}
	}

	if price > ema.Slow {
		bull += 2
	} else if price < ema.Slow {
		bear += 2
	}
	if price > ema.UltraFast {
		bull++
	} else if price < ema.UltraFast {
		bear++
	}

	switch {
	case bull > bear:
		r.Direction = models.DirectionBuy
		r.Strength = float64(bull) / 6 * 100
		r.Rationale = fmt.Sprintf("bullish EMA stack (%d/6 checks)", bull)
	case bear > bull:
		r.Direction = models.DirectionSell
		r.Strength = float64(bear) / 6 * 100
		r.Rationale = fmt.Sprintf("bearish EMA stack (%d/6 checks)", bear)
	default:
		r.Rationale = "EMA stack mixed"
	}
	return r
}

func rsiVote(v models.RSIValues) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindRSI,
		Direction: models.DirectionNeutral,
		Values:    map[string]float64{"rsi": v.Cur},
	}

	switch rsi := v.Cur; {
	case rsi < 20:
		r.Direction, r.Strength = models.DirectionBuy, 100
		r.Rationale = fmt.Sprintf("extreme oversold (RSI=%.1f)", rsi)
	case rsi < 30:
		r.Direction, r.Strength = models.DirectionBuy, 70+(30-rsi)*3
		r.Rationale = fmt.Sprintf("oversold (RSI=%.1f)", rsi)
	case rsi > 80:
		r.Direction, r.Strength = models.DirectionSell, 100
		r.Rationale = fmt.Sprintf("extreme overbought (RSI=%.1f)", rsi)
	case rsi > 70:
		r.Direction, r.Strength = models.DirectionSell, 70+(rsi-70)*3
		r.Rationale = fmt.Sprintf("overbought (RSI=%.1f)", rsi)
	default:
		if !v.HasPrev {
			r.Rationale = "RSI neutral"
			break
		}
		change := rsi - v.Prev
		switch {
		case change > 5 && rsi < 50:
			r.Direction, r.Strength = models.DirectionBuy, 50
			r.Rationale = fmt.Sprintf("RSI rising fast (%.1f, +%.1f)", rsi, change)
		case change < -5 && rsi > 50:
			r.Direction, r.Strength = models.DirectionSell, 50
			r.Rationale = fmt.Sprintf("RSI falling fast (%.1f, %.1f)", rsi, change)
		default:
			r.Rationale = "RSI neutral"
		}
	}
	return r
}

func kdjVote(v models.KDJValues) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindKDJ,
		Direction: models.DirectionNeutral,
		Values:    map[string]float64{"k": v.K, "d": v.D, "j": v.J},
	}
	var reasons []string

	if v.K < 20 && v.D < 20 {
		r.Direction, r.Strength = models.DirectionBuy, 80
		reasons = append(reasons, fmt.Sprintf("K and D oversold (K=%.1f, D=%.1f)", v.K, v.D))
	} else if v.K > 80 && v.D > 80 {
		r.Direction, r.Strength = models.DirectionSell, 80
		reasons = append(reasons, fmt.Sprintf("K and D overbought (K=%.1f, D=%.1f)", v.K, v.D))
	}

	if v.J < 0 {
		if r.Direction == models.DirectionBuy {
			r.Strength = 100
		} else {
			r.Direction, r.Strength = models.DirectionBuy, 90
		}
		reasons = append(reasons, fmt.Sprintf("J deep oversold (%.1f)", v.J))
	} else if v.J > 100 {
		if r.Direction == models.DirectionSell {
			r.Strength = 100
		} else {
			r.Direction, r.Strength = models.DirectionSell, 90
		}
		reasons = append(reasons, fmt.Sprintf("J deep overbought (%.1f)", v.J))
	}

	if v.HasPrev {
		goldenCross := v.PrevK < v.PrevD && v.K > v.D
		deathCross := v.PrevK > v.PrevD && v.K < v.D
		if goldenCross {
			if r.Direction == models.DirectionBuy {
				r.Strength = math.Min(100, r.Strength+20)
			} else {
				r.Direction, r.Strength = models.DirectionBuy, 85
			}
			reasons = append(reasons, "KD golden cross")
		} else if deathCross {
			if r.Direction == models.DirectionSell {
				r.Strength = math.Min(100, r.Strength+20)
			} else {
				r.Direction, r.Strength = models.DirectionSell, 85
			}
			reasons = append(reasons, "KD death cross")
		}

		if goldenCross && v.K < 30 {
			r.Direction, r.Strength = models.DirectionBuy, 100
			reasons = append(reasons, "golden cross from the floor")
		} else if deathCross && v.K > 70 {
			r.Direction, r.Strength = models.DirectionSell, 100
			reasons = append(reasons, "death cross from the ceiling")
		}
	}

	if len(reasons) == 0 {
		r.Rationale = "KDJ neutral"
	} else {
		r.Rationale = "KDJ: " + strings.Join(reasons, ", ")
	}
	return r
}

func macdVote(v models.MACDValues) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindMACD,
		Direction: models.DirectionNeutral,
		Values:    map[string]float64{"macd": v.MACD, "signal": v.Signal, "histogram": v.Hist},
	}

	if v.HasPrev {
		if v.PrevMACD < v.PrevSignal && v.MACD > v.Signal {
			r.Direction = models.DirectionBuy
			if v.MACD > 0 {
				r.Strength = 100
				r.Rationale = "MACD golden cross above zero"
			} else {
				r.Strength = 85
				r.Rationale = "MACD golden cross"
			}
			return r
		}
		if v.PrevMACD > v.PrevSignal && v.MACD < v.Signal {
			r.Direction = models.DirectionSell
			if v.MACD < 0 {
				r.Strength = 100
				r.Rationale = "MACD death cross below zero"
			} else {
				r.Strength = 85
				r.Rationale = "MACD death cross"
			}
			return r
		}
	}

	switch {
	case v.Hist > 0 && v.MACD > v.Signal:
		r.Direction, r.Strength = models.DirectionBuy, 60
		r.Rationale = "MACD bullish alignment"
	case v.Hist < 0 && v.MACD < v.Signal:
		r.Direction, r.Strength = models.DirectionSell, 60
		r.Rationale = "MACD bearish alignment"
	default:
		r.Rationale = "MACD neutral"
	}
	return r
}

func bollVote(v models.BollValues) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindBoll,
		Direction: models.DirectionNeutral,
		Values:    map[string]float64{"upper": v.Upper, "middle": v.Middle, "lower": v.Lower, "percent_b": v.PercentB},
	}

	switch pb := v.PercentB; {
	case pb < 0:
		r.Direction, r.Strength = models.DirectionBuy, 100
		r.Rationale = fmt.Sprintf("closed below lower band (%%B=%.2f)", pb)
	case pb < 0.1:
		r.Direction, r.Strength = models.DirectionBuy, 90
		r.Rationale = fmt.Sprintf("touching lower band (%%B=%.2f)", pb)
	case pb < 0.2:
		r.Direction, r.Strength = models.DirectionBuy, 70
		r.Rationale = fmt.Sprintf("near lower band (%%B=%.2f)", pb)
	case pb > 1:
		r.Direction, r.Strength = models.DirectionSell, 100
		r.Rationale = fmt.Sprintf("closed above upper band (%%B=%.2f)", pb)
	case pb > 0.9:
		r.Direction, r.Strength = models.DirectionSell, 90
		r.Rationale = fmt.Sprintf("touching upper band (%%B=%.2f)", pb)
	case pb > 0.8:
		r.Direction, r.Strength = models.DirectionSell, 70
		r.Rationale = fmt.Sprintf("near upper band (%%B=%.2f)", pb)
	default:
		r.Rationale = "inside the bands"
	}
	return r
}

func cciVote(v models.CCIValues) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindCCI,
		Direction: models.DirectionNeutral,
		Values:    map[string]float64{"cci": v.Cur},
	}

	switch cci := v.Cur; {
	case cci < -200:
		r.Direction, r.Strength = models.DirectionBuy, 100
		r.Rationale = fmt.Sprintf("extreme oversold (CCI=%.1f)", cci)
	case cci < -100:
		r.Direction, r.Strength = models.DirectionBuy, 80+((-100-cci)/100)*20
		r.Rationale = fmt.Sprintf("oversold (CCI=%.1f)", cci)
	case cci > 200:
		r.Direction, r.Strength = models.DirectionSell, 100
		r.Rationale = fmt.Sprintf("extreme overbought (CCI=%.1f)", cci)
	case cci > 100:
		r.Direction, r.Strength = models.DirectionSell, 80+((cci-100)/100)*20
		r.Rationale = fmt.Sprintf("overbought (CCI=%.1f)", cci)
	default:
		if !v.HasPrev {
			r.Rationale = "CCI neutral"
			break
		}
		prev := v.Prev
		switch {
		case prev < 0 && cci > 0:
			r.Direction, r.Strength = models.DirectionBuy, 75
			r.Rationale = fmt.Sprintf("CCI crossed above zero (%.1f)", cci)
		case prev > 0 && cci < 0:
			r.Direction, r.Strength = models.DirectionSell, 75
			r.Rationale = fmt.Sprintf("CCI crossed below zero (%.1f)", cci)
		case prev < -100:
			r.Direction, r.Strength = models.DirectionBuy, 85
			r.Rationale = fmt.Sprintf("rebound from oversold (%.1f -> %.1f)", prev, cci)
		case prev > 100:
			r.Direction, r.Strength = models.DirectionSell, 85
			r.Rationale = fmt.Sprintf("pullback from overbought (%.1f -> %.1f)", prev, cci)
		case cci-prev > 50 && cci < 0:
			r.Direction, r.Strength = models.DirectionBuy, 60
			r.Rationale = fmt.Sprintf("CCI rising fast (%.1f -> %.1f)", prev, cci)
		case prev-cci > 50 && cci > 0:
			r.Direction, r.Strength = models.DirectionSell, 60
			r.Rationale = fmt.Sprintf("CCI falling fast (%.1f -> %.1f)", prev, cci)
		default:
			r.Rationale = "CCI neutral"
		}
	}
	return r
}

// atrVote reads the bar range against the smoothed true range. It mostly
// modulates strength; a direction only appears when the close pins one end
// of a wide bar or volatility expands with a directional close.
func atrVote(v models.ATRValues, high, low, close float64) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindATR,
		Direction: models.DirectionNeutral,
		Values:    map[string]float64{"atr": v.Cur},
	}
	if v.Cur == 0 {
		r.Rationale = "ATR unavailable"
		return r
	}
	var reasons []string
	rangeToATR := (high - low) / v.Cur

	if v.HasPrev && v.Prev > 0 {
		change := (v.Cur - v.Prev) / v.Prev
		if change > 0.1 {
			switch pos := pricePosition(high, low, close); {
			case pos > 0.7:
				r.Direction, r.Strength = models.DirectionBuy, 70
				reasons = append(reasons, fmt.Sprintf("volatility expanding, closed high (ATR +%.1f%%)", change*100))
			case pos < 0.3:
				r.Direction, r.Strength = models.DirectionSell, 70
				reasons = append(reasons, fmt.Sprintf("volatility expanding, closed low (ATR +%.1f%%)", change*100))
			default:
				r.Strength = 30
				reasons = append(reasons, fmt.Sprintf("volatility expanding (ATR +%.1f%%), direction unclear", change*100))
			}
		} else if change < -0.1 {
			r.Strength = 40
			reasons = append(reasons, fmt.Sprintf("volatility contracting (ATR %.1f%%), breakout may follow", change*100))
		}
	}

	if rangeToATR > 1.5 {
		switch pos := pricePosition(high, low, close); {
		case pos > 0.7:
			if r.Direction == models.DirectionBuy {
				r.Strength = math.Min(100, r.Strength+30)
			} else {
				r.Direction, r.Strength = models.DirectionBuy, 75
			}
			reasons = append(reasons, fmt.Sprintf("wide bullish bar (%.1fx ATR)", rangeToATR))
		case pos < 0.3:
			if r.Direction == models.DirectionSell {
				r.Strength = math.Min(100, r.Strength+30)
			} else {
				r.Direction, r.Strength = models.DirectionSell, 75
			}
			reasons = append(reasons, fmt.Sprintf("wide bearish bar (%.1fx ATR)", rangeToATR))
		}
	} else if rangeToATR < 0.5 {
		r.Strength = 20
		reasons = append(reasons, fmt.Sprintf("narrow range (%.1fx ATR)", rangeToATR))
	}

	if len(reasons) == 0 {
		r.Rationale = "ATR neutral"
	} else {
		r.Rationale = "ATR: " + strings.Join(reasons, ", ")
	}
	return r
}

func vwapVote(v models.VWAPValues, price, prevPrice float64, hasPrev bool) models.IndicatorReading {
	r := models.IndicatorReading{
		Kind:      models.KindVWAP,
		Direction: models.DirectionNeutral,
		Values:    map[string]float64{"vwap": v.Cur},
	}
	if v.Cur == 0 {
		r.Rationale = "VWAP unavailable"
		return r
	}
	deviation := (price - v.Cur) / v.Cur * 100

	if hasPrev {
		if prevPrice <= v.Cur && price > v.Cur {
			r.Direction, r.Strength = models.DirectionBuy, 90
			r.Rationale = fmt.Sprintf("crossed above VWAP (%+.2f%%)", deviation)
			return r
		}
		if prevPrice >= v.Cur && price < v.Cur {
			r.Direction, r.Strength = models.DirectionSell, 90
			r.Rationale = fmt.Sprintf("crossed below VWAP (%.2f%%)", deviation)
			return r
		}
	}

	switch {
	case deviation > 2:
		r.Direction, r.Strength = models.DirectionSell, 70
		r.Rationale = fmt.Sprintf("stretched above VWAP (%+.2f%%)", deviation)
	case deviation > 0.5:
		r.Direction, r.Strength = models.DirectionBuy, 60
		r.Rationale = fmt.Sprintf("holding above VWAP (%+.2f%%)", deviation)
	case deviation < -2:
		r.Direction, r.Strength = models.DirectionBuy, 70
		r.Rationale = fmt.Sprintf("stretched below VWAP (%.2f%%)", deviation)
	case deviation < -0.5:
		r.Direction, r.Strength = models.DirectionSell, 60
		r.Rationale = fmt.Sprintf("holding below VWAP (%.2f%%)", deviation)
	default:
		r.Rationale = fmt.Sprintf("near VWAP (%.2f%%)", deviation)
	}
	return r
}

// momentumScore awards up to momentumWeight points for price displacement
// and distance from the fast EMA. Confirmation comes from displacement only.
func momentumScore(price, prevPrice float64, hasPrev bool, emaFast float64, hasEMA bool) (bool, float64) {
	if !hasPrev || prevPrice == 0 {
		return false, 0
	}

	priceChange := (price - prevPrice) / prevPrice
	var emaDiff float64
	if hasEMA && emaFast != 0 {
		emaDiff = (price - emaFast) / emaFast
	}

	confirmed := false
	score := 0.0
	if math.Abs(priceChange) > 0.001 {
		score += 8
		confirmed = true
	}
	if math.Abs(emaDiff) > 0.002 {
		score += 7
		if math.Abs(emaDiff) > 0.005 {
			score += 3
		}
	}
	return confirmed, math.Min(momentumWeight, score)
}

// barVolatility is the bar range normalized by the close.
func barVolatility(high, low, close float64) float64 {
	if close == 0 {
		return 0
	}
	return (high - low) / close
}

// pricePosition locates the close within the bar range, 0 at the low and 1
// at the high.
func pricePosition(high, low, close float64) float64 {
	if high == low {
		return 0.5
	}
	return (close - low) / (high - low)
}
