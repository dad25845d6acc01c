package confirm

import (
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/internal/domain/service"
)

// Config drives the multi timeframe confirmer. Weights missing from the map
// fall back to 0.4 for the primary timeframe and 0.25 otherwise.
type Config struct {
	PrimaryTimeframe repository.Timeframe
	Timeframes       []repository.Timeframe
	Weights          map[repository.Timeframe]float64
	MinConfirmations int
	StaleAfter       int // own-duration multiples before a timeframe abstains
	MinBars          int
	CheckTrend       bool
	CheckRSI         bool
	CheckMACD        bool
	CheckVolume      bool
}

func DefaultConfig() Config {
	return Config{
		PrimaryTimeframe: repository.TF5m,
		Timeframes:       []repository.Timeframe{repository.TF15m, repository.TF1h},
		Weights: map[repository.Timeframe]float64{
			repository.TF5m:  0.4,
			repository.TF15m: 0.35,
			repository.TF1h:  0.25,
		},
		MinConfirmations: 1,
		StaleAfter:       2,
		MinBars:          30,
		CheckTrend:       true,
		CheckRSI:         true,
		CheckMACD:        true,
	}
}

// Confirmer validates a candidate direction against higher timeframe
// snapshots and blends the final strength across all timeframes. Timeframes
// whose latest bar is too old abstain entirely: they appear in neither the
// checks nor the blend weights.
type Confirmer struct {
	cfg Config
}

var _ service.Confirmer = (*Confirmer)(nil)

func New(cfg Config) *Confirmer {
	def := DefaultConfig()
	if cfg.PrimaryTimeframe == "" {
		cfg.PrimaryTimeframe = def.PrimaryTimeframe
	}
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = def.Timeframes
	}
	if cfg.Weights == nil {
		cfg.Weights = def.Weights
	}
	if cfg.MinConfirmations <= 0 {
		cfg.MinConfirmations = def.MinConfirmations
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = def.MinBars
	}
	return &Confirmer{cfg: cfg}
}

// Confirm checks dir against every configured confirmation timeframe present
// in higher. With no higher timeframe data at all the confirmation is waived:
// the candidate keeps its strength and counts as confirmed with zero checks.
func (c *Confirmer) Confirm(dir models.Direction, strength float64, primary *models.Snapshot, higher map[repository.Timeframe]*models.Snapshot) models.Confirmation {
	if dir == models.DirectionNeutral {
		return models.Confirmation{}
	}
	if len(higher) == 0 {
		return models.Confirmation{
			Confirmed: true,
			Adjusted:  clamp01(strength),
			Warnings:  []string{"no higher timeframe data, confirmation waived"},
		}
	}

	out := models.Confirmation{}
	var scores, weights []float64
	for _, tf := range c.cfg.Timeframes {
		snap, ok := higher[tf]
		if !ok || snap == nil {
			continue
		}
		if c.stale(primary, snap, tf) {
			out.Stale++
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s data stale, timeframe abstains", tf))
			continue
		}

		check := c.checkTimeframe(tf, dir, snap)
		out.Checks = append(out.Checks, check)
		scores = append(scores, check.Score)
		weights = append(weights, c.weight(tf))

		switch check.Status {
		case models.TFConfirmed:
			out.Count++
		case models.TFRejected:
			out.Rejections++
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s rejected the candidate", tf))
		}
	}

	primaryWeight := c.weight(c.cfg.PrimaryTimeframe)
	score := clamp01(strength)
	if len(scores) > 0 {
		total := strength * primaryWeight
		totalWeight := primaryWeight
		for i := range scores {
			total += scores[i] * weights[i]
			totalWeight += weights[i]
		}
		score = total / totalWeight
	}

	out.Confirmed = out.Count >= c.cfg.MinConfirmations
	if out.Rejections > 0 {
		if out.Rejections >= len(c.cfg.Timeframes) {
			out.Confirmed = false
			score *= 0.3
		} else {
			score *= 1 - 0.2*float64(out.Rejections)
		}
	}
	out.Adjusted = clamp01(score)
	return out
}

// stale reports whether the timeframe's latest bar opened too long before
// the primary bar. Zero timestamps disable the check.
func (c *Confirmer) stale(primary, snap *models.Snapshot, tf repository.Timeframe) bool {
	if primary == nil || primary.Timestamp.IsZero() || snap.Timestamp.IsZero() {
		return false
	}
	return primary.Timestamp.Sub(snap.Timestamp) > time.Duration(c.cfg.StaleAfter)*tf.Duration()
}

func (c *Confirmer) weight(tf repository.Timeframe) float64 {
	if w, ok := c.cfg.Weights[tf]; ok {
		return w
	}
	if tf == c.cfg.PrimaryTimeframe {
		return 0.4
	}
	return 0.25
}

// checkTimeframe scores one timeframe from a base of 0.5. Enabled checks
// count toward the pass rate even when their indicator is not warm yet.
func (c *Confirmer) checkTimeframe(tf repository.Timeframe, dir models.Direction, snap *models.Snapshot) models.TFCheck {
	check := models.TFCheck{Timeframe: string(tf), Status: models.TFNeutral}
	if snap.Len() < c.cfg.MinBars {
		check.Score = 0.5
		check.Notes = append(check.Notes, fmt.Sprintf("only %d of %d bars", snap.Len(), c.cfg.MinBars))
		return check
	}

	price := snap.Price()
	buy := dir == models.DirectionBuy
	score := 0.5
	passed, total := 0, 0

	if c.cfg.CheckTrend {
		total++
		if snap.EMA.Ready && snap.EMA.HasSlow {
			medium, slow := snap.EMA.Medium, snap.EMA.Slow
			switch {
			case buy && price > medium && medium > slow:
				passed++
				score += 0.15
				check.Notes = append(check.Notes, "trend up, price above the stack")
			case buy && price > slow:
				score += 0.05
				check.Notes = append(check.Notes, "price above the slow EMA")
			case buy:
				score -= 0.1
				check.Notes = append(check.Notes, "trend does not support longs")
			case price < medium && medium < slow:
				passed++
				score += 0.15
				check.Notes = append(check.Notes, "trend down, price below the stack")
			case price < slow:
				score += 0.05
				check.Notes = append(check.Notes, "price below the slow EMA")
			default:
				score -= 0.1
				check.Notes = append(check.Notes, "trend does not support shorts")
			}
		}
	}

	if c.cfg.CheckRSI {
		total++
		if snap.RSI.Ready {
			rsi := snap.RSI.Cur
			switch {
			case buy && rsi > 75:
				score -= 0.15
				check.Notes = append(check.Notes, fmt.Sprintf("RSI stretched (%.1f), chasing longs discouraged", rsi))
			case buy && rsi < 30:
				passed++
				score += 0.10
				check.Notes = append(check.Notes, fmt.Sprintf("RSI oversold (%.1f)", rsi))
			case buy:
				passed++
				score += 0.05
				check.Notes = append(check.Notes, fmt.Sprintf("RSI normal (%.1f)", rsi))
			case rsi < 25:
				score -= 0.15
				check.Notes = append(check.Notes, fmt.Sprintf("RSI depressed (%.1f), chasing shorts discouraged", rsi))
			case rsi > 70:
				passed++
				score += 0.10
				check.Notes = append(check.Notes, fmt.Sprintf("RSI overbought (%.1f)", rsi))
			default:
				passed++
				score += 0.05
				check.Notes = append(check.Notes, fmt.Sprintf("RSI normal (%.1f)", rsi))
			}
		}
	}

	if c.cfg.CheckMACD {
		total++
		if snap.MACD.Ready {
			hist := snap.MACD.Hist
			if (buy && hist > 0) || (!buy && hist < 0) {
				passed++
				score += 0.10
				check.Notes = append(check.Notes, fmt.Sprintf("MACD histogram agrees (%.4f)", hist))
			} else {
				score -= 0.05
				check.Notes = append(check.Notes, fmt.Sprintf("MACD histogram disagrees (%.4f)", hist))
			}
		}
	}

	if c.cfg.CheckVolume && len(snap.Volumes) > 0 {
		total++
		if n := len(snap.Volumes); n >= 5 {
			recent := avg(snap.Volumes[n-3:])
			older := recent
			if n >= 6 {
				older = avg(snap.Volumes[n-6 : n-3])
			}
			if recent > older*1.2 {
				passed++
				score += 0.05
				check.Notes = append(check.Notes, "volume expanding")
			} else if recent < older*0.7 {
				check.Notes = append(check.Notes, "volume shrinking")
			}
		}
	}

	passRate := 0.5
	if total > 0 {
		passRate = float64(passed) / float64(total)
	}
	switch {
	case score >= 0.65 && passRate >= 0.5:
		check.Status = models.TFConfirmed
	case score < 0.4 || passRate < 0.3:
		check.Status = models.TFRejected
	}
	check.Score = clamp01(score)
	check.PassRate = passRate
	return check
}

func avg(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
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
