package usecase

import (
	"fmt"
	"strings"

	"TrendPulse/internal/domain/models"
)

const summaryRule = "=================================================="

// SignalSummary renders a human-readable block for one signal, used by the
// summary endpoint and the notifier fallback.
func SignalSummary(s *models.TradingSignal) string {
	if s == nil {
		return "no signal"
	}
	if s.Direction == models.DirectionNeutral {
		reason := "unknown reason"
		if len(s.Reasons) > 0 {
			reason = s.Reasons[0]
		}
		return fmt.Sprintf("[%s] no signal - %s", s.ID, reason)
	}

	side := "LONG"
	if s.Direction == models.DirectionSell {
		side = "SHORT"
	}
	confirmed := "no"
	if s.IsConfirmed {
		confirmed = "yes"
	}

	lines := []string{
		summaryRule,
		fmt.Sprintf("signal: %s (%s %s)", s.ID, s.Symbol, s.Timeframe),
		fmt.Sprintf("direction: %s [grade %s]", side, s.Grade),
		fmt.Sprintf("strength: %.0f%% -> %.0f%% (adjusted)", s.Strength*100, s.AdjustedStrength*100),
		fmt.Sprintf("market state: %s (trend %s, ADX %.1f)", s.MarketState.Regime, s.MarketState.Trend, s.MarketState.ADX),
		fmt.Sprintf("strategy: %s", s.StrategyUsed),
		fmt.Sprintf("confirmed: %s (%d timeframes)", confirmed, s.ConfirmationCount),
		"",
		fmt.Sprintf("entry: %.2f", s.EntryPrice),
		priceLine("stop loss", s.StopLoss),
		priceLine("take profit", s.TakeProfit),
	}

	if len(s.Predictions) > 0 {
		lines = append(lines, "", "predictions:")
		for _, p := range s.Predictions {
			arrow := "up"
			if p.Direction == models.PriceLower {
				arrow = "down"
			}
			line := fmt.Sprintf("  %dm: %s (confidence %.0f%%)", p.HorizonMinutes, arrow, p.Confidence*100)
			if p.TargetPrice != 0 {
				line += fmt.Sprintf(" -> %.2f", p.TargetPrice)
			}
			lines = append(lines, line)
		}
	}

	if len(s.Reasons) > 0 {
		lines = append(lines, "", "reasons:")
		for _, r := range firstN(s.Reasons, 5) {
			lines = append(lines, "  - "+r)
		}
	}
	if len(s.Warnings) > 0 {
		lines = append(lines, "", "warnings:")
		for _, w := range s.Warnings {
			lines = append(lines, "  - "+w)
		}
	}

	lines = append(lines, summaryRule)
	return strings.Join(lines, "\n")
}

func priceLine(label string, v float64) string {
	if v == 0 {
		return label + ": not set"
	}
	return fmt.Sprintf("%s: %.2f", label, v)
}
