package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/logger"
)

// Telegram pushes emitted signals to a chat. Delivery is best effort: a
// failed push logs a warning and never blocks the pipeline.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    *logger.Logger
}

var _ drepo.Notifier = (*Telegram)(nil)

func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID, log: log}, nil
}

func (t *Telegram) Notify(ctx context.Context, s *models.TradingSignal) error {
	if t == nil || t.bot == nil || t.chatID == 0 || s == nil {
		return nil
	}
	msg := tgbot.NewMessage(t.chatID, render(s))
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("telegram send failed",
			logger.String("signal", s.ID),
			logger.Error(err))
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func render(s *models.TradingSignal) string {
	side := "LONG"
	if s.Direction == models.DirectionSell {
		side = "SHORT"
	}
	confirmed := ""
	if s.IsConfirmed {
		confirmed = fmt.Sprintf(", %d TF confirmed", s.ConfirmationCount)
	}
	return fmt.Sprintf(
		"%s %s %s [grade %s]\nstrength %.0f%% (%s%s)\nentry %.2f, stop %.2f, target %.2f",
		s.Symbol, s.Timeframe, side, s.Grade,
		s.AdjustedStrength*100, s.MarketState.Regime, confirmed,
		s.EntryPrice, s.StopLoss, s.TakeProfit,
	)
}

// Noop is the notifier used when Telegram is disabled.
type Noop struct{}

func (Noop) Notify(context.Context, *models.TradingSignal) error { return nil }
