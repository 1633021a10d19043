package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"TapeLens/internal/domain/models"
)

// Telegram delivers signal transitions to a Telegram chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates the bot client.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify formats and sends one transition message. Best effort; the caller
// runs this on the notify pool and ignores delivery latency.
func (t *Telegram) Notify(_ context.Context, res *models.AnalysisResult, prevSignal string) error {
	msg := tgbotapi.NewMessage(t.chatID, formatTransition(res, prevSignal))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatTransition(res *models.AnalysisResult, prevSignal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* %s → *%s*\n", res.Instrument, prevSignal, res.PrimarySignal)
	fmt.Fprintf(&b, "Thesis: %s (%s)\n", res.Thesis, res.Playbook)
	fmt.Fprintf(&b, "Score: %+.1f | LTP: %.2f | VWAP: %.2f\n", res.ConvictionScore, res.LTP, res.VWAP)
	if res.IVRank > 0 {
		fmt.Fprintf(&b, "IV Rank: %.2f\n", res.IVRank)
	}
	if len(res.BullishDrivers) > 0 {
		fmt.Fprintf(&b, "Bulls: %s\n", strings.Join(res.BullishDrivers, ", "))
	}
	if len(res.BearishDrivers) > 0 {
		fmt.Fprintf(&b, "Bears: %s\n", strings.Join(res.BearishDrivers, ", "))
	}
	return b.String()
}
