// Package notify informs affected parties after a successful commit.
// Delivery is best-effort: failures are logged and never roll back or
// block the commit that triggered them.
package notify

import (
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"condobot/core/logger"
	tghelpers "condobot/core/telegram/helpers"
	"condobot/core/telegram/sender"
	"condobot/internal/domain"
	"condobot/internal/parse"
)

// Notifier sends commit notifications through the shared outbound
// dispatcher so retries and backoff match every other send.
type Notifier struct {
	disp *sender.Dispatcher
}

// New creates a Notifier. disp may be nil, in which case sends are direct.
func New(disp *sender.Dispatcher) *Notifier {
	return &Notifier{disp: disp}
}

// ReadingRecorded tells the property owner about a new or changed reading.
func (n *Notifier) ReadingRecorded(c tele.Context, p domain.Property, r domain.MeterReading) {
	if !p.ChatID.Valid {
		return
	}
	msg := fmt.Sprintf("Meter reading for %s recorded: %s on %s.",
		p.Name, parse.FormatDecimal(r.Value), parse.FormatDate(r.Date))
	n.send(c, p.ChatID.Int64, "notify.reading", msg)
}

// PayoutCreated tells both account holders about a committed payout.
func (n *Notifier) PayoutCreated(c tele.Context, from, to domain.Account, p domain.PayoutTransaction) {
	msg := fmt.Sprintf("Payout of %s from %s to %s recorded for %s.",
		parse.FormatDecimal(p.Amount), from.Name, to.Name, parse.FormatDate(p.Date))
	for _, acc := range []domain.Account{from, to} {
		if acc.ChatID.Valid {
			n.send(c, acc.ChatID.Int64, "notify.payout", msg)
		}
	}
}

func (n *Notifier) send(c tele.Context, chatID int64, action, text string) {
	bot := c.Bot()
	if bot == nil {
		return
	}
	run := func() error {
		_, err := bot.Send(&tele.Chat{ID: chatID}, text)
		return err
	}
	if n.disp != nil {
		ctx := tghelpers.BuildContext(c)
		if err := n.disp.Enqueue(ctx, action, "sendMessage", run); err == nil {
			return
		}
		// Queue saturated or closed: fall through to a direct attempt.
	}
	if err := run(); err != nil {
		logger.SVCNotify.Warn("notification failed",
			slog.String("event", action),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
