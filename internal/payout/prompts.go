package payout

import (
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"condobot/core/telegram/format"
	tghelpers "condobot/core/telegram/helpers"
	"condobot/core/telegram/keyboard"
	"condobot/internal/parse"
	"condobot/internal/wizard"
)

// mdSafe escapes a user-defined name for Markdown interpolation.
func mdSafe(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}

const (
	msgNotAuthorized     = "You are not authorized to create payouts."
	msgChooseFrom        = "*New payout*\nChoose the account to pay from:"
	msgChooseTo          = "Paying from *%s*. Choose the account to pay to:"
	msgEnterAmount       = "Enter the payout amount:"
	msgEnterDate         = "Enter the payout date (DD.MM.YYYY):"
	msgEnterDescription  = "Enter a description for the payout:"
	msgBadDate           = "That doesn't look like a date. Use DD.MM.YYYY, e.g. 15.12.2025."
	msgBadNumber         = "That doesn't look like a number. Use digits, e.g. 250.50."
	msgAmountNotPositive = "The amount must be greater than zero. Enter the amount again:"
	msgSameAccount       = "The two accounts must differ. Choose a different account:"
	msgEmptyDescription  = "The description cannot be empty. Enter a description:"
	msgUseButtons        = "Please use the buttons above to choose."
	msgInvalidAction     = "Unsupported action. Choose one of the options below."
	msgStaleSelection    = "That option is no longer available. Pick again:"
	msgCancelled         = "Payout cancelled. Nothing was recorded."
)

func (w *Workflow) accountButtons(c tele.Context, unique string, excludeID int64) ([]keyboard.InlineBtn, error) {
	ctx := tghelpers.BuildContext(c)
	accounts, err := w.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	btns := make([]keyboard.InlineBtn, 0, len(accounts)+1)
	for _, a := range accounts {
		if a.ID == excludeID {
			continue
		}
		btns = append(btns, keyboard.InlineBtn{
			Text:   a.Name,
			Unique: unique,
			Data:   strconv.FormatInt(a.ID, 10),
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"})
	return btns, nil
}

func (w *Workflow) promptFrom(c tele.Context, banner string) error {
	btns, err := w.accountButtons(c, cbFrom, 0)
	if err != nil {
		return err
	}
	text := msgChooseFrom
	if banner != "" {
		text = banner + "\n\n" + text
	}
	return tghelpers.SendMD(c, text, keyboard.InlineButtons(btns))
}

func (w *Workflow) promptTo(c tele.Context, s *wizard.Session, banner string) error {
	btns, err := w.accountButtons(c, cbTo, s.FromAccountID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(msgChooseTo, mdSafe(s.FromAccountName))
	if banner != "" {
		text = banner + "\n\n" + text
	}
	return tghelpers.SendMD(c, text, keyboard.InlineButtons(btns))
}

func (w *Workflow) promptAmount(c tele.Context, s *wizard.Session, banner string) error {
	text := msgEnterAmount
	if banner != "" {
		text = banner + "\n\n" + text
	}
	rows := [][]keyboard.InlineBtn{}
	if s.SuggestedAmount != nil && s.SuggestedAmount.IsPositive() {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "💰 " + parse.FormatDecimal(*s.SuggestedAmount),
			Unique: cbSuggAmount,
			Data:   "use",
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"}})
	return tghelpers.SendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (w *Workflow) promptDate(c tele.Context) error {
	rows := [][]keyboard.InlineBtn{
		{{Text: "📅 Today, " + parse.FormatDate(time.Now()), Unique: cbSuggDate, Data: "use"}},
		{{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"}},
	}
	return tghelpers.SendMD(c, msgEnterDate, keyboard.InlineButtonsRows(rows...))
}

// suggestedDescription builds the one-tap description from the two account
// names and the amount. Recomputed on use so the button payload stays tiny.
func suggestedDescription(s *wizard.Session) string {
	return fmt.Sprintf("Transfer %s -> %s, %s",
		s.FromAccountName, s.ToAccountName, parse.FormatDecimal(s.Amount))
}

func (w *Workflow) promptDescription(c tele.Context, s *wizard.Session, banner string) error {
	text := msgEnterDescription
	if banner != "" {
		text = banner + "\n\n" + text
	}
	rows := [][]keyboard.InlineBtn{
		{{Text: "💬 " + suggestedDescription(s), Unique: cbSuggDesc, Data: "use"}},
		{{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"}},
	}
	return tghelpers.SendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (w *Workflow) promptConfirm(c tele.Context, s *wizard.Session) error {
	text := fmt.Sprintf(
		"Create this payout?\nFrom: *%s*\nTo: *%s*\nAmount: %s\nDate: %s\nDescription: %s",
		mdSafe(s.FromAccountName), mdSafe(s.ToAccountName),
		parse.FormatDecimal(s.Amount), parse.FormatDate(s.Date), mdSafe(s.Description))
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Confirm", Unique: cbConfirm, Data: "yes"},
		{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"},
	})
	return tghelpers.SendMD(c, text, markup)
}
