package meter

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
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
	msgNotAuthorized    = "You are not authorized to record meter readings."
	msgChooseProperty   = "*Meter readings*\nChoose a property:"
	msgChooseAction     = "What would you like to do with the readings for *%s*?"
	msgEnterDate        = "Enter the reading date (DD.MM.YYYY):"
	msgEnterValue       = "Enter the meter value:"
	msgBadDate          = "That doesn't look like a date. Use DD.MM.YYYY, e.g. 15.12.2025."
	msgBadNumber        = "That doesn't look like a number. Use digits, e.g. 1500.5."
	msgValueNotPositive = "The meter value must be greater than zero."
	msgBelowBaseline    = "Value %s is below the previous reading %s. Meter values cannot decrease, enter the value again:"
	msgUseButtons       = "Please use the buttons above to choose."
	msgInvalidAction    = "Unsupported action. Choose one of the options below."
	msgStaleSelection   = "That option is no longer available. Pick again:"
	msgNothingToModify  = "There are no readings for *%s* yet, nothing to %s."
	msgCancelledBack    = "Operation cancelled."
	msgCancelledExit    = "Meter readings closed."
	msgReadingVanished  = "The reading no longer exists. It may have been removed by someone else."
)

func (w *Workflow) promptProperty(c tele.Context, banner string) error {
	ctx := tghelpers.BuildContext(c)
	props, err := w.store.ListProperties(ctx)
	if err != nil {
		return err
	}
	fresh, err := w.store.ListPropertiesWithoutReadings(ctx)
	if err != nil {
		return err
	}

	btns := make([]keyboard.InlineBtn, 0, len(props)+2)
	for _, p := range props {
		btns = append(btns, keyboard.InlineBtn{
			Text:   p.Name,
			Unique: cbProperty,
			Data:   strconv.FormatInt(p.ID, 10),
		})
	}
	if len(fresh) > 0 {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("➕ Without readings yet (%d)", len(fresh)),
			Unique: cbMore,
			Data:   "show",
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"})

	text := msgChooseProperty
	if banner != "" {
		text = banner + "\n\n" + text
	}
	return tghelpers.SendMD(c, text, keyboard.InlineButtons(btns))
}

// promptMoreProperties renders the sibling branch for properties that have
// no reading yet. Same step, different candidate list.
func (w *Workflow) promptMoreProperties(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	fresh, err := w.store.ListPropertiesWithoutReadings(ctx)
	if err != nil {
		return err
	}
	btns := make([]keyboard.InlineBtn, 0, len(fresh)+1)
	for _, p := range fresh {
		btns = append(btns, keyboard.InlineBtn{
			Text:   p.Name,
			Unique: cbProperty,
			Data:   strconv.FormatInt(p.ID, 10),
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"})
	return tghelpers.SendMD(c, "Properties without readings yet:", keyboard.InlineButtons(btns))
}

func (w *Workflow) promptAction(c tele.Context, s *wizard.Session, banner string) error {
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🆕 New", Unique: cbAction, Data: string(wizard.ActionNew)},
			{Text: "✏️ Edit last", Unique: cbAction, Data: string(wizard.ActionEdit)},
			{Text: "🗑 Delete last", Unique: cbAction, Data: string(wizard.ActionDelete)},
		},
		[]keyboard.InlineBtn{{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"}},
	)
	text := fmt.Sprintf(msgChooseAction, mdSafe(s.PropertyName))
	if s.Baseline != nil {
		text += fmt.Sprintf("\nLast reading: %s on %s.",
			parse.FormatDecimal(*s.Baseline), parse.FormatDate(s.BaselineDate))
	} else {
		text += "\nNo readings recorded yet."
	}
	if banner != "" {
		text = banner + "\n\n" + text
	}
	return tghelpers.SendMD(c, text, markup)
}

func (w *Workflow) promptDate(c tele.Context, s *wizard.Session) error {
	rows := [][]keyboard.InlineBtn{}
	if !s.SuggestedDate.IsZero() {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "📅 " + parse.FormatDate(s.SuggestedDate),
			Unique: cbSuggDate,
			Data:   "use",
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"}})
	return tghelpers.SendMD(c, msgEnterDate, keyboard.InlineButtonsRows(rows...))
}

func (w *Workflow) promptValue(c tele.Context, s *wizard.Session, banner string) error {
	text := msgEnterValue
	if s.Baseline != nil {
		text += fmt.Sprintf("\nPrevious reading: %s (%s). The new value must not be lower.",
			parse.FormatDecimal(*s.Baseline), parse.FormatDate(s.BaselineDate))
	}
	if banner != "" {
		text = banner + "\n\n" + text
	}
	rows := [][]keyboard.InlineBtn{}
	if s.SuggestedValue != nil {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "🔢 " + parse.FormatDecimal(*s.SuggestedValue),
			Unique: cbSuggValue,
			Data:   "use",
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"}})
	return tghelpers.SendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (w *Workflow) promptConfirm(c tele.Context, s *wizard.Session) error {
	var text string
	switch s.Action {
	case wizard.ActionDelete:
		text = fmt.Sprintf("Delete the reading for *%s*?\nDate: %s\nValue: %s",
			mdSafe(s.PropertyName), parse.FormatDate(s.BaselineDate), formatMaybe(s.SuggestedValue))
	case wizard.ActionEdit:
		text = fmt.Sprintf("Save the edited reading?\nProperty: *%s*\nDate: %s\nValue: %s",
			mdSafe(s.PropertyName), parse.FormatDate(s.Date), parse.FormatDecimal(s.Value))
	default:
		text = fmt.Sprintf("Record this reading?\nProperty: *%s*\nDate: %s\nValue: %s",
			mdSafe(s.PropertyName), parse.FormatDate(s.Date), parse.FormatDecimal(s.Value))
	}
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Confirm", Unique: cbConfirm, Data: "yes"},
		{Text: "❌ Cancel", Unique: cbCancel, Data: "cancel"},
	})
	return tghelpers.SendMD(c, text, markup)
}

func formatMaybe(d *decimal.Decimal) string {
	if d == nil {
		return "—"
	}
	return parse.FormatDecimal(*d)
}

// successBanner summarizes a committed action for the loop-back prompt.
func successBanner(s *wizard.Session) string {
	switch s.Action {
	case wizard.ActionDelete:
		return fmt.Sprintf("🗑 Reading for %s deleted.", mdSafe(s.PropertyName))
	case wizard.ActionEdit:
		return fmt.Sprintf("✏️ Reading for %s updated: %s on %s.",
			mdSafe(s.PropertyName), parse.FormatDecimal(s.Value), parse.FormatDate(s.Date))
	default:
		return fmt.Sprintf("✅ Reading for %s recorded: %s on %s.",
			mdSafe(s.PropertyName), parse.FormatDecimal(s.Value), parse.FormatDate(s.Date))
	}
}
