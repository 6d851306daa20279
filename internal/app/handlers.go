package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"condobot/core/telegram/callbacks"
	tghelpers "condobot/core/telegram/helpers"
	"condobot/core/telegram/keyboard"
	"condobot/core/telegram/ui"
	"condobot/internal/storage"
)

const (
	msgSomethingWrong = "Something went wrong, the operation was cancelled. Start over with a command."
	msgUnknownText    = "I did not understand that. Use /readings or /payout, or /help for the full list."
	msgNotAuthorized  = "You are not authorized to use this command."

	auditPageSize = 10
	cbAuditPage   = "audit_pg"
)

func (a *App) handleStart(c tele.Context) error {
	text := "Hello! I keep the books for the association.\n\n" +
		"/readings records utility meter values per property.\n" +
		"/payout records a transfer between accounts.\n" +
		"/help lists everything I can do."
	return tghelpers.SendMD(c, text)
}

func (a *App) handleHelp(c tele.Context) error {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	b.WriteString("/readings - record, edit, or delete a meter reading\n")
	b.WriteString("/payout - record a payout between accounts (admins)\n")
	b.WriteString("/audit - recent change history (admins)\n")
	b.WriteString("/help - this list\n")
	b.WriteString("\nWizards accept dates like 15.08.2026 and numbers like 1 234,56.")
	return tghelpers.SendMD(c, b.String())
}

// handleAudit shows the newest audit entries with older/newer paging.
func (a *App) handleAudit(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if _, err := a.store.ResolveAdmin(ctx, c.Sender().ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tghelpers.SendMD(c, msgNotAuthorized)
		}
		return err
	}
	return a.renderAuditPage(c, 0, false)
}

// handleAuditPage pages an existing audit listing in place.
func (a *App) handleAuditPage(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if _, err := a.store.ResolveAdmin(ctx, c.Sender().ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tghelpers.SendMD(c, msgNotAuthorized)
		}
		return err
	}
	page, err := callbacks.PayloadInt(c)
	if err != nil || page < 0 {
		page = 0
	}
	return a.renderAuditPage(c, page, true)
}

func (a *App) renderAuditPage(c tele.Context, page int, edit bool) error {
	ctx := tghelpers.BuildContext(c)

	// One extra row tells us whether an older page exists.
	entries, err := a.store.ListAudit(ctx, auditPageSize+1, page*auditPageSize)
	if err != nil {
		return err
	}
	hasOlder := len(entries) > auditPageSize
	if hasOlder {
		entries = entries[:auditPageSize]
	}

	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString("No audit entries yet.")
	} else {
		fmt.Fprintf(&b, "Audit trail, page %d:\n", page+1)
		for _, e := range entries {
			fmt.Fprintf(&b, "%s  %s %s %s by %d\n",
				e.CreatedAt.Format("02.01.2006 15:04"),
				e.Action, e.EntityType, e.EntityID, e.ActorID)
			if e.Changes != "" {
				fmt.Fprintf(&b, "    %s\n", e.Changes)
			}
		}
	}

	var nav []keyboard.InlineBtn
	if page > 0 {
		nav = append(nav, keyboard.InlineBtn{
			Text: "⬅️ Newer", Unique: cbAuditPage, Data: strconv.Itoa(page - 1),
		})
	}
	if hasOlder {
		nav = append(nav, keyboard.InlineBtn{
			Text: "Older ➡️", Unique: cbAuditPage, Data: strconv.Itoa(page + 1),
		})
	}
	// Plain text: entity type names contain underscores that Markdown
	// parse mode would swallow.
	opts := &tele.SendOptions{}
	if len(nav) > 0 {
		opts.ReplyMarkup = keyboard.InlineButtonsRows(nav)
	}
	if edit {
		return c.EditOrSend(b.String(), opts)
	}
	return tghelpers.SendText(c, b.String(), opts)
}

var _ ui.FallbackProvider = (*App)(nil)

// UnknownText handles free text outside any wizard.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgUnknownText)
	}
}

// UnknownDocument handles file uploads, which the bot never expects.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I do not accept files. "+msgUnknownText)
	}
}

// UnknownCallback answers button presses no handler claims.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{Text: "This button is no longer active"})
		return nil
	}
}
