package payout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tghelpers "condobot/core/telegram/helpers"
	"condobot/internal/parse"
	"condobot/internal/storage"
	"condobot/internal/wizard"
)

// maxDescriptionLen bounds free-text descriptions stored with a payout.
const maxDescriptionLen = 200

// cancelout implements this wizard's cancel policy: a payout is a one-shot
// action, so cancel ends the workflow at every step.
func (w *Workflow) cancelOut(c tele.Context) (wizard.Result, error) {
	if err := tghelpers.SendMD(c, msgCancelled); err != nil {
		return wizard.Result{}, err
	}
	return wizard.Done(), nil
}

func (w *Workflow) stepSelectFrom(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	ctx := tghelpers.BuildContext(c)
	cmd := wizard.DecodeCommand(c)

	switch cmd.Verb {
	case cbCancel:
		return w.cancelOut(c)

	case cbFrom:
		if !cmd.HasID {
			if err := w.promptFrom(c, msgInvalidAction); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Stay(), nil
		}
		acc, err := w.store.GetAccount(ctx, cmd.ID)
		if errors.Is(err, storage.ErrNotFound) {
			if err := w.promptFrom(c, msgStaleSelection); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Stay(), nil
		}
		if err != nil {
			return wizard.Result{}, err
		}
		s.FromAccountID = acc.ID
		s.FromAccountName = acc.Name
		if err := w.promptTo(c, s, ""); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepSelectTo), nil

	case "":
		if err := tghelpers.SendMD(c, msgUseButtons); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil

	default:
		if err := w.promptFrom(c, msgInvalidAction); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
}

func (w *Workflow) stepSelectTo(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	ctx := tghelpers.BuildContext(c)
	cmd := wizard.DecodeCommand(c)

	switch cmd.Verb {
	case cbCancel:
		return w.cancelOut(c)

	case cbTo:
		if !cmd.HasID {
			if err := w.promptTo(c, s, msgInvalidAction); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Stay(), nil
		}
		if cmd.ID == s.FromAccountID {
			if err := w.promptTo(c, s, msgSameAccount); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Stay(), nil
		}
		acc, err := w.store.GetAccount(ctx, cmd.ID)
		if errors.Is(err, storage.ErrNotFound) {
			if err := w.promptTo(c, s, msgStaleSelection); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Stay(), nil
		}
		if err != nil {
			return wizard.Result{}, err
		}
		s.ToAccountID = acc.ID
		s.ToAccountName = acc.Name

		// Both accounts known: compute the suggested amount once, as a hint.
		if suggested, err := w.store.SuggestedPayout(ctx, s.FromAccountID, s.ToAccountID); err == nil && suggested.IsPositive() {
			s.SuggestedAmount = &suggested
		}

		if err := w.promptAmount(c, s, ""); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepEnterAmount), nil

	case "":
		if err := tghelpers.SendMD(c, msgUseButtons); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil

	default:
		if err := w.promptTo(c, s, msgInvalidAction); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
}

func (w *Workflow) stepEnterAmount(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	cmd := wizard.DecodeCommand(c)
	if cmd.Verb == cbCancel {
		return w.cancelOut(c)
	}

	raw := c.Text()
	if cmd.Verb == cbSuggAmount && s.SuggestedAmount != nil {
		raw = parse.FormatDecimal(*s.SuggestedAmount)
	}

	amount, err := parse.Decimal(raw)
	if err != nil {
		if err := tghelpers.SendMD(c, msgBadNumber); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
	// Strictly positive, rejected before the date step is ever offered.
	if !amount.IsPositive() {
		if err := tghelpers.SendMD(c, msgAmountNotPositive); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}

	s.Amount = amount
	if err := w.promptDate(c); err != nil {
		return wizard.Result{}, err
	}
	return wizard.ToStep(StepEnterDate), nil
}

func (w *Workflow) stepEnterDate(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	cmd := wizard.DecodeCommand(c)
	if cmd.Verb == cbCancel {
		return w.cancelOut(c)
	}

	raw := c.Text()
	if cmd.Verb == cbSuggDate {
		raw = parse.FormatDate(time.Now())
	}

	date, err := parse.Date(raw)
	if err != nil {
		if err := tghelpers.SendMD(c, msgBadDate); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}

	s.Date = date
	if err := w.promptDescription(c, s, ""); err != nil {
		return wizard.Result{}, err
	}
	return wizard.ToStep(StepEnterDescription), nil
}

func (w *Workflow) stepEnterDescription(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	cmd := wizard.DecodeCommand(c)
	if cmd.Verb == cbCancel {
		return w.cancelOut(c)
	}

	text := strings.TrimSpace(c.Text())
	if cmd.Verb == cbSuggDesc {
		text = suggestedDescription(s)
	}
	if text == "" {
		if err := tghelpers.SendMD(c, msgEmptyDescription); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
	if len([]rune(text)) > maxDescriptionLen {
		text = string([]rune(text)[:maxDescriptionLen])
	}

	s.Description = text
	if err := w.promptConfirm(c, s); err != nil {
		return wizard.Result{}, err
	}
	return wizard.ToStep(StepConfirm), nil
}

func (w *Workflow) stepConfirm(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	cmd := wizard.DecodeCommand(c)
	switch cmd.Verb {
	case cbCancel:
		return w.cancelOut(c)
	case cbConfirm:
		return w.commit(c, s)
	default:
		if err := w.promptConfirm(c, s); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
}

func (w *Workflow) commit(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	ctx := tghelpers.BuildContext(c)

	created, err := w.store.CreatePayout(ctx, s.FromAccountID, s.ToAccountID,
		s.Amount, s.Date, s.Description, s.ActorID)
	if errors.Is(err, storage.ErrNonPositiveAmount) {
		// Unreachable through the wizard, but the invariant is enforced at
		// commit time regardless; recover to the amount step.
		if err := w.promptAmount(c, s, msgAmountNotPositive); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepEnterAmount), nil
	}
	if err != nil {
		return wizard.Result{}, err
	}

	if w.notifier != nil {
		from, fromErr := w.store.GetAccount(ctx, s.FromAccountID)
		to, toErr := w.store.GetAccount(ctx, s.ToAccountID)
		if fromErr == nil && toErr == nil {
			w.notifier.PayoutCreated(c, from, to, created)
		}
	}

	text := fmt.Sprintf("✅ Payout recorded: %s from %s to %s on %s.",
		parse.FormatDecimal(created.Amount), mdSafe(s.FromAccountName), mdSafe(s.ToAccountName),
		parse.FormatDate(created.Date))
	if err := tghelpers.SendMD(c, text); err != nil {
		return wizard.Result{}, err
	}
	return wizard.Done(), nil
}
