package meter

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	tghelpers "condobot/core/telegram/helpers"
	"condobot/internal/parse"
	"condobot/internal/storage"
	"condobot/internal/wizard"
)

// stepSelectProperty consumes the property choice. Cancelling here ends the
// wizard outright; from every later step cancel returns to this list.
func (w *Workflow) stepSelectProperty(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	ctx := tghelpers.BuildContext(c)
	cmd := wizard.DecodeCommand(c)

	switch cmd.Verb {
	case cbCancel:
		if err := tghelpers.SendMD(c, msgCancelledExit); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Done(), nil

	case cbMore:
		if err := w.promptMoreProperties(c); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil

	case cbProperty:
		if !cmd.HasID {
			if err := w.promptProperty(c, msgInvalidAction); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Stay(), nil
		}
		prop, err := w.store.GetProperty(ctx, cmd.ID)
		if errors.Is(err, storage.ErrNotFound) {
			// Stale button: the property was removed since the list rendered.
			if err := w.promptProperty(c, msgStaleSelection); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Stay(), nil
		}
		if err != nil {
			return wizard.Result{}, err
		}

		s.PropertyID = prop.ID
		s.PropertyName = prop.Name

		// Capture the validation baseline once, here, so later steps never
		// re-query and risk seeing a different value than the user was shown.
		latest, err := w.store.LatestReading(ctx, prop.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.Baseline = nil
			s.ReadingID = 0
		case err != nil:
			return wizard.Result{}, err
		default:
			v := latest.Value
			s.Baseline = &v
			s.BaselineDate = latest.Date
			s.ReadingID = latest.ID
			s.SuggestedValue = &v
		}

		if last, err := w.store.LatestReadingDate(ctx); err == nil {
			s.SuggestedDate = last
		}

		if err := w.promptAction(c, s, ""); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepSelectAction), nil

	case "":
		// Free text while a list is shown.
		if err := tghelpers.SendMD(c, msgUseButtons); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil

	default:
		if err := w.promptProperty(c, msgInvalidAction); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
}

func (w *Workflow) stepSelectAction(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	ctx := tghelpers.BuildContext(c)
	cmd := wizard.DecodeCommand(c)

	if cmd.Verb == cbCancel {
		return w.cancelToSelection(c, s)
	}
	if cmd.Verb != cbAction {
		if err := w.promptAction(c, s, msgInvalidAction); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}

	switch wizard.Action(cmd.Literal) {
	case wizard.ActionNew:
		s.Action = wizard.ActionNew
		if err := w.promptDate(c, s); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepEnterDate), nil

	case wizard.ActionEdit:
		if s.ReadingID == 0 {
			if err := tghelpers.SendMD(c, fmt.Sprintf(msgNothingToModify, mdSafe(s.PropertyName), "edit")); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Done(), nil
		}
		s.Action = wizard.ActionEdit
		// Editing must stay consistent with the reading BEFORE the edited
		// one, not with the edited record's own value.
		prev, err := w.store.PrecedingReading(ctx, s.PropertyID, s.BaselineDate, s.ReadingID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// Editing the earliest reading: only positivity applies.
			s.SuggestedDate = s.BaselineDate
			s.Baseline = nil
		case err != nil:
			return wizard.Result{}, err
		default:
			v := prev.Value
			s.SuggestedDate = s.BaselineDate
			s.Baseline = &v
			s.BaselineDate = prev.Date
		}
		if err := w.promptDate(c, s); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepEnterDate), nil

	case wizard.ActionDelete:
		if s.ReadingID == 0 {
			if err := tghelpers.SendMD(c, fmt.Sprintf(msgNothingToModify, mdSafe(s.PropertyName), "delete")); err != nil {
				return wizard.Result{}, err
			}
			return wizard.Done(), nil
		}
		s.Action = wizard.ActionDelete
		if err := w.promptConfirm(c, s); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepConfirm), nil

	default:
		if err := w.promptAction(c, s, msgInvalidAction); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
}

func (w *Workflow) stepEnterDate(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	cmd := wizard.DecodeCommand(c)
	if cmd.Verb == cbCancel {
		return w.cancelToSelection(c, s)
	}

	raw := c.Text()
	if cmd.Verb == cbSuggDate && !s.SuggestedDate.IsZero() {
		raw = parse.FormatDate(s.SuggestedDate)
	}

	date, err := parse.Date(raw)
	if err != nil {
		if err := tghelpers.SendMD(c, msgBadDate); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}

	s.Date = date
	if err := w.promptValue(c, s, ""); err != nil {
		return wizard.Result{}, err
	}
	return wizard.ToStep(StepEnterValue), nil
}

func (w *Workflow) stepEnterValue(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	cmd := wizard.DecodeCommand(c)
	if cmd.Verb == cbCancel {
		return w.cancelToSelection(c, s)
	}

	raw := c.Text()
	if cmd.Verb == cbSuggValue && s.SuggestedValue != nil {
		raw = parse.FormatDecimal(*s.SuggestedValue)
	}

	value, err := parse.Decimal(raw)
	if err != nil {
		if err := tghelpers.SendMD(c, msgBadNumber); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
	if !value.IsPositive() {
		if err := tghelpers.SendMD(c, msgValueNotPositive); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}
	// The rejection names both values so the user knows what to retype.
	// The already-entered date is preserved.
	if s.Baseline != nil && value.LessThan(*s.Baseline) {
		text := fmt.Sprintf(msgBelowBaseline,
			parse.FormatDecimal(value), parse.FormatDecimal(*s.Baseline))
		if err := tghelpers.SendMD(c, text); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Stay(), nil
	}

	s.Value = value
	if err := w.promptConfirm(c, s); err != nil {
		return wizard.Result{}, err
	}
	return wizard.ToStep(StepConfirm), nil
}

func (w *Workflow) stepConfirm(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	cmd := wizard.DecodeCommand(c)
	switch cmd.Verb {
	case cbCancel:
		return w.cancelToSelection(c, s)
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

	var commitErr error
	switch s.Action {
	case wizard.ActionNew:
		reading, err := w.store.CreateReading(ctx, s.PropertyID, s.Date, s.Value, s.ActorID)
		if err == nil {
			w.notifyRecorded(c, s, reading.ID)
		}
		commitErr = err
	case wizard.ActionEdit:
		reading, err := w.store.UpdateReading(ctx, s.ReadingID, s.Date, s.Value, s.ActorID)
		if err == nil {
			w.notifyRecorded(c, s, reading.ID)
		}
		commitErr = err
	case wizard.ActionDelete:
		commitErr = w.store.DeleteReading(ctx, s.ReadingID, s.ActorID)
	default:
		commitErr = fmt.Errorf("meter: confirm reached with action %q", s.Action)
	}

	// A monotonicity violation detected at commit time (the data moved
	// under us) is recoverable: back to the value step, date kept.
	var mono *storage.MonotonicityError
	if errors.As(commitErr, &mono) {
		banner := fmt.Sprintf(msgBelowBaseline,
			parse.FormatDecimal(mono.Value), parse.FormatDecimal(mono.Baseline))
		if err := w.promptValue(c, s, banner); err != nil {
			return wizard.Result{}, err
		}
		return wizard.ToStep(StepEnterValue), nil
	}
	if errors.Is(commitErr, storage.ErrNotFound) {
		if err := tghelpers.SendMD(c, msgReadingVanished); err != nil {
			return wizard.Result{}, err
		}
		return wizard.Done(), nil
	}
	if commitErr != nil {
		// Generic persistence failure: everything rolled back.
		return wizard.Result{}, commitErr
	}

	// Keep the actor identity and loop back for the next property.
	banner := successBanner(s)
	s.ResetEntry()
	if err := w.promptProperty(c, banner); err != nil {
		return wizard.Result{}, err
	}
	return wizard.ToStep(StepSelectProperty), nil
}

func (w *Workflow) notifyRecorded(c tele.Context, s *wizard.Session, readingID int64) {
	if w.notifier == nil {
		return
	}
	ctx := tghelpers.BuildContext(c)
	prop, err := w.store.GetProperty(ctx, s.PropertyID)
	if err != nil {
		return
	}
	reading, err := w.store.GetReading(ctx, readingID)
	if err != nil {
		return
	}
	w.notifier.ReadingRecorded(c, prop, reading)
}

// cancelToSelection implements this wizard's cancel policy for steps after
// property selection: clear the entry fields and return to the list rather
// than exiting, so repeated entry sessions are cheap.
func (w *Workflow) cancelToSelection(c tele.Context, s *wizard.Session) (wizard.Result, error) {
	s.ResetEntry()
	if err := w.promptProperty(c, msgCancelledBack); err != nil {
		return wizard.Result{}, err
	}
	return wizard.ToStep(StepSelectProperty), nil
}
