// Package payout implements the payout wizard: pick the from- and
// to-accounts, enter a strictly positive amount, a date and a description,
// confirm, commit. Unlike meter readings this is a one-shot flow: cancel at
// any step ends the wizard.
package payout

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	tghelpers "condobot/core/telegram/helpers"
	"condobot/internal/notify"
	"condobot/internal/storage"
	"condobot/internal/wizard"
)

// Wizard steps.
const (
	StepSelectFrom       wizard.Step = "pay_select_from"
	StepSelectTo         wizard.Step = "pay_select_to"
	StepEnterAmount      wizard.Step = "pay_enter_amount"
	StepEnterDate        wizard.Step = "pay_enter_date"
	StepEnterDescription wizard.Step = "pay_enter_description"
	StepConfirm          wizard.Step = "pay_confirm"
)

// Callback uniques bound to wizard.Engine.Resume by the app wiring.
const (
	cbFrom       = "pay_from"
	cbTo         = "pay_to"
	cbSuggAmount = "pay_sugg_amt"
	cbSuggDate   = "pay_sugg_date"
	cbSuggDesc   = "pay_sugg_desc"
	cbConfirm    = "pay_ok"
	cbCancel     = "pay_cancel"
)

// Workflow wires the payout steps to storage and notifications.
type Workflow struct {
	store    *storage.Store
	engine   *wizard.Engine
	notifier *notify.Notifier
}

// New registers the workflow's step handlers on the engine.
func New(store *storage.Store, engine *wizard.Engine, notifier *notify.Notifier) *Workflow {
	w := &Workflow{store: store, engine: engine, notifier: notifier}
	engine.Register(wizard.KindPayout, StepSelectFrom, w.stepSelectFrom)
	engine.Register(wizard.KindPayout, StepSelectTo, w.stepSelectTo)
	engine.Register(wizard.KindPayout, StepEnterAmount, w.stepEnterAmount)
	engine.Register(wizard.KindPayout, StepEnterDate, w.stepEnterDate)
	engine.Register(wizard.KindPayout, StepEnterDescription, w.stepEnterDescription)
	engine.Register(wizard.KindPayout, StepConfirm, w.stepConfirm)
	return w
}

// Callbacks lists the uniques the app binds to the engine's Resume.
func (w *Workflow) Callbacks() []string {
	return []string{cbFrom, cbTo, cbSuggAmount, cbSuggDate, cbSuggDesc, cbConfirm, cbCancel}
}

// Start handles the entry command. Payouts are admin-only. Re-issuing the
// command discards any in-progress session and starts over.
func (w *Workflow) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	actor, err := w.store.ResolveAdmin(ctx, c.Sender().ID)
	if errors.Is(err, storage.ErrNotFound) {
		return tghelpers.SendMD(c, msgNotAuthorized)
	}
	if err != nil {
		return err
	}

	s := &wizard.Session{
		Kind:      wizard.KindPayout,
		ActorID:   actor.TelegramID,
		ActorRole: actor.Role,
	}
	if err := w.promptFrom(c, ""); err != nil {
		return err
	}
	w.engine.Begin(c, s, StepSelectFrom)
	return nil
}
