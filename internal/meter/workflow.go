// Package meter implements the meter reading wizard: pick a property,
// choose new/edit/delete, enter date and value with validation against the
// property's reading history, confirm, commit. After a successful commit
// the wizard loops back to property selection so several readings can be
// entered in one sitting.
package meter

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
	StepSelectProperty wizard.Step = "mtr_select_property"
	StepSelectAction   wizard.Step = "mtr_select_action"
	StepEnterDate      wizard.Step = "mtr_enter_date"
	StepEnterValue     wizard.Step = "mtr_enter_value"
	StepConfirm        wizard.Step = "mtr_confirm"
)

// Callback uniques bound to wizard.Engine.Resume by the app wiring.
const (
	cbProperty  = "mtr_prop"
	cbMore      = "mtr_more"
	cbAction    = "mtr_act"
	cbSuggDate  = "mtr_sugg_date"
	cbSuggValue = "mtr_sugg_val"
	cbConfirm   = "mtr_ok"
	cbCancel    = "mtr_cancel"
)

// Workflow wires the meter reading steps to storage and notifications.
type Workflow struct {
	store    *storage.Store
	engine   *wizard.Engine
	notifier *notify.Notifier
}

// New registers the workflow's step handlers on the engine.
func New(store *storage.Store, engine *wizard.Engine, notifier *notify.Notifier) *Workflow {
	w := &Workflow{store: store, engine: engine, notifier: notifier}
	engine.Register(wizard.KindMeterReading, StepSelectProperty, w.stepSelectProperty)
	engine.Register(wizard.KindMeterReading, StepSelectAction, w.stepSelectAction)
	engine.Register(wizard.KindMeterReading, StepEnterDate, w.stepEnterDate)
	engine.Register(wizard.KindMeterReading, StepEnterValue, w.stepEnterValue)
	engine.Register(wizard.KindMeterReading, StepConfirm, w.stepConfirm)
	return w
}

// Callbacks lists the uniques the app binds to the engine's Resume.
func (w *Workflow) Callbacks() []string {
	return []string{cbProperty, cbMore, cbAction, cbSuggDate, cbSuggValue, cbConfirm, cbCancel}
}

// Start handles the entry command. Admins and staff may record readings.
// Re-issuing the command discards any in-progress session and starts over.
func (w *Workflow) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	actor, err := w.store.ResolveAdminOrStaff(ctx, c.Sender().ID)
	if errors.Is(err, storage.ErrNotFound) {
		return tghelpers.SendMD(c, msgNotAuthorized)
	}
	if err != nil {
		return err
	}

	s := &wizard.Session{
		Kind:      wizard.KindMeterReading,
		ActorID:   actor.TelegramID,
		ActorRole: actor.Role,
	}
	if err := w.promptProperty(c, ""); err != nil {
		return err
	}
	w.engine.Begin(c, s, StepSelectProperty)
	return nil
}
