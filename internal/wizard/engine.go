// Package wizard implements the conversational workflow engine: a typed
// per-(chat, user) session store and a step state machine driven by
// incoming messages and button presses. Workflow packages register one
// StepFunc per step; the engine applies transitions and centralizes
// error recovery.
package wizard

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"condobot/core/logger"
	tghelpers "condobot/core/telegram/helpers"
)

// StepFunc consumes one inbound update for a session and reports how the
// wizard proceeds. Handlers send their own prompts and error banners.
type StepFunc func(c tele.Context, s *Session) (Result, error)

// Engine dispatches updates to step handlers and owns the fallback for
// unexpected failures: log with full context, clear the session, show a
// generic processing error. No partial session state survives a failed step.
type Engine struct {
	store   *Store
	steps   map[Kind]map[Step]StepFunc
	onError tele.HandlerFunc
}

// New creates an engine around the given store. onError is sent to the user
// after an unexpected step failure; nil disables the message (tests).
func New(store *Store, onError tele.HandlerFunc) *Engine {
	return &Engine{
		store:   store,
		steps:   make(map[Kind]map[Step]StepFunc),
		onError: onError,
	}
}

// Store exposes the session store to workflow packages.
func (e *Engine) Store() *Store { return e.store }

// Register binds a handler to a workflow step. Duplicate registrations are
// a wiring bug and are logged, keeping the first handler.
func (e *Engine) Register(kind Kind, step Step, fn StepFunc) {
	if fn == nil {
		return
	}
	m, ok := e.steps[kind]
	if !ok {
		m = make(map[Step]StepFunc)
		e.steps[kind] = m
	}
	if _, exists := m[step]; exists {
		logger.WIZ.Warn("duplicate step handler",
			slog.String("event", "register.step.duplicate"),
			slog.String("workflow", string(kind)),
			slog.String("step", string(step)),
		)
		return
	}
	m[step] = fn
}

// KeyFrom derives the session key from the update context.
func KeyFrom(c tele.Context) Key {
	k := Key{}
	if chat := c.Chat(); chat != nil {
		k.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		k.UserID = user.ID
	}
	return k
}

// Begin replaces any existing session for the key with the provided one,
// positioned at the wizard's first step. The caller has already rendered
// the first prompt.
func (e *Engine) Begin(c tele.Context, s *Session, first Step) {
	s.Step = first
	e.store.Put(KeyFrom(c), s)
}

// InProgress reports whether a wizard is active for the chat/user pair.
// It satisfies the message router's FSM interface.
func (e *Engine) InProgress(chatID, userID int64) bool {
	_, ok := e.store.Get(Key{ChatID: chatID, UserID: userID})
	return ok
}

// ManagerHandler routes a free-text message to the session's current step.
// It satisfies the message router's FSM interface.
func (e *Engine) ManagerHandler(c tele.Context) error {
	k := KeyFrom(c)
	s, ok := e.store.Get(k)
	if !ok {
		return nil
	}
	return e.dispatch(c, k, s)
}

// Resume routes a button press to the session's current step. Callback
// handlers registered in the registry call this so selection steps share
// the same transition and recovery rules as text steps.
func (e *Engine) Resume(c tele.Context) error {
	k := KeyFrom(c)
	s, ok := e.store.Get(k)
	if !ok {
		// Stale button from a finished or evicted session.
		return nil
	}
	return e.dispatch(c, k, s)
}

func (e *Engine) dispatch(c tele.Context, k Key, s *Session) error {
	ctx := tghelpers.BuildContext(c)

	fn := e.steps[s.Kind][s.Step]
	if fn == nil {
		logger.WIZ.LogAttrs(ctx, slog.LevelError, "no handler for step",
			slog.String("event", "step.unbound"),
			slog.String("workflow", string(s.Kind)),
			slog.String("step", string(s.Step)),
		)
		return e.fail(c, k)
	}

	logger.WIZ.LogAttrs(ctx, slog.LevelDebug, "step dispatch",
		slog.String("event", "step.dispatch"),
		slog.String("workflow", string(s.Kind)),
		slog.String("step", string(s.Step)),
		slog.Int64("actor_id", s.ActorID),
	)

	res, err := fn(c, s)
	if err != nil {
		logger.WIZ.LogAttrs(ctx, slog.LevelError, "step failed",
			slog.String("event", "step.fail"),
			slog.String("workflow", string(s.Kind)),
			slog.String("step", string(s.Step)),
			slog.Int64("actor_id", s.ActorID),
			slog.String("err", err.Error()),
		)
		return e.fail(c, k)
	}

	switch res.kind {
	case outcomeAdvance:
		s.Step = res.next
		e.store.Put(k, s)
	case outcomeStay:
		e.store.Touch(k)
	case outcomeEnd:
		e.store.Clear(k)
	}
	return nil
}

// fail clears the session and shows the generic processing error. The nil
// return keeps one chat's failure from tearing down the update loop.
func (e *Engine) fail(c tele.Context, k Key) error {
	e.store.Clear(k)
	if e.onError != nil {
		if err := e.onError(c); err != nil {
			logger.WIZ.Warn("error message delivery failed",
				slog.String("event", "step.fail.notify"),
				slog.String("err", err.Error()),
			)
		}
	}
	return nil
}
