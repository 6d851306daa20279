package wizard

// outcome tags the three ways a step handler can finish.
type outcome int

const (
	outcomeAdvance outcome = iota
	outcomeStay
	outcomeEnd
)

// Result is returned by every step handler. It replaces per-step
// try/except blocks: the engine applies the transition and owns the
// log-clear-apologize fallback for errors.
type Result struct {
	kind outcome
	next Step
}

// ToStep advances the session to the given step. The handler has already
// sent the prompt for that step.
func ToStep(next Step) Result {
	return Result{kind: outcomeAdvance, next: next}
}

// Stay keeps the session on the current step, typically after a re-prompt
// with a format or validation error.
func Stay() Result {
	return Result{kind: outcomeStay}
}

// Done ends the wizard and clears the session.
func Done() Result {
	return Result{kind: outcomeEnd}
}
