package wizard

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"condobot/core/telegram/callbacks"
)

// Command is the decoded form of an inline button press: a verb (the
// callback unique) plus an optional typed payload. Decoding happens once
// at the transport boundary so step handlers never parse strings.
type Command struct {
	Verb    string
	ID      int64
	HasID   bool
	Literal string
}

// DecodeCommand parses the pressed button into a Command. Unknown or
// malformed payloads yield a Command with HasID=false and the raw payload
// in Literal; handlers treat those as invalid actions, never as crashes.
func DecodeCommand(c tele.Context) Command {
	cmd := Command{Verb: callbacks.CallbackKey(c)}
	payload := callbacks.CallbackPayload(c)
	if payload == "" {
		return cmd
	}
	cmd.Literal = payload
	if id, err := strconv.ParseInt(payload, 10, 64); err == nil {
		cmd.ID = id
		cmd.HasID = true
	}
	return cmd
}
