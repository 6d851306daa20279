package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider supplies the handlers that run when an update matches
// no registered command or callback and no wizard session is in progress.
// The application wires these into the router so fallbacks live in one
// place instead of being scattered across route definitions.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
