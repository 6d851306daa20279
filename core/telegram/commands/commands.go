package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command declares a bot command for the registry. AdminOnly and Hidden
// only control visibility in the Telegram command menu; the handler
// itself decides who may run it.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
