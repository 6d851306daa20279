package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"condobot/core/logger"
	tg "condobot/core/telegram"
	"condobot/core/telegram/middleware"
)

// CommandRoutes wraps every registered command with the shared recover and
// logging middleware. Role checks live inside the handlers themselves,
// which resolve the acting staff member from storage anyway.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		var h tele.HandlerFunc = def.Handler
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
