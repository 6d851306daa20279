// Package app assembles the bot: configuration, storage, wizard engine,
// workflows, and the command and callback wiring handed to the runtime.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"condobot/core/bootstrap"
	coretelegram "condobot/core/telegram"
	"condobot/core/telegram/commands"
	"condobot/core/telegram/router"
	tgsender "condobot/core/telegram/sender"
	"condobot/internal/meter"
	"condobot/internal/notify"
	"condobot/internal/payout"
	"condobot/internal/storage"
	"condobot/internal/wizard"
)

// App holds the assembled bot components.
type App struct {
	cfg        *Config
	db         *sqlx.DB
	store      *storage.Store
	sessions   *wizard.Store
	engine     *wizard.Engine
	dispatcher *tgsender.Dispatcher

	meter  *meter.Workflow
	payout *payout.Workflow
}

// Bootstrap initializes infrastructure, seeds reference data, and builds
// the wizard workflows.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(res.DB)

	staff := cfg.StaffList()
	seeders := []bootstrap.Seeder{
		bootstrap.SeederFunc(func(ctx context.Context, _ bootstrap.Storage) error {
			return store.SeedStaff(ctx, staff)
		}),
	}
	if err := bootstrap.RunSeeders(context.Background(), store, seeders); err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("app: staff seeding failed: %w", err)
	}

	sessions := wizard.NewStore(time.Duration(cfg.Wizard.SessionTTLMinutes) * time.Minute)
	engine := wizard.New(sessions, wizardErrorHandler)

	dispatcher := tgsender.NewDispatcher(tgsender.Options{})
	notifier := notify.New(dispatcher)

	a := &App{
		cfg:        cfg,
		db:         res.DB,
		store:      store,
		sessions:   sessions,
		engine:     engine,
		dispatcher: dispatcher,
		meter:      meter.New(store, engine, notifier),
		payout:     payout.New(store, engine, notifier),
	}
	return a, nil
}

// TelegramRunOptions builds the registry, routes, and lifecycle hooks
// for the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Show what this bot does",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "List available commands",
		Aliases:     []string{"help"},
	})
	reg.RegisterCommand("/readings", commands.Command{
		Handler:     a.meter.Start,
		Description: "Record meter readings",
	})
	reg.RegisterCommand("/payout", commands.Command{
		Handler:     a.payout.Start,
		Description: "Record a payout between accounts",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/audit", commands.Command{
		Handler:     a.handleAudit,
		Description: "Show recent audit entries",
		Hidden:      true,
	})

	for _, w := range []interface{ Callbacks() []string }{a.meter, a.payout} {
		for _, key := range w.Callbacks() {
			if err := reg.RegisterCallback(key, a.engine.Resume); err != nil {
				return coretelegram.RunOptions{}, err
			}
		}
	}

	if err := reg.RegisterCallback(cbAuditPage, a.handleAuditPage); err != nil {
		return coretelegram.RunOptions{}, err
	}

	reg.SetTextFallback(a.UnknownText())
	reg.SetCallbackNotFound(a.UnknownCallback())

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(a.engine, reg, router.TextOptions{
		UnknownText:     a.UnknownText(),
		UnknownDocument: a.UnknownDocument(),
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	opts := coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			a.sessions.StartJanitor(ctx)
			return nil
		},
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			return a.db.Close()
		},
	}
	return opts, nil
}

func wizardErrorHandler(c tele.Context) error {
	return c.Send(msgSomethingWrong)
}
