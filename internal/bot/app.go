// Package bot wires configuration, storage, sessions and Telegram
// transport into the running sticker bot.
package bot

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/stickerkid/internal/config"
	"github.com/m3rciful/stickerkid/internal/dialog"
	"github.com/m3rciful/stickerkid/internal/inline"
	"github.com/m3rciful/stickerkid/internal/logger"
	"github.com/m3rciful/stickerkid/internal/session"
	"github.com/m3rciful/stickerkid/internal/sticker"
	tg "github.com/m3rciful/stickerkid/internal/telegram"
	tghelpers "github.com/m3rciful/stickerkid/internal/telegram/helpers"
	tgsender "github.com/m3rciful/stickerkid/internal/telegram/sender"
)

// App owns the long-lived components of the bot.
type App struct {
	cfg   *config.Config
	store sticker.Store

	chat   *session.Dispatcher[*dialog.Machine]
	inline *session.Dispatcher[*inline.Responder]

	// botName is assigned once the bot identity is known, before any
	// update is processed.
	botName string

	sender *tgsender.Dispatcher
}

// New assembles an App around the given sticker store.
func New(cfg *config.Config, store sticker.Store) *App {
	a := &App{
		cfg:   cfg,
		store: store,
	}
	a.chat = session.NewDispatcher(session.Options[*dialog.Machine]{
		Kind:         "chat",
		TTL:          cfg.ChatTTL(),
		ReapInterval: cfg.ReapInterval(),
		New: func(owner int64) *dialog.Machine {
			return dialog.NewMachine(owner, a.store, a.botName)
		},
	})
	a.inline = session.NewDispatcher(session.Options[*inline.Responder]{
		Kind:         "inline",
		TTL:          cfg.InlineTTL(),
		ReapInterval: cfg.ReapInterval(),
		New: func(owner int64) *inline.Responder {
			return inline.NewResponder(owner, a.store)
		},
	})
	return a
}

// Run starts session reapers and the Telegram adapter, blocking until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.chat.Run(ctx)
	go a.inline.Run(ctx)

	reg := tg.NewRegistry()
	a.registerCommands(reg)

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      a.routes(reg),
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.botName = rt.Bot.Me.Username
			a.sender = rt.Dispatcher
			logger.TG.Info("bot ready",
				slog.String("event", "ready"),
				slog.String("username", a.botName),
				slog.Bool("admin_configured", a.cfg.Telegram.AdminID != 0),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			logger.TG.Info("bot stopped",
				slog.String("event", "stopped"),
				slog.Int("sessions", a.chat.Len()+a.inline.Len()),
			)
			return nil
		},
	})
}

// dispatchDialog feeds one conversation event into the owner's session.
func (a *App) dispatchDialog(c tele.Context, ev dialog.Event) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return a.chat.Do(ctx, user.ID, func(m *dialog.Machine) error {
		return m.Handle(ctx, ev, &teleSink{c: c})
	})
}
