package bot

import (
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/stickerkid/internal/dialog"
	"github.com/m3rciful/stickerkid/internal/inline"
	"github.com/m3rciful/stickerkid/internal/logger"
	tg "github.com/m3rciful/stickerkid/internal/telegram"
	"github.com/m3rciful/stickerkid/internal/telegram/callbacks"
	"github.com/m3rciful/stickerkid/internal/telegram/commands"
	tghelpers "github.com/m3rciful/stickerkid/internal/telegram/helpers"
	"github.com/m3rciful/stickerkid/internal/telegram/middleware"
	"github.com/m3rciful/stickerkid/internal/telegram/router"
)

func (a *App) registerCommands(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleHelp,
		Description: "What this bot does",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/list", commands.Command{
		Handler:     a.forwardToDialog,
		Description: "Show your stickers",
	})
	reg.RegisterCommand("/add", commands.Command{
		Handler:     a.forwardToDialog,
		Description: "Save a new sticker",
	})
	reg.RegisterCommand("/remove", commands.Command{
		Handler:     a.forwardToDialog,
		Description: "Remove a sticker by its list number",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.forwardToDialog,
		Description: "Abort the current operation",
		Hidden:      true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Service counters",
		AdminOnly:   true,
	})

	_ = reg.RegisterCallback(cancelAction, a.handleCancelCallback)

	// Plain text and command texts carrying arguments feed the dialog.
	reg.SetTextFallback(a.forwardToDialog)
}

func (a *App) routes(reg *tg.Registry) []tg.Route {
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: a.textRoute(reg)},
		{Endpoint: tele.OnSticker, Handler: a.onSticker},
		{Endpoint: tele.OnQuery, Handler: a.onQuery},
		{Endpoint: tele.OnCallback, Handler: a.callbackRoute(reg)},
		{Endpoint: tele.OnInlineResult, Handler: a.onChosenResult},
	}
}

// textRoute resolves registry commands first, everything else goes to
// the registry's text fallback. Command texts carrying arguments, like
// "/remove 2", intentionally miss the registry and reach the fallback.
func (a *App) textRoute(reg *tg.Registry) tele.HandlerFunc {
	adminOpts := middleware.AdminOptions{AdminID: a.cfg.Telegram.AdminID}
	return func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
			handler := middleware.WithAdminCheck(adminOpts, cmd.AdminOnly, cmd.Handler)
			return router.WithSummary(c, router.NormalizeHandlerName(key), start, func() error {
				return handler(c)
			})
		}

		fallback := reg.TextFallback()
		if fallback == nil {
			return nil
		}
		return router.WithSummary(c, "dialog_text", start, func() error {
			return fallback(c)
		})
	}
}

func (a *App) forwardToDialog(c tele.Context) error {
	return a.dispatchDialog(c, dialog.Event{Kind: dialog.EventText, Text: c.Text()})
}

func (a *App) onSticker(c tele.Context) error {
	start := time.Now()
	msg := c.Message()
	if msg == nil || msg.Sticker == nil {
		return nil
	}
	return router.WithSummary(c, "dialog_sticker", start, func() error {
		return a.dispatchDialog(c, dialog.Event{Kind: dialog.EventSticker, Ref: msg.Sticker.FileID})
	})
}

func (a *App) onQuery(c tele.Context) error {
	start := time.Now()
	q := c.Query()
	if q == nil {
		return nil
	}
	owner := q.Sender.ID
	ctx := tghelpers.BuildContext(c)

	var results tele.Results
	err := a.inline.Do(ctx, owner, func(r *inline.Responder) error {
		var rerr error
		results, rerr = r.Respond(ctx, q.Text)
		return rerr
	})
	if err != nil {
		router.LogSummary(c, "inline_query", start, "", "", err)
		return err
	}

	err = c.Answer(&tele.QueryResponse{
		Results:    results,
		CacheTime:  1,
		IsPersonal: true,
	})
	router.LogSummary(c, "inline_query", start, "", "", err,
		slog.Int("matches", len(results)),
	)
	return err
}

func (a *App) callbackRoute(reg *tg.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		_ = c.Respond()

		key := callbacks.CallbackKey(c)
		name := "callback." + router.NormalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		handler, ok := reg.GetCallback(key)
		if !ok || handler == nil {
			handler = reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
		}
		return router.WithSummary(c, name, start, func() error {
			if handler == nil {
				return nil
			}
			return handler(c)
		}, extras...)
	}
}

func (a *App) handleCancelCallback(c tele.Context) error {
	return a.dispatchDialog(c, dialog.Event{Kind: dialog.EventText, Text: "/cancel"})
}

// onChosenResult records which search result the user actually picked.
func (a *App) onChosenResult(c tele.Context) error {
	res := c.InlineResult()
	if res == nil {
		return nil
	}
	logger.INL.Info("inline result chosen",
		slog.String("event", "inline.chosen"),
		slog.Int64("owner_id", res.Sender.ID),
		slog.String("result_id", res.ResultID),
		slog.String("query", logger.SanitizeLimit(res.Query, 256)),
	)
	return nil
}

func (a *App) handleHelp(c tele.Context) error {
	name := a.botName
	if name == "" {
		name = "this bot"
	}
	text := fmt.Sprintf(
		"I keep your personal sticker collection.\n\n"+
			"/list shows your stickers\n"+
			"/add saves a new sticker\n"+
			"/remove <number> deletes a sticker by its list position\n"+
			"/cancel aborts the current operation\n\n"+
			"Type @%s followed by a few words in any chat to search your stickers.",
		name,
	)
	return tghelpers.SendText(c, text)
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	total, err := a.store.Count(ctx)
	if err != nil {
		return err
	}
	var sendFailures uint64
	if a.sender != nil {
		sendFailures = a.sender.ErrorCount()
	}
	text := fmt.Sprintf(
		"Stickers stored: %d\nActive chat sessions: %d\nActive inline sessions: %d\nSend failures: %d",
		total, a.chat.Len(), a.inline.Len(), sendFailures,
	)
	return tghelpers.SendText(c, text)
}
