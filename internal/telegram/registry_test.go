package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/stickerkid/internal/telegram/commands"
)

func nopHandler(tele.Context) error { return nil }

func TestRegistryLookupCommandAndAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/list", commands.Command{
		Handler:     nopHandler,
		Description: "Show your stickers",
		Aliases:     []string{"ls"},
	})

	key, _, ok := reg.LookupCommand("/list")
	if !ok || key != "/list" {
		t.Fatalf("direct lookup: key=%q ok=%v", key, ok)
	}
	key, _, ok = reg.LookupCommand("/ls")
	if !ok || key != "/list" {
		t.Fatalf("alias lookup: key=%q ok=%v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("unknown command must not resolve")
	}
	if got := len(reg.Commands()); got != 1 {
		t.Fatalf("Commands() size = %d, want 1", got)
	}
}

func TestRegistryListCommandsFiltersHiddenAndAdmin(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/list", commands.Command{Handler: nopHandler, Description: "a"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: nopHandler, Description: "b", Hidden: true})
	reg.RegisterCommand("/stats", commands.Command{Handler: nopHandler, Description: "c", AdminOnly: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/list" {
		t.Fatalf("visible commands = %+v, want only /list", visible)
	}
	if got := len(reg.ListCommands(false)); got != 3 {
		t.Fatalf("unfiltered commands = %d, want 3", got)
	}
}

func TestRegistryCallbacksListedSorted(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("zeta", nopHandler); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("alpha", nopHandler); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("alpha", nopHandler); err == nil {
		t.Fatal("duplicate callback registration must fail")
	}

	keys := reg.ListCallbacks()
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "zeta" {
		t.Fatalf("ListCallbacks() = %v, want [alpha zeta]", keys)
	}
	if _, ok := reg.GetCallback("alpha"); !ok {
		t.Fatal("registered callback must be retrievable")
	}
}

func TestRegistryTextFallback(t *testing.T) {
	reg := NewRegistry()
	if reg.TextFallback() != nil {
		t.Fatal("fresh registry must have no text fallback")
	}

	called := false
	reg.SetTextFallback(func(tele.Context) error {
		called = true
		return nil
	})
	fallback := reg.TextFallback()
	if fallback == nil {
		t.Fatal("fallback not stored")
	}
	if err := fallback(nil); err != nil || !called {
		t.Fatalf("fallback invocation: err=%v called=%v", err, called)
	}
}
