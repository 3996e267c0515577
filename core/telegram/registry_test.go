package telegram

import (
	"testing"

	"github.com/m3rciful/keybot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noopHandler(_ tele.Context) error { return nil }

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/getkey", commands.Command{
		Handler:     noopHandler,
		Description: "issue a key",
		Aliases:     []string{"key"},
	})

	if _, _, ok := reg.LookupCommand("/getkey"); !ok {
		t.Fatal("expected /getkey to be registered")
	}
	if _, _, ok := reg.LookupCommand("getkey"); !ok {
		t.Fatal("expected lookup without slash to resolve")
	}
	key, _, ok := reg.LookupCommand("/key")
	if !ok || key != "/getkey" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("expected unknown command to miss")
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("", commands.Command{Handler: noopHandler, Description: "x"})
	reg.RegisterCommand("/nohandler", commands.Command{Description: "x"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noopHandler})
	reg.RegisterCommand("noslash", commands.Command{Handler: noopHandler, Description: "x"})

	if got := len(reg.Commands()); got != 0 {
		t.Fatalf("registered commands = %d, expected 0", got)
	}
}

func TestRegistryDuplicateKeepsFirst(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "first"})
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "second"})

	_, cmd, ok := reg.LookupCommand("/start")
	if !ok || cmd.Description != "first" {
		t.Fatalf("duplicate registration replaced the original: %+v", cmd)
	}
}

func TestListCommandsVisibleOnly(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "greeting"})
	reg.RegisterCommand("/getkey", commands.Command{Handler: noopHandler, Description: "issue a key"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noopHandler, Description: "stats", AdminOnly: true, Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 2 {
		t.Fatalf("visible commands = %d, expected 2", len(visible))
	}
	// Sorted by text, without the slash prefix.
	if visible[0].Text != "getkey" || visible[1].Text != "start" {
		t.Fatalf("unexpected order: %+v", visible)
	}

	all := reg.ListCommands(false)
	if len(all) != 3 {
		t.Fatalf("all commands = %d, expected 3", len(all))
	}
}
