// Package dialog implements the per-owner add/list/remove conversation as
// an explicit state machine: a pure transition function over a closed,
// first-match-wins pattern list, and a Machine that executes the resulting
// action against the sticker store.
package dialog

import (
	"strconv"
	"strings"
)

// State identifies a conversation step.
type State string

const (
	// StateIdle indicates there is no active conversation with the owner.
	StateIdle State = "idle"
	// StateAwaitingSticker means /add was issued and a sticker is expected.
	StateAwaitingSticker State = "awaiting_sticker"
	// StateAwaitingName means a sticker is held and its name is expected.
	StateAwaitingName State = "awaiting_name"
)

// EventKind distinguishes inbound chat event shapes.
type EventKind int

const (
	// EventText is a plain text message.
	EventText EventKind = iota
	// EventSticker is a sticker message carrying a file reference.
	EventSticker
)

// Event is one inbound chat event, already stripped of transport details.
type Event struct {
	Kind EventKind
	Text string
	Ref  string
}

// ActionKind enumerates the actions a transition can request.
type ActionKind int

const (
	// ActionNone drops the event without a reply or transition.
	ActionNone ActionKind = iota
	// ActionList replies with the owner's collection.
	ActionList
	// ActionPromptSticker asks the owner to send a sticker.
	ActionPromptSticker
	// ActionRemove deletes the sticker at the 1-based list position.
	ActionRemove
	// ActionHoldSticker stores the pending ref and asks for a name.
	ActionHoldSticker
	// ActionSave persists the pending sticker under the supplied name.
	ActionSave
	// ActionCancel abandons an active dialog.
	ActionCancel
)

// Step is the outcome of a transition: at most one action plus the next
// state. Position is set only for ActionRemove.
type Step struct {
	Action   ActionKind
	Position int
	Next     State
}

// Next maps (state, event) to a Step. The pattern list is checked in
// order: exact /list, exact /add, /cancel, the /remove shape, then the
// state-gated sticker and description handlers. The first match consumes
// the event; anything else is dropped with the state retained.
func Next(state State, ev Event) Step {
	if ev.Kind == EventText {
		text := strings.TrimSpace(ev.Text)
		switch text {
		case "/list":
			return Step{Action: ActionList, Next: StateIdle}
		case "/add":
			return Step{Action: ActionPromptSticker, Next: StateAwaitingSticker}
		case "/cancel":
			if state == StateIdle {
				return Step{Action: ActionNone, Next: state}
			}
			return Step{Action: ActionCancel, Next: StateIdle}
		}
		if pos, ok := parseRemove(text); ok {
			return Step{Action: ActionRemove, Position: pos, Next: StateIdle}
		}
	}

	switch state {
	case StateAwaitingSticker:
		if ev.Kind == EventSticker {
			return Step{Action: ActionHoldSticker, Next: StateAwaitingName}
		}
	case StateAwaitingName:
		if ev.Kind == EventText {
			return Step{Action: ActionSave, Next: StateIdle}
		}
	}

	return Step{Action: ActionNone, Next: state}
}

// parseRemove recognizes the /remove command as a whitespace-delimited
// token anywhere in the message, case-insensitively, followed by a
// positive integer position. A missing or malformed number is treated as
// no match at all.
func parseRemove(text string) (int, bool) {
	fields := strings.Fields(text)
	for i, field := range fields {
		if !strings.EqualFold(field, "/remove") {
			continue
		}
		if i+1 >= len(fields) {
			return 0, false
		}
		pos, err := strconv.Atoi(fields[i+1])
		if err != nil || pos <= 0 {
			return 0, false
		}
		return pos, true
	}
	return 0, false
}
