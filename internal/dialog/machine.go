package dialog

import (
	"context"
	"fmt"

	"github.com/m3rciful/stickerkid/internal/logger"
	"github.com/m3rciful/stickerkid/internal/sticker"
	"log/slog"
)

// Reply texts are fixed product strings.
const (
	MsgSendSticker      = "Send a sticker."
	MsgWriteDescription = "Write a description."
	MsgDoneFmt          = "Done. Now you can use @%s to find the sticker."
	MsgRemoved          = "Sticker removed."
	MsgNotFound         = "Sticker not found."
	MsgCountFmt         = "You have %d stickers."
	MsgCancelled        = "Cancelled."
)

// Sink receives the outbound actions a conversation produces. The prompt
// is separate from plain text so the transport may attach a cancel control
// to it.
type Sink interface {
	SendText(text string) error
	SendSticker(ref string) error
	PromptSticker(text string) error
}

// Machine holds one owner's conversation state. It is not safe for
// concurrent use; the session dispatcher serializes events per owner.
type Machine struct {
	owner   int64
	store   sticker.Store
	botName string

	state   State
	pending string
}

// NewMachine starts an idle conversation for the owner. botName is the
// inline handle advertised after a successful add.
func NewMachine(owner int64, store sticker.Store, botName string) *Machine {
	return &Machine{owner: owner, store: store, botName: botName, state: StateIdle}
}

// State exposes the current conversation state.
func (m *Machine) State() State { return m.state }

// Handle runs one inbound event through the transition table and performs
// the resulting action. Store failures abort the event and are returned;
// the conversation itself stays usable.
func (m *Machine) Handle(ctx context.Context, ev Event, out Sink) error {
	step := Next(m.state, ev)

	logger.Debug(ctx, "dialog", "dialog.step",
		slog.Int64("owner_id", m.owner),
		slog.String("state", string(m.state)),
		slog.String("next_state", string(step.Next)),
		slog.String("action", actionName(step.Action)),
	)

	var err error
	switch step.Action {
	case ActionNone:
		return nil
	case ActionList:
		err = m.sendList(ctx, out)
	case ActionPromptSticker:
		err = out.PromptSticker(MsgSendSticker)
	case ActionRemove:
		err = m.removeAt(ctx, step.Position, out)
	case ActionHoldSticker:
		m.pending = ev.Ref
		err = out.SendText(MsgWriteDescription)
	case ActionSave:
		err = m.save(ctx, ev.Text, out)
	case ActionCancel:
		m.pending = ""
		err = out.SendText(MsgCancelled)
	}
	if err != nil {
		return err
	}

	m.state = step.Next
	if m.state != StateAwaitingName {
		// pending only survives while a name is expected
		m.pending = ""
	}
	return nil
}

func (m *Machine) sendList(ctx context.Context, out Sink) error {
	rows, err := m.store.List(ctx, m.owner)
	if err != nil {
		return err
	}
	if err := out.SendText(fmt.Sprintf(MsgCountFmt, len(rows))); err != nil {
		return err
	}
	for i, row := range rows {
		if err := out.SendText(fmt.Sprintf("%d: %s", i+1, row.Name)); err != nil {
			return err
		}
		if err := out.SendSticker(row.Ref); err != nil {
			return err
		}
	}
	return nil
}

// removeAt resolves the 1-based position against list order, not against
// the stored local id: after deletions the two diverge.
func (m *Machine) removeAt(ctx context.Context, pos int, out Sink) error {
	rows, err := m.store.List(ctx, m.owner)
	if err != nil {
		return err
	}
	if pos < 1 || pos > len(rows) {
		return out.SendText(MsgNotFound)
	}
	found, err := m.store.Delete(ctx, m.owner, rows[pos-1].LocalID)
	if err != nil {
		return err
	}
	if !found {
		return out.SendText(MsgNotFound)
	}
	logger.Info(ctx, "dialog", "sticker.removed",
		slog.Int64("owner_id", m.owner),
		slog.Int64("local_id", rows[pos-1].LocalID),
		slog.Int("position", pos),
	)
	return out.SendText(MsgRemoved)
}

func (m *Machine) save(ctx context.Context, name string, out Sink) error {
	localID, err := m.store.Insert(ctx, m.owner, name, m.pending)
	if err != nil {
		return err
	}
	logger.Info(ctx, "dialog", "sticker.added",
		slog.Int64("owner_id", m.owner),
		slog.Int64("local_id", localID),
		slog.String("name", logger.SanitizeLimit(name, 128)),
	)
	return out.SendText(fmt.Sprintf(MsgDoneFmt, m.botName))
}

func actionName(a ActionKind) string {
	switch a {
	case ActionList:
		return "list"
	case ActionPromptSticker:
		return "prompt_sticker"
	case ActionRemove:
		return "remove"
	case ActionHoldSticker:
		return "hold_sticker"
	case ActionSave:
		return "save"
	case ActionCancel:
		return "cancel"
	default:
		return "none"
	}
}
