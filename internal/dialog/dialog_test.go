package dialog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/stickerkid/internal/sticker"
)

type recordingSink struct {
	texts    []string
	stickers []string
	prompts  []string
}

func (s *recordingSink) SendText(text string) error {
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSink) SendSticker(ref string) error {
	s.stickers = append(s.stickers, ref)
	return nil
}

func (s *recordingSink) PromptSticker(text string) error {
	s.prompts = append(s.prompts, text)
	return nil
}

func text(t string) Event    { return Event{Kind: EventText, Text: t} }
func stickerEv(r string) Event { return Event{Kind: EventSticker, Ref: r} }

func TestNextTransitionTable(t *testing.T) {
	tests := []struct {
		name  string
		state State
		ev    Event
		want  Step
	}{
		{"list from idle", StateIdle, text("/list"), Step{Action: ActionList, Next: StateIdle}},
		{"add from idle", StateIdle, text("/add"), Step{Action: ActionPromptSticker, Next: StateAwaitingSticker}},
		{"remove with position", StateIdle, text("/remove 2"), Step{Action: ActionRemove, Position: 2, Next: StateIdle}},
		{"remove anywhere in message", StateIdle, text("please /remove 3 now"), Step{Action: ActionRemove, Position: 3, Next: StateIdle}},
		{"remove case-insensitive", StateIdle, text("/REMOVE 1"), Step{Action: ActionRemove, Position: 1, Next: StateIdle}},
		{"remove without number is no match", StateIdle, text("/remove"), Step{Action: ActionNone, Next: StateIdle}},
		{"remove with garbage number is no match", StateIdle, text("/remove abc"), Step{Action: ActionNone, Next: StateIdle}},
		{"remove with negative number is no match", StateIdle, text("/remove -1"), Step{Action: ActionNone, Next: StateIdle}},
		{"remove not word-bounded is no match", StateIdle, text("x/remove 1"), Step{Action: ActionNone, Next: StateIdle}},
		{"sticker while idle is dropped", StateIdle, stickerEv("ref"), Step{Action: ActionNone, Next: StateIdle}},
		{"free text while idle is dropped", StateIdle, text("hello"), Step{Action: ActionNone, Next: StateIdle}},
		{"sticker while awaiting sticker", StateAwaitingSticker, stickerEv("ref"), Step{Action: ActionHoldSticker, Next: StateAwaitingName}},
		{"free text while awaiting sticker is dropped", StateAwaitingSticker, text("hello"), Step{Action: ActionNone, Next: StateAwaitingSticker}},
		{"text while awaiting name saves", StateAwaitingName, text("my cat"), Step{Action: ActionSave, Next: StateIdle}},
		{"sticker while awaiting name is dropped", StateAwaitingName, stickerEv("ref"), Step{Action: ActionNone, Next: StateAwaitingName}},
		{"command wins over description", StateAwaitingName, text("/list"), Step{Action: ActionList, Next: StateIdle}},
		{"cancel while idle is dropped", StateIdle, text("/cancel"), Step{Action: ActionNone, Next: StateIdle}},
		{"cancel aborts dialog", StateAwaitingSticker, text("/cancel"), Step{Action: ActionCancel, Next: StateIdle}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, Next(test.state, test.ev))
		})
	}
}

func TestAddFlowCompletes(t *testing.T) {
	store := sticker.NewMemoryStore()
	m := NewMachine(42, store, "stickerkid_bot")
	sink := &recordingSink{}
	ctx := context.Background()

	require.NoError(t, m.Handle(ctx, text("/add"), sink))
	require.Equal(t, StateAwaitingSticker, m.State())
	require.Equal(t, []string{MsgSendSticker}, sink.prompts)

	require.NoError(t, m.Handle(ctx, stickerEv("file-123"), sink))
	require.Equal(t, StateAwaitingName, m.State())
	require.Equal(t, []string{MsgWriteDescription}, sink.texts)

	require.NoError(t, m.Handle(ctx, text("hello"), sink))
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, fmt.Sprintf(MsgDoneFmt, "stickerkid_bot"), sink.texts[len(sink.texts)-1])

	rows, err := store.List(ctx, 42)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "hello", rows[0].Name)
	require.Equal(t, "file-123", rows[0].Ref)
	require.EqualValues(t, 1, rows[0].LocalID)
}

func TestUnexpectedEventsKeepState(t *testing.T) {
	store := sticker.NewMemoryStore()
	m := NewMachine(1, store, "bot")
	sink := &recordingSink{}
	ctx := context.Background()

	require.NoError(t, m.Handle(ctx, text("/add"), sink))
	// A plain text that is not a command must not advance the dialog.
	require.NoError(t, m.Handle(ctx, text("not a sticker"), sink))
	require.Equal(t, StateAwaitingSticker, m.State())
	require.Empty(t, sink.texts)
}

func TestListEnumeratesAndSendsStickers(t *testing.T) {
	store := sticker.NewMemoryStore()
	ctx := context.Background()
	_, err := store.Insert(ctx, 9, "first", "ref-1")
	require.NoError(t, err)
	_, err = store.Insert(ctx, 9, "second", "ref-2")
	require.NoError(t, err)

	m := NewMachine(9, store, "bot")
	sink := &recordingSink{}
	require.NoError(t, m.Handle(ctx, text("/list"), sink))

	require.Equal(t, []string{"You have 2 stickers.", "1: first", "2: second"}, sink.texts)
	require.Equal(t, []string{"ref-1", "ref-2"}, sink.stickers)
}

func TestRemoveResolvesByListPosition(t *testing.T) {
	store := sticker.NewMemoryStore()
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		_, err := store.Insert(ctx, 5, n, "r")
		require.NoError(t, err)
	}
	// Leave local ids [3,5,7].
	for _, id := range []int64{1, 2, 4, 6} {
		found, err := store.Delete(ctx, 5, id)
		require.NoError(t, err)
		require.True(t, found)
	}

	m := NewMachine(5, store, "bot")
	sink := &recordingSink{}
	require.NoError(t, m.Handle(ctx, text("/remove 2"), sink))
	require.Equal(t, []string{MsgRemoved}, sink.texts)

	rows, err := store.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// The 2nd by list order was local id 5, not local id 2.
	require.EqualValues(t, 3, rows[0].LocalID)
	require.EqualValues(t, 7, rows[1].LocalID)
}

func TestRemoveOutOfRangeRepliesNotFound(t *testing.T) {
	store := sticker.NewMemoryStore()
	ctx := context.Background()
	_, err := store.Insert(ctx, 5, "only", "r")
	require.NoError(t, err)

	m := NewMachine(5, store, "bot")
	sink := &recordingSink{}
	require.NoError(t, m.Handle(ctx, text("/remove 9"), sink))
	require.Equal(t, []string{MsgNotFound}, sink.texts)
}

func TestCancelDropsPendingSticker(t *testing.T) {
	store := sticker.NewMemoryStore()
	m := NewMachine(2, store, "bot")
	sink := &recordingSink{}
	ctx := context.Background()

	require.NoError(t, m.Handle(ctx, text("/add"), sink))
	require.NoError(t, m.Handle(ctx, stickerEv("ref"), sink))
	require.NoError(t, m.Handle(ctx, text("/cancel"), sink))
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, MsgCancelled, sink.texts[len(sink.texts)-1])

	// Restarting the flow must not leak the cancelled ref.
	require.NoError(t, m.Handle(ctx, text("/add"), sink))
	require.NoError(t, m.Handle(ctx, stickerEv("ref-2"), sink))
	require.NoError(t, m.Handle(ctx, text("fresh"), sink))

	rows, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "ref-2", rows[0].Ref)
}
