package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/stickerkid/internal/telegram/keyboard"
)

const cancelAction = "dialog_cancel"

// teleSink adapts tele.Context to the dialog reply interface. Sends are
// synchronous so that multi-message replies keep their order.
type teleSink struct {
	c tele.Context
}

func (s *teleSink) SendText(text string) error {
	return s.c.Send(text)
}

func (s *teleSink) SendSticker(ref string) error {
	return s.c.Send(&tele.Sticker{File: tele.File{FileID: ref}})
}

func (s *teleSink) PromptSticker(text string) error {
	return s.c.Send(text, keyboard.SingleCancelMarkup(cancelAction))
}
