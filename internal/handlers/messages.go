package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrsp/sticker-alias/internal/models"
	"github.com/qrsp/sticker-alias/internal/workflow"
)

// HandleMessage routes commands, stickers and plain text.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch {
	case msg.IsCommand():
		h.report(h.HandleCommand(ctx, msg), userID, "command")

	case msg.Sticker != nil:
		err := h.machine.HandleSticker(ctx, workflow.StickerSubmission{
			UserID: userID,
			ChatID: chatID,
			Sticker: models.StickerRef{
				FileUniqueID: msg.Sticker.FileUniqueID,
				FileID:       msg.Sticker.FileID,
				SetName:      msg.Sticker.SetName,
			},
		})
		h.report(err, userID, "sticker")

	case msg.Text != "":
		err := h.machine.HandleText(ctx, workflow.TextSubmission{
			UserID: userID,
			ChatID: chatID,
			Text:   msg.Text,
		})
		h.report(err, userID, "text")
	}
}
