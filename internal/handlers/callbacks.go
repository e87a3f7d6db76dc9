package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrsp/sticker-alias/internal/models"
	"github.com/qrsp/sticker-alias/internal/workflow"
)

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// always answer callback
	_, _ = h.bot.Request(tgbotapi.NewCallback(cq.ID, ""))

	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	err := h.machine.HandlePress(ctx, workflow.Press{
		UserID: cq.From.ID,
		ChatID: chatID,
		Data:   cq.Data,
		Source: models.MessageRef{ChatID: chatID, MessageID: cq.Message.MessageID},
	})
	h.report(err, cq.From.ID, "callback")
}
