package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrsp/sticker-alias/internal/trending"
	"github.com/qrsp/sticker-alias/internal/workflow"
)

// HandleCommand serves the admin commands here and hands the rest to the
// workflow machine.
func (h *Handler) HandleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	userID, chatID := msg.From.ID, msg.Chat.ID
	name := strings.ToLower(msg.Command())

	switch name {
	case "export", "trending":
		ok, err := h.isAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			h.reply(chatID, txtAdminOnly)
			return nil
		}
		if name == "export" {
			return h.export(ctx, chatID)
		}
		h.runTrending(ctx, chatID)
		return nil
	}

	return h.machine.HandleCommand(ctx, workflow.Command{
		UserID: userID,
		ChatID: chatID,
		Name:   name,
		Args:   strings.Fields(msg.CommandArguments()),
	})
}

func (h *Handler) isAdmin(ctx context.Context, userID int64) (bool, error) {
	u, err := h.db.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return false, workflow.ErrUnknownUser
	}
	return u.Admin, nil
}

// export sends the database file as a document.
func (h *Handler) export(ctx context.Context, chatID int64) error {
	if err := h.db.Checkpoint(ctx); err != nil {
		h.log.Warn().Err(err).Msg("checkpoint before export failed")
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(h.db.Path()))
	if _, err := h.bot.Send(doc); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// runTrending starts a scoring pass in the background. The engine reports
// progress to the admin itself.
func (h *Handler) runTrending(ctx context.Context, chatID int64) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		_, err := h.engine.Run(context.WithoutCancel(ctx))
		switch {
		case errors.Is(err, trending.ErrRunInProgress):
			h.reply(chatID, txtTrendingBusy)
		case err != nil:
			h.log.Error().Err(err).Msg("manual scoring run failed")
		}
	}()
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("reply failed")
	}
}
