package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrsp/sticker-alias/internal/query"
	"github.com/qrsp/sticker-alias/internal/workflow"
)

// HandleInline answers an inline query with cached-sticker results. Nothing
// is sent for unknown users or empty results.
func (h *Handler) HandleInline(ctx context.Context, iq *tgbotapi.InlineQuery) {
	if iq.From == nil {
		return
	}
	userID := iq.From.ID
	ok, err := h.db.IsAuthorized(ctx, userID)
	if err != nil || !ok {
		if err == nil {
			err = workflow.ErrUnknownUser
		}
		h.report(err, userID, "inline")
		return
	}

	res, err := h.router.Lookup(ctx, userID, iq.Query)
	if err != nil {
		h.report(err, userID, "inline")
		return
	}
	page, next := query.Page(res.Stickers, iq.Offset)
	if len(page) == 0 {
		return
	}

	results := make([]interface{}, 0, len(page))
	for _, s := range page {
		results = append(results, tgbotapi.NewInlineQueryResultCachedSticker(s.FileUniqueID, s.FileID, s.FileUniqueID))
	}
	answer := tgbotapi.InlineConfig{
		InlineQueryID: iq.ID,
		Results:       results,
		CacheTime:     res.CacheTime,
		IsPersonal:    true,
		NextOffset:    next,
	}
	if _, err := h.bot.Request(answer); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Str("kind", res.Query.Kind.String()).Msg("answer inline query failed")
	}
}

// HandleChosen records a picked inline result; the result id is the
// sticker's unique id.
func (h *Handler) HandleChosen(ctx context.Context, cr *tgbotapi.ChosenInlineResult) {
	if cr.From == nil {
		return
	}
	err := h.machine.RecordSelection(ctx, workflow.Selection{
		UserID:       cr.From.ID,
		FileUniqueID: cr.ResultID,
	})
	h.report(err, cr.From.ID, "chosen_inline_result")
}
