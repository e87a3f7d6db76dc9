package handlers

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qrsp/sticker-alias/internal/query"
	"github.com/qrsp/sticker-alias/internal/storage"
	"github.com/qrsp/sticker-alias/internal/trending"
	"github.com/qrsp/sticker-alias/internal/workflow"
)

// botAPI is the subset of *tgbotapi.BotAPI the handlers call.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetStickerSet(config tgbotapi.GetStickerSetConfig) (tgbotapi.StickerSet, error)
}

// Runner starts one scoring pass.
type Runner interface {
	Run(ctx context.Context) (trending.Stats, error)
}

type Handler struct {
	bot     botAPI
	db      *storage.DB
	machine *workflow.Machine
	router  *query.Router
	engine  Runner
	log     zerolog.Logger

	wg sync.WaitGroup // background admin jobs
}

func NewHandler(bot botAPI, db *storage.DB, engine Runner, inlineCacheSeconds int) *Handler {
	tg := &telegram{bot: bot}
	return &Handler{
		bot:     bot,
		db:      db,
		machine: workflow.New(db, tg, tg),
		router:  query.NewRouter(db, inlineCacheSeconds),
		engine:  engine,
		log:     log.With().Str("component", "handlers").Logger(),
	}
}

// Listen consumes updates until ctx is cancelled or the channel closes.
func (h *Handler) Listen(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			h.wg.Wait()
			return
		case upd, ok := <-updates:
			if !ok {
				h.wg.Wait()
				return
			}
			h.Handle(ctx, upd)
		}
	}
}

// Handle dispatches one update. Failures are logged; the loop keeps going.
func (h *Handler) Handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.HandleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.HandleCallback(ctx, upd.CallbackQuery)
	case upd.InlineQuery != nil:
		h.HandleInline(ctx, upd.InlineQuery)
	case upd.ChosenInlineResult != nil:
		h.HandleChosen(ctx, upd.ChosenInlineResult)
	}
}

func (h *Handler) report(err error, userID int64, what string) {
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrUnknownUser):
		h.log.Warn().Int64("user_id", userID).Str("update", what).Msg("unknown user ignored")
	default:
		h.log.Error().Err(err).Int64("user_id", userID).Str("update", what).Msg("handler failed")
	}
}
