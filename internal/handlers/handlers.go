package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qrsp/sticker-alias/internal/models"
	"github.com/qrsp/sticker-alias/internal/workflow"
)

// telegram carries workflow output to the Bot API.
type telegram struct {
	bot botAPI
}

func inlineKeyboard(kb workflow.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, r := range kb {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (t *telegram) Send(_ context.Context, chatID int64, text string, kb workflow.Keyboard) (models.MessageRef, error) {
	cfg := tgbotapi.NewMessage(chatID, text)
	if len(kb) > 0 {
		cfg.ReplyMarkup = inlineKeyboard(kb)
	}
	m, err := t.bot.Send(cfg)
	if err != nil {
		return models.MessageRef{}, fmt.Errorf("send message: %w", err)
	}
	return models.MessageRef{ChatID: chatID, MessageID: m.MessageID}, nil
}

func (t *telegram) Edit(_ context.Context, ref models.MessageRef, text string, kb workflow.Keyboard) error {
	var cfg tgbotapi.Chattable
	if len(kb) > 0 {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, text, inlineKeyboard(kb))
	} else {
		cfg = tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	}
	if _, err := t.bot.Request(cfg); err != nil {
		return fmt.Errorf("edit message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (t *telegram) Delete(_ context.Context, ref models.MessageRef) error {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (t *telegram) Pin(_ context.Context, ref models.MessageRef) error {
	_, err := t.bot.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              ref.ChatID,
		MessageID:           ref.MessageID,
		DisableNotification: true,
	})
	if err != nil {
		return fmt.Errorf("pin message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (t *telegram) StickerSet(_ context.Context, name string) (workflow.StickerSet, error) {
	set, err := t.bot.GetStickerSet(tgbotapi.GetStickerSetConfig{Name: name})
	if err != nil {
		return workflow.StickerSet{}, fmt.Errorf("get sticker set %s: %w", name, err)
	}
	out := workflow.StickerSet{Name: set.Name, Title: set.Title}
	for _, s := range set.Stickers {
		out.Stickers = append(out.Stickers, models.StickerRef{
			FileUniqueID: s.FileUniqueID,
			FileID:       s.FileID,
			SetName:      s.SetName,
		})
	}
	return out, nil
}

// adminLookup finds the chat that receives operational notices.
type adminLookup interface {
	AdminID(ctx context.Context) (int64, bool, error)
}

// Notifier sends operational notices to the admin's private chat.
type Notifier struct {
	bot botAPI
	db  adminLookup
}

func NewNotifier(bot botAPI, db adminLookup) *Notifier {
	return &Notifier{bot: bot, db: db}
}

// NotifyAdmin is a no-op when no admin is registered.
func (n *Notifier) NotifyAdmin(ctx context.Context, text string) error {
	id, ok, err := n.db.AdminID(ctx)
	if err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	if !ok {
		return nil
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	return nil
}
