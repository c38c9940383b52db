package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/mindchat/internal/telegram"
)

func (h *Handler) handleModels(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}

	list := client.Models.List()
	var sb strings.Builder
	sb.WriteString("🤖 *Модели*\n")
	for _, m := range list {
		sb.WriteString("\n")
		sb.WriteString(tg.FormatModel(m))
		sb.WriteString("\n")
	}

	keyboard := tg.ModelKeyboard(list, client.Chats.SelectedModel())
	if err := tg.SendLongMessage(ctx, b, chatID, sb.String(), keyboard); err != nil {
		tg.SendText(ctx, b, chatID, "❌ Не удалось показать список моделей.")
	}
}

func (h *Handler) handleModelSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	id := strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackModel)
	if err := client.SelectModel(ctx, id); err != nil {
		return
	}

	_, messageID := updateChat(update)
	b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: tg.ModelKeyboard(client.Models.List(), id),
	})
}
