package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	tg "github.com/set-night/mindchat/internal/telegram"
)

func (h *Handler) handleNewChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, _, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	// The opened chat is rendered by the client.
	client.CreateChat(ctx, commandArgs(update.Message.Text))
}

func (h *Handler) handleChats(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	h.sendChatList(ctx, b, chatID, 0, client, "📂 *Чаты*", client.Chats.Chats(), 0, tg.CallbackPage)
}

func (h *Handler) handleSearch(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	query := commandArgs(update.Message.Text)
	if query == "" {
		tg.SendText(ctx, b, chatID, "Использование: /search текст")
		return
	}
	h.sendChatList(ctx, b, chatID, 0, client, "🔍 *Поиск:* "+tg.EscapeMarkdown(query), client.Chats.Search(query), 0, "")
}

func (h *Handler) handleFavorites(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	h.sendChatList(ctx, b, chatID, 0, client, "⭐ *Избранное*", client.Chats.Favorites(), 0, "")
}

func (h *Handler) handleRename(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	current, ok := client.Chats.Current()
	if !ok {
		tg.SendText(ctx, b, chatID, "Нет открытого чата. Откройте его через /chats")
		return
	}
	title := commandArgs(update.Message.Text)
	if title == "" {
		tg.SendText(ctx, b, chatID, "Использование: /rename новое название")
		return
	}
	chat, err := client.RenameChat(ctx, current.ID, title)
	if err != nil {
		return
	}
	tg.SendText(ctx, b, chatID, fmt.Sprintf("✏️ Чат переименован: %s", chat.Title))
}

func (h *Handler) handleOpenChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, _, id, ok := h.chatCallback(ctx, b, update, tg.CallbackOpen)
	if !ok {
		return
	}
	// History is rendered by the client.
	client.OpenChat(ctx, id)
}

func (h *Handler) handleToggleFavorite(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, messageID, id, ok := h.chatCallback(ctx, b, update, tg.CallbackFavorite)
	if !ok {
		return
	}
	if _, err := client.ToggleFavorite(ctx, id); err != nil {
		return
	}
	chatID, _ := updateChat(update)
	h.sendChatList(ctx, b, chatID, messageID, client, "📂 *Чаты*", client.Chats.Chats(), 0, tg.CallbackPage)
}

func (h *Handler) handleDeleteChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, messageID, id, ok := h.chatCallback(ctx, b, update, tg.CallbackDelete)
	if !ok {
		return
	}
	if err := client.DeleteChat(ctx, id); err != nil {
		return
	}
	chatID, _ := updateChat(update)
	h.sendChatList(ctx, b, chatID, messageID, client, "📂 *Чаты*", client.Chats.Chats(), 0, tg.CallbackPage)
}

func (h *Handler) handleChatsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	page, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackPage+"_"))
	if err != nil {
		return
	}
	_, messageID := updateChat(update)
	h.sendChatList(ctx, b, chatID, messageID, client, "📂 *Чаты*", client.Chats.Chats(), page, tg.CallbackPage)
}

// chatCallback answers the callback and extracts the chat id after prefix.
func (h *Handler) chatCallback(ctx context.Context, b *bot.Bot, update *models.Update, prefix string) (*service.Client, int, domain.ID, bool) {
	if update.CallbackQuery == nil {
		return nil, 0, "", false
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	client, _, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return nil, 0, "", false
	}
	id := domain.ID(strings.TrimPrefix(update.CallbackQuery.Data, prefix))
	if id == "" {
		return nil, 0, "", false
	}
	_, messageID := updateChat(update)
	return client, messageID, id, true
}

// sendChatList sends a chat list page, or edits messageID in place when it
// is non-zero.
func (h *Handler) sendChatList(ctx context.Context, b *bot.Bot, chatID int64, messageID int, client *service.Client,
	header string, chats []domain.Chat, page int, pagePrefix string) {
	start := 0
	if pagePrefix != "" {
		start = max(page, 0) * config.ChatsPerPage
	}
	if start >= len(chats) {
		start = 0
	}
	end := min(start+config.ChatsPerPage, len(chats))
	text := tg.FormatChatList(header, chats[start:end], len(chats))

	var currentID domain.ID
	if cur, ok := client.Chats.Current(); ok {
		currentID = cur.ID
	}
	keyboard := tg.ChatListKeyboard(chats, currentID, start/config.ChatsPerPage, pagePrefix)

	if messageID != 0 {
		_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: keyboard,
		})
		if err == nil {
			return
		}
		slog.Warn("edit chat list, sending new", "error", err)
	}

	if err := tg.SendLongMessage(ctx, b, chatID, text, keyboard); err != nil {
		slog.Error("send chat list", "chat_id", chatID, "error", err)
	}
}
