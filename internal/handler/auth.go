package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/service"
	tg "github.com/set-night/mindchat/internal/telegram"
)

func (h *Handler) handleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.authenticate(ctx, b, update, "/login", (*service.Client).Login)
}

func (h *Handler) handleRegister(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.authenticate(ctx, b, update, "/register", (*service.Client).Register)
}

func (h *Handler) authenticate(ctx context.Context, b *bot.Bot, update *models.Update, command string,
	action func(*service.Client, context.Context, string, string) error) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	client := middleware.GetClient(ctx)
	if client == nil {
		tg.SendText(ctx, b, msg.Chat.ID, privateOnlyText)
		return
	}

	fields := strings.Fields(commandArgs(msg.Text))
	if len(fields) != 2 {
		tg.SendText(ctx, b, msg.Chat.ID, "Использование: "+command+" email пароль")
		return
	}

	// The message carries a password; do not leave it in the history.
	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: msg.ID}); err != nil {
		slog.Warn("delete credentials message", "chat_id", msg.Chat.ID, "error", err)
	}

	// Success and failure notices are rendered by the client.
	action(client, ctx, fields[0], fields[1])
}

func (h *Handler) handleLogout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	client := middleware.GetClient(ctx)
	if client == nil {
		tg.SendText(ctx, b, update.Message.Chat.ID, privateOnlyText)
		return
	}
	if err := client.Logout(ctx); err != nil {
		slog.Error("logout", "chat_id", update.Message.Chat.ID, "error", err)
	}
}

// requireLogin returns the sender's client when it has a session, and tells
// the user to log in otherwise.
func (h *Handler) requireLogin(ctx context.Context, b *bot.Bot, update *models.Update) (*service.Client, int64, bool) {
	chatID, _ := updateChat(update)
	if chatID == 0 {
		return nil, 0, false
	}
	client := middleware.GetClient(ctx)
	if client == nil {
		tg.SendText(ctx, b, chatID, privateOnlyText)
		return nil, chatID, false
	}
	if !client.LoggedIn() {
		tg.SendText(ctx, b, chatID, "🔑 Войдите в систему: /login email пароль")
		return nil, chatID, false
	}
	return client, chatID, true
}

// commandArgs returns the text after the command word.
func commandArgs(text string) string {
	_, args, _ := strings.Cut(text, " ")
	return strings.TrimSpace(args)
}

// updateChat returns the chat and, for callbacks, the message the update
// refers to.
func updateChat(update *models.Update) (int64, int) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, update.Message.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		msg := update.CallbackQuery.Message.Message
		return msg.Chat.ID, msg.ID
	}
	return 0, 0
}
