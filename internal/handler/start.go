package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/middleware"
	tg "github.com/set-night/mindchat/internal/telegram"
)

const privateOnlyText = "Я работаю только в личных сообщениях."

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	client := middleware.GetClient(ctx)
	if client == nil {
		tg.SendText(ctx, b, chatID, privateOnlyText)
		return
	}

	var sb strings.Builder
	sb.WriteString("👋 Привет! Я AI-ассистент с поддержкой нескольких моделей.\n\n")
	if sess, ok := client.Session.Current(); ok {
		sb.WriteString(tg.FormatAccount(sess.User.Email, client.Balance()))
	} else {
		sb.WriteString("Сначала войдите: /login email пароль\nили зарегистрируйтесь: /register email пароль\n\n")
	}
	sb.WriteString("📋 *Команды:*\n" +
		"/new — Новый чат\n" +
		"/chats — Список чатов\n" +
		"/rename — Переименовать текущий чат\n" +
		"/search — Поиск по чатам\n" +
		"/favorites — Избранные чаты\n" +
		"/models — Выбрать AI-модель\n" +
		"/balance — Баланс\n" +
		"/profile — Профиль: ценности, интересы, навыки\n" +
		"/logout — Выйти\n\n" +
		"Просто отправьте сообщение, чтобы начать диалог!")

	if err := tg.SendLongMessage(ctx, b, chatID, sb.String(), nil); err != nil {
		slog.Error("send greeting", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) handleBalance(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	tg.SendText(ctx, b, chatID, fmt.Sprintf("💰 Баланс: %s₽", client.Balance().StringFixed(2)))
}

// handleStat shows bridge statistics to admins.
func (h *Handler) handleStat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || !h.cfg.IsAdmin(update.Message.From.ID) {
		return
	}
	total, loggedIn := h.clients.Stats()
	source := "встроенный"
	if h.models.FromBackend() {
		source = "сервер"
	}
	tg.SendText(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"📊 Клиентов: %d\n🔑 Вошли в систему: %d\n🤖 Моделей: %d (каталог: %s)",
		total, loggedIn, len(h.models.List()), source,
	))
}
