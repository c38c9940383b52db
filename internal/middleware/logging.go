package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// updateInfo is what gets logged about an update. Message text is never
// logged: it carries prompts and, for /login and /register, passwords.
type updateInfo struct {
	kind    string
	command string
	chatID  int64
	userID  int64
}

func describeUpdate(update *models.Update) updateInfo {
	info := updateInfo{kind: "unknown"}
	switch {
	case update.Message != nil:
		msg := update.Message
		info.chatID = msg.Chat.ID
		if msg.From != nil {
			info.userID = msg.From.ID
		}
		switch {
		case len(msg.Photo) > 0 || msg.Document != nil:
			info.kind = "attachment"
		case strings.HasPrefix(msg.Text, "/"):
			info.kind = "command"
			info.command = commandName(msg.Text)
		default:
			info.kind = "message"
		}
	case update.CallbackQuery != nil:
		info.kind = "callback_query"
		info.userID = update.CallbackQuery.From.ID
		if m := update.CallbackQuery.Message.Message; m != nil {
			info.chatID = m.Chat.ID
		}
		// Callback data is a prefix plus an id; the prefix is enough.
		data, _, _ := strings.Cut(update.CallbackQuery.Data, "_")
		info.command = data
	}
	return info
}

// commandName returns "/cmd" for "/cmd@SomeBot args".
func commandName(text string) string {
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			info := describeUpdate(update)

			next(ctx, b, update)

			attrs := []any{
				"type", info.kind,
				"chat_id", info.chatID,
				"user_id", info.userID,
				"duration", time.Since(start),
			}
			if info.command != "" {
				attrs = append(attrs, "command", info.command)
			}
			slog.Debug("update processed", attrs...)
		}
	}
}
