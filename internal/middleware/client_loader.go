package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/service"
)

type ctxKey string

const ClientKey ctxKey = "client"

// ClientProvider returns the chat client bound to a Telegram user.
type ClientProvider interface {
	Get(ctx context.Context, telegramID, chatID int64) *service.Client
}

// GetClient extracts the user's client from context.
func GetClient(ctx context.Context) *service.Client {
	c, ok := ctx.Value(ClientKey).(*service.Client)
	if !ok {
		return nil
	}
	return c
}

// ClientLoader returns middleware that puts the sender's client into context.
// Only private chats get a client.
func ClientLoader(clients ClientProvider) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			var chat *models.Chat

			if update.Message != nil {
				from = update.Message.From
				chat = &update.Message.Chat
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
				if msg := update.CallbackQuery.Message.Message; msg != nil {
					chat = &msg.Chat
				}
			}

			if from == nil || chat == nil || chat.Type != models.ChatTypePrivate {
				next(ctx, b, update)
				return
			}

			if c := clients.Get(ctx, from.ID, chat.ID); c != nil {
				ctx = context.WithValue(ctx, ClientKey, c)
			}
			next(ctx, b, update)
		}
	}
}
