package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
	"golang.org/x/time/rate"
)

// RateLimit returns middleware that enforces a per-chat message rate of
// perMinute with the given burst. Callbacks are not limited.
func RateLimit(perMinute, burst int) bot.Middleware {
	limiters := newChatLimiters(perMinute, burst, config.RateLimiterIdleTTL)

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiters.allow(chatID, time.Now()) {
				slog.Debug("rate limited", "chat_id", chatID, "per_minute", perMinute)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Слишком много запросов. Подождите немного.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}

// chatLimiters keeps one limiter per chat and forgets chats idle for longer
// than idle. A forgotten chat starts again with a full burst, which is what
// its limiter would have refilled to anyway.
type chatLimiters struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	entries   map[int64]*chatLimiter
	lastSweep time.Time
}

type chatLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

func newChatLimiters(perMinute, burst int, idle time.Duration) *chatLimiters {
	return &chatLimiters{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idle:    idle,
		entries: make(map[int64]*chatLimiter),
	}
}

func (c *chatLimiters) allow(chatID int64, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) >= c.idle {
		for id, e := range c.entries {
			if now.Sub(e.seen) >= c.idle {
				delete(c.entries, id)
			}
		}
		c.lastSweep = now
	}

	e, ok := c.entries[chatID]
	if !ok {
		e = &chatLimiter{lim: rate.NewLimiter(c.limit, c.burst)}
		c.entries[chatID] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

func (c *chatLimiters) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
