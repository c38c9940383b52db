package handler

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
	tg "github.com/set-night/mindchat/internal/telegram"
)

// Clients keeps one chat client per Telegram user. A client is created and
// started on the user's first update; its state lives in PostgreSQL under
// the user's namespace, so it survives restarts.
type Clients struct {
	bot    *bot.Bot
	pool   *pgxpool.Pool
	cfg    *config.BotConfig
	models *service.ModelCatalog

	mu      sync.Mutex
	entries map[int64]*clientEntry
}

type clientEntry struct {
	once   sync.Once
	client atomic.Pointer[service.Client]
}

func NewClients(b *bot.Bot, pool *pgxpool.Pool, cfg *config.BotConfig, models *service.ModelCatalog) *Clients {
	return &Clients{
		bot:     b,
		pool:    pool,
		cfg:     cfg,
		models:  models,
		entries: make(map[int64]*clientEntry),
	}
}

// Get returns the user's client, starting it on first use.
func (c *Clients) Get(ctx context.Context, telegramID, chatID int64) *service.Client {
	c.mu.Lock()
	e, ok := c.entries[telegramID]
	if !ok {
		e = &clientEntry{}
		c.entries[telegramID] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		client := service.New(service.Deps{
			Backend:      api.NewClient(c.cfg.APIBaseURL),
			Store:        repository.NewPostgresKV(c.pool, namespace(telegramID)),
			Surface:      tg.NewSurface(c.bot, chatID, c.models),
			Models:       c.models,
			DefaultModel: c.cfg.DefaultModel,
		})
		if err := client.Start(ctx); err != nil {
			slog.Warn("client start", "telegram_id", telegramID, "error", err)
		}
		slog.Info("client started", "telegram_id", telegramID, "logged_in", client.LoggedIn())
		e.client.Store(client)
	})
	return e.client.Load()
}

// Stats reports how many clients are running and how many are logged in.
func (c *Clients) Stats() (total, loggedIn int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		total++
		if cl := e.client.Load(); cl != nil && cl.LoggedIn() {
			loggedIn++
		}
	}
	return total, loggedIn
}

func namespace(telegramID int64) string {
	return "tg:" + strconv.FormatInt(telegramID, 10)
}
