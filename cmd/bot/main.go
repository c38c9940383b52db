package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	mindchat "github.com/set-night/mindchat"
	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/handler"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadBot()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(mindchat.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// The model catalog is shared by every user's client.
	catalog := service.NewModelCatalog()
	if err := catalog.Load(ctx, api.NewClient(cfg.APIBaseURL)); err != nil {
		slog.Warn("model catalog unavailable, using defaults", "error", err)
	}

	// Clients are bound to the bot after it is created.
	var clients *handler.Clients
	provider := clientProviderFunc(func(ctx context.Context, telegramID, chatID int64) *service.Client {
		return clients.Get(ctx, telegramID, chatID)
	})

	// Create bot
	b, err := bot.New(cfg.BotToken, bot.WithMiddlewares(
		middleware.Recover(),
		middleware.Logging(),
		middleware.RateLimit(cfg.RateLimitPerMinute, config.RateLimitBurst),
		middleware.ClientLoader(provider),
	))
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("drop pending updates", "error", err)
		}
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	clients = handler.NewClients(b, pool, cfg, catalog)

	// Initialize handler
	h := handler.New(handler.Deps{
		Bot:     b,
		Cfg:     cfg,
		Clients: clients,
		Models:  catalog,
	})

	// Register all handlers
	h.Register()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID, "models", len(catalog.List()))
	b.Start(ctx)

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}

type clientProviderFunc func(ctx context.Context, telegramID, chatID int64) *service.Client

func (f clientProviderFunc) Get(ctx context.Context, telegramID, chatID int64) *service.Client {
	return f(ctx, telegramID, chatID)
}
