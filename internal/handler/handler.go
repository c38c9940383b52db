package handler

import (
	"github.com/go-telegram/bot"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/service"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot     *bot.Bot
	cfg     *config.BotConfig
	clients *Clients
	models  *service.ModelCatalog
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot     *bot.Bot
	Cfg     *config.BotConfig
	Clients *Clients
	Models  *service.ModelCatalog
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:     deps.Bot,
		cfg:     deps.Cfg,
		clients: deps.Clients,
		models:  deps.Models,
	}
}
