package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
)

const historyTail = 6

// ModelNamer resolves a model id to its display name.
type ModelNamer interface {
	Name(id string) string
}

// Surface renders client events into one Telegram chat. Chat list, balance
// and theme changes are pulled on demand by commands, so they are not pushed.
type Surface struct {
	bot    *bot.Bot
	chatID int64
	models ModelNamer

	mu     sync.Mutex
	typing map[domain.ID]context.CancelFunc
}

func NewSurface(b *bot.Bot, chatID int64, models ModelNamer) *Surface {
	return &Surface{
		bot:    b,
		chatID: chatID,
		models: models,
		typing: make(map[domain.ID]context.CancelFunc),
	}
}

func (s *Surface) Render(ctx context.Context, ev service.Event) {
	switch e := ev.(type) {
	case service.LoadingStarted:
		s.startTyping(ctx, e.ChatID)
	case service.LoadingFinished:
		s.stopTyping(e.ChatID)
	case service.MessageAppended:
		if e.Message.Role != domain.RoleAssistant {
			return
		}
		text := FormatReply(e.Message, s.models.Name(e.Message.Model))
		if err := SendLongMessage(ctx, s.bot, s.chatID, text, nil); err != nil {
			slog.Error("send reply", "chat_id", s.chatID, "error", err)
		}
	case service.ChatOpened:
		if err := SendLongMessage(ctx, s.bot, s.chatID, FormatHistory(e.Chat, historyTail), nil); err != nil {
			slog.Error("send history", "chat_id", s.chatID, "error", err)
		}
	case service.ProfileChanged:
		if err := SendLongMessage(ctx, s.bot, s.chatID, FormatProfile(e.Profile), nil); err != nil {
			slog.Error("send profile", "chat_id", s.chatID, "error", err)
		}
	case service.Notice:
		SendText(ctx, s.bot, s.chatID, noticeIcon(e.Level)+" "+e.Text)
	case service.ModelSelected:
		SendText(ctx, s.bot, s.chatID, fmt.Sprintf("✅ Модель: %s %s", e.Model.Icon(), e.Model.DisplayName))
	case service.AttachmentsChanged:
		if n := len(e.Pending); n > 0 {
			SendText(ctx, s.bot, s.chatID, fmt.Sprintf("📎 Прикреплено файлов: %d. Отправьте сообщение.", n))
		}
	}
}

func (s *Surface) startTyping(ctx context.Context, chatID domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.typing[chatID]; ok {
		cancel()
	}
	s.typing[chatID] = StartTyping(ctx, s.bot, s.chatID)
}

func (s *Surface) stopTyping(chatID domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.typing[chatID]; ok {
		cancel()
		delete(s.typing, chatID)
	}
}
