package telegram

import (
	"fmt"
	"strings"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	"github.com/shopspring/decimal"
)

// FormatReply renders an assistant message with its model, token and cost
// footer.
func FormatReply(msg domain.Message, modelName string) string {
	var sb strings.Builder
	sb.WriteString(msg.Content)

	var stats []string
	if modelName != "" {
		stats = append(stats, "🤖 "+modelName)
	}
	if msg.Tokens != nil {
		stats = append(stats, fmt.Sprintf("💬 %d токенов", msg.Tokens.Total()))
	}
	if msg.Cost != nil {
		stats = append(stats, "💰 "+msg.Cost.StringFixed(2)+"₽")
	}
	if len(stats) > 0 {
		sb.WriteString("\n\n_")
		sb.WriteString(strings.Join(stats, " · "))
		sb.WriteString("_")
	}
	return sb.String()
}

// FormatHistory renders the tail of a chat: its title and the last few
// messages.
func FormatHistory(chat domain.Chat, last int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💬 %s\n", EscapeMarkdown(chat.Title))

	if len(chat.Messages) == 0 {
		sb.WriteString("\nНачните новый диалог")
		return sb.String()
	}

	msgs := chat.Messages
	if len(msgs) > last {
		fmt.Fprintf(&sb, "_...ещё %d сообщений выше_\n", len(msgs)-last)
		msgs = msgs[len(msgs)-last:]
	}
	for _, m := range msgs {
		who := "👤"
		if m.Role == domain.RoleAssistant {
			who = "🤖"
		}
		fmt.Fprintf(&sb, "\n%s %s\n", who, domain.Truncate(m.Content, config.PreviewMaxRunes*4))
		for _, a := range m.Attachments {
			fmt.Fprintf(&sb, "   %s %s\n", service.FileIcon(a), a.Name)
		}
	}
	return sb.String()
}

// FormatChatList renders the chats of one list page under header, which is
// Markdown already. total is the size of the whole list.
func FormatChatList(header string, page []domain.Chat, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d шт.)\n", header, total)
	if total == 0 {
		sb.WriteString("\nЧатов нет. Отправьте сообщение или создайте чат: /new")
	}
	for _, c := range page {
		fmt.Fprintf(&sb, "\n• %s\n  %s\n",
			EscapeMarkdown(c.Title), EscapeMarkdown(c.Preview(config.PreviewMaxRunes, "Начните новый диалог")))
	}
	return sb.String()
}

// FormatAccount is the signed-in line of the greeting.
func FormatAccount(email string, balance decimal.Decimal) string {
	return fmt.Sprintf("Вы вошли как %s, баланс *%s₽*.\n\n", EscapeMarkdown(email), balance.StringFixed(2))
}

// FormatProfile renders the profile with 1-based positions, the ones the
// /profile command takes.
func FormatProfile(p domain.Profile) string {
	var sb strings.Builder
	sb.WriteString("👤 *Профиль*\n\n*Ценности:*\n")
	for _, v := range p.Values {
		fmt.Fprintf(&sb, "• %s: %d/%d\n", EscapeMarkdown(v.Name), v.Value, domain.MaxValueWeight)
	}
	sb.WriteString("\n*Интересы:*\n")
	if len(p.Interests) == 0 {
		sb.WriteString("нет\n")
	}
	for i, interest := range p.Interests {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, EscapeMarkdown(interest))
	}
	sb.WriteString("\n*Навыки:*\n")
	if len(p.Skills) == 0 {
		sb.WriteString("нет\n")
	}
	for i, s := range p.Skills {
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, EscapeMarkdown(s.Name), strings.Repeat("⭐", s.Level))
	}
	return sb.String()
}

// FormatModel describes one catalog entry.
func FormatModel(m domain.ModelDescriptor) string {
	caps := make([]string, 0, len(m.Capabilities))
	for _, c := range m.Capabilities {
		caps = append(caps, string(c))
	}
	return fmt.Sprintf("%s *%s* (%s)\n%s · контекст %s · %s",
		m.Icon(), m.DisplayName, m.ProviderLabel,
		m.PriceLabel(config.CurrencyRate), m.ContextLabel(), strings.Join(caps, ", "))
}

func noticeIcon(level service.NoticeLevel) string {
	switch level {
	case service.NoticeSuccess:
		return "✅"
	case service.NoticeWarning:
		return "⚠️"
	case service.NoticeError:
		return "❌"
	default:
		return "ℹ️"
	}
}
