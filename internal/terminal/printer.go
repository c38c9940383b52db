// Package terminal renders client events as plain text lines.
package terminal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
)

// ModelNamer resolves a model id to its display name.
type ModelNamer interface {
	Name(id string) string
}

// Printer is a service.Surface writing to out; progress lines go to status.
type Printer struct {
	out    io.Writer
	status io.Writer
	models ModelNamer

	mu sync.Mutex
}

func NewPrinter(out, status io.Writer, models ModelNamer) *Printer {
	return &Printer{out: out, status: status, models: models}
}

func (p *Printer) Render(_ context.Context, ev service.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := ev.(type) {
	case service.Notice:
		fmt.Fprintf(p.out, "%s %s\n", noticeIcon(e.Level), e.Text)
	case service.LoadingStarted:
		fmt.Fprintln(p.status, "⏳ ...")
	case service.MessageAppended:
		if e.Message.Role == domain.RoleAssistant {
			writeMessage(p.out, e.Message, p.models)
		}
	case service.ChatOpened:
		WriteHistory(p.out, e.Chat, p.models)
	case service.ProfileChanged:
		WriteProfile(p.out, e.Profile)
	case service.ModelSelected:
		fmt.Fprintf(p.out, "Модель: %s %s\n", e.Model.Icon(), e.Model.DisplayName)
	case service.AttachmentsChanged:
		for _, a := range e.Pending {
			fmt.Fprintf(p.out, "%s %s (%d байт)\n", service.FileIcon(a), a.Name, a.SizeBytes)
		}
	}
}

// WriteHistory prints every message of chat.
func WriteHistory(w io.Writer, chat domain.Chat, models ModelNamer) {
	fmt.Fprintf(w, "💬 %s [%s]\n", chat.Title, chat.ID)
	if len(chat.Messages) == 0 {
		fmt.Fprintln(w, "Начните новый диалог")
		return
	}
	for _, m := range chat.Messages {
		writeMessage(w, m, models)
	}
}

// WriteProfile prints the profile with the 1-based positions the profile
// commands take.
func WriteProfile(w io.Writer, p domain.Profile) {
	fmt.Fprintln(w, "Ценности:")
	for _, v := range p.Values {
		fmt.Fprintf(w, "  %-14s %3d/%d\n", v.Name, v.Value, domain.MaxValueWeight)
	}
	fmt.Fprintln(w, "Интересы:")
	for i, interest := range p.Interests {
		fmt.Fprintf(w, "  %d. %s\n", i+1, interest)
	}
	fmt.Fprintln(w, "Навыки:")
	for i, s := range p.Skills {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, s.Name, strings.Repeat("★", s.Level)+strings.Repeat("☆", domain.MaxSkillLevel-s.Level))
	}
}

func writeMessage(w io.Writer, m domain.Message, models ModelNamer) {
	who := "👤 Вы"
	if m.Role == domain.RoleAssistant {
		who = "🤖 " + models.Name(m.Model)
	}
	fmt.Fprintf(w, "\n%s  %s\n%s\n", who, m.Timestamp.Local().Format("02.01 15:04"), m.Content)
	for _, a := range m.Attachments {
		fmt.Fprintf(w, "  %s %s\n", service.FileIcon(a), a.Name)
	}

	var stats []string
	if m.Tokens != nil {
		stats = append(stats, fmt.Sprintf("💬 %d токенов", m.Tokens.Total()))
	}
	if m.Cost != nil {
		stats = append(stats, "💰 "+m.Cost.StringFixed(2)+"₽")
	}
	if len(stats) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(stats, "  "))
	}
}

func noticeIcon(level service.NoticeLevel) string {
	switch level {
	case service.NoticeSuccess:
		return "✓"
	case service.NoticeWarning:
		return "!"
	case service.NoticeError:
		return "✗"
	default:
		return "i"
	}
}
