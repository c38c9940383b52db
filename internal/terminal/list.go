package terminal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
)

type chatSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Favorite  bool      `json:"favorite"`
	UpdatedAt time.Time `json:"updated_at"`
	Preview   string    `json:"preview"`
}

// WriteChats writes the chat list to w as "tsv" or "json".
func WriteChats(w io.Writer, chats []domain.Chat, includeHeader bool, format string) error {
	items := make([]chatSummary, 0, len(chats))
	for _, c := range chats {
		items = append(items, chatSummary{
			ID:        c.ID.String(),
			Title:     c.Title,
			Favorite:  c.IsFavorite,
			UpdatedAt: c.UpdatedAt,
			Preview:   c.Preview(config.PreviewMaxRunes, "Начните новый диалог"),
		})
	}

	switch format {
	case "tsv":
		if includeHeader {
			if _, err := fmt.Fprintln(w, "id\tfavorite\tupdated_at\ttitle\tpreview"); err != nil {
				return err
			}
		}
		for _, item := range items {
			star := ""
			if item.Favorite {
				star = "*"
			}
			line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
				item.ID, star, item.UpdatedAt.Format(time.RFC3339), escapeNewlines(item.Title), escapeNewlines(item.Preview))
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteModels writes the catalog, marking the selected model.
func WriteModels(w io.Writer, models []domain.ModelDescriptor, selected string) error {
	for _, m := range models {
		mark := " "
		if m.ID == selected {
			mark = "*"
		}
		caps := make([]string, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps = append(caps, string(c))
		}
		if _, err := fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\t%s\n",
			mark, m.ID, m.DisplayName, m.ProviderLabel,
			m.PriceLabel(config.CurrencyRate), m.ContextLabel(), strings.Join(caps, ",")); err != nil {
			return err
		}
	}
	return nil
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}
